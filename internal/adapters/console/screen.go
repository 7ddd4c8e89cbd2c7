package console

import (
	"context"
	"strings"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/shell"
)

type screen struct{}

func (screen) binary() string { return Screen }

// hasSession parses "screen -ls" rather than trusting its exit code, which
// is non-zero on several screen versions even when sessions exist.
func (screen) hasSession(ctx context.Context, r shell.Runner, session string) bool {
	out, _ := r.Run(ctx, Screen, "-ls", session)
	return listsSession(out, session)
}

func (screen) send(ctx context.Context, r shell.Runner, session, text string) error {
	_, err := r.Run(ctx, Screen, "-S", session, "-p", "0", "-X", "stuff", text+"\r")
	return err
}

// listsSession finds "<pid>.<session>" in screen -ls output.
func listsSession(out, session string) bool {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if _, name, ok := strings.Cut(fields[0], "."); ok && name == session {
			return true
		}
	}
	return false
}

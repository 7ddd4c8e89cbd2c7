package console

import (
	"context"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/shell"
)

type tmux struct{}

func (tmux) binary() string { return Tmux }

func (tmux) hasSession(ctx context.Context, r shell.Runner, session string) bool {
	// "=" makes tmux match the session name exactly instead of by prefix.
	_, err := r.Run(ctx, Tmux, "has-session", "-t", "="+session)
	return err == nil
}

func (tmux) send(ctx context.Context, r shell.Runner, session, text string) error {
	if _, err := r.Run(ctx, Tmux, "send-keys", "-t", session, "-l", text); err != nil {
		return err
	}
	_, err := r.Run(ctx, Tmux, "send-keys", "-t", session, "Enter")
	return err
}

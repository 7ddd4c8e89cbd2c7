package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ErrTest is a generic test error.
var ErrTest = errors.New("test error")

// TempFile creates a file with content inside dir.
func TempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

// AppendLines appends newline-terminated lines to the file at path,
// creating it when missing.
func AppendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	if len(lines) == 0 {
		return
	}
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		t.Fatalf("appending to %s: %v", path, err)
	}
}

// ChatLine formats a line the way the game server logs player chat.
func ChatLine(player, message string) string {
	return "[12:00:00] [Server thread/INFO] [minecraft/DedicatedServer]: <" + player + "> " + message
}

// PlayerCountLine formats the response to the "list" command.
func PlayerCountLine(online, max int) string {
	return fmt.Sprintf("[12:00:00] [Server thread/INFO] [minecraft/DedicatedServer]: There are %d of a max of %d players online: ", online, max)
}

// TPSLine formats one partition line of the "forge tps" response.
func TPSLine(dim string, tps float64) string {
	return fmt.Sprintf("[12:00:00] [Server thread/INFO] [minecraft/DedicatedServer]: Dim %s : Mean tick time: 12.345 ms. Mean TPS: %.3f", dim, tps)
}

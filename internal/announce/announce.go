// Package announce sends player-facing chat messages through the console.
package announce

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
)

// Prefix marks every message so players can tell who is talking.
const Prefix = "[tickwarden]"

// Announcer broadcasts messages with the configured chat command, "say" by
// default.
type Announcer struct {
	console core.Console
	command string
	logger  *logging.Logger
}

// New creates an Announcer.
func New(console core.Console, command string, logger *logging.Logger) *Announcer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Announcer{console: console, command: command, logger: logger}
}

// Say broadcasts a formatted message. Failures are logged and returned;
// callers usually carry on regardless.
func (a *Announcer) Say(ctx context.Context, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err := a.console.Send(ctx, fmt.Sprintf("%s %s %s", a.command, Prefix, msg)); err != nil {
		a.logger.Warn("announcement failed", "message", msg, "error", err)
		return err
	}
	a.logger.Debug("announced", "message", msg)
	return nil
}

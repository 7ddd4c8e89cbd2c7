// Package console drives the game server's interactive session through a
// terminal multiplexer and reads its recent output from the log file.
package console

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/shell"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logtail"
)

// Supported multiplexers.
const (
	Tmux   = "tmux"
	Screen = "screen"
)

// multiplexer knows how to probe and type into one kind of session.
type multiplexer interface {
	binary() string
	hasSession(ctx context.Context, r shell.Runner, session string) bool
	send(ctx context.Context, r shell.Runner, session, text string) error
}

// Adapter is the core.Console backed by a tmux or screen session.
type Adapter struct {
	runner  shell.Runner
	mux     multiplexer
	session string
	logPath string
}

var _ core.Console = (*Adapter)(nil)

// New builds an Adapter for cfg. A nil runner uses shell.ExecRunner.
func New(cfg config.ServerConfig, runner shell.Runner) (*Adapter, error) {
	mux, err := multiplexerFor(cfg.Multiplexer)
	if err != nil {
		return nil, err
	}
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	return &Adapter{
		runner:  runner,
		mux:     mux,
		session: cfg.Session,
		logPath: cfg.LogPath,
	}, nil
}

func multiplexerFor(name string) (multiplexer, error) {
	switch name {
	case Tmux, "":
		return tmux{}, nil
	case Screen:
		return screen{}, nil
	}
	return nil, core.ErrValidation(core.CodeUnsupportedMode,
		fmt.Sprintf("unsupported multiplexer %q (want tmux or screen)", name))
}

// Binary returns the multiplexer executable name.
func (a *Adapter) Binary() string {
	return a.mux.binary()
}

// Session returns the session name.
func (a *Adapter) Session() string {
	return a.session
}

// Attached reports whether the session exists.
func (a *Adapter) Attached(ctx context.Context) bool {
	return a.mux.hasSession(ctx, a.runner, a.session)
}

// Send types command into the session and presses enter.
func (a *Adapter) Send(ctx context.Context, command string) error {
	if !a.Attached(ctx) {
		return core.ErrTransient(core.CodeNotAttached,
			fmt.Sprintf("%s session %q not found", a.mux.binary(), a.session))
	}
	if err := a.mux.send(ctx, a.runner, a.session, command); err != nil {
		return core.ErrTransient(core.CodeCommandFailed,
			fmt.Sprintf("sending to %s session %q", a.mux.binary(), a.session)).WithCause(err)
	}
	return nil
}

// RecentOutput returns up to maxLines of the newest log lines.
func (a *Adapter) RecentOutput(_ context.Context, maxLines int) ([]string, error) {
	return logtail.Tail(a.logPath, maxLines)
}

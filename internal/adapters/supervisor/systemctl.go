// Package supervisor asks the host service manager to restart the game unit.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/shell"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

// Restarter runs the configured restart command with the unit appended,
// for example "sudo -n systemctl restart minecraft.service".
type Restarter struct {
	runner  shell.Runner
	command []string
	unit    string
	timeout time.Duration
}

var _ core.Restarter = (*Restarter)(nil)

// New builds a Restarter. A nil runner uses shell.ExecRunner.
func New(cfg config.SupervisorConfig, runner shell.Runner) *Restarter {
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	return &Restarter{
		runner:  runner,
		command: cfg.Command,
		unit:    cfg.Unit,
		timeout: cfg.Timeout,
	}
}

// CommandLine returns the full command that Restart runs.
func (r *Restarter) CommandLine() []string {
	line := append([]string{}, r.command...)
	if r.unit != "" {
		line = append(line, r.unit)
	}
	return line
}

// Restart requests the restart once. Any failure is reported as
// core.ErrRestartFailed and is never retried here.
func (r *Restarter) Restart(ctx context.Context) error {
	line := r.CommandLine()
	if len(line) == 0 {
		return core.ErrRestart("no restart command configured")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if _, err := r.runner.Run(ctx, line[0], line[1:]...); err != nil {
		return core.ErrRestart(fmt.Sprintf("%q failed", strings.Join(line, " "))).WithCause(err)
	}
	return nil
}

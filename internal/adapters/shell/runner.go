// Package shell runs external commands for the adapters that drive the
// multiplexer and the service supervisor.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

// Runner executes a command and returns its trimmed standard output.
// Output is returned even when the command fails.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no extra bound beyond ctx.
	Timeout time.Duration
}

// Run executes name with args.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, core.ErrTransient(core.CodeCommandFailed,
				fmt.Sprintf("%s timed out", name)).WithCause(ctx.Err())
		}
		return out, fmt.Errorf("%s %s: %s: %w", name, strings.Join(args, " "),
			strings.TrimSpace(stderr.String()), err)
	}
	return out, nil
}

// Available reports whether name resolves on PATH.
func Available(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}

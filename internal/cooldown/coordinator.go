// Package cooldown arbitrates restarts across the global, vote and
// performance scopes so that triggers cannot restart the server back to back.
package cooldown

import (
	"errors"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

// Records persists the last restart time per scope.
// state.Store implements it.
type Records interface {
	LastRestart(scope core.Scope) (time.Time, bool, error)
	SetLastRestart(scope core.Scope, t time.Time) error
}

// Coordinator answers "may this scope restart now" and commits restarts.
type Coordinator struct {
	records Records
	clock   core.Clock
	global  time.Duration
}

// NewCoordinator creates a Coordinator. global is the default period used
// when no override is given.
func NewCoordinator(records Records, clock core.Clock, global time.Duration) *Coordinator {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Coordinator{records: records, clock: clock, global: global}
}

// Remaining returns how long scope must still wait. The period is the global
// cooldown unless override is positive. A scope with no record, or with an
// unreadable one, is eligible immediately.
func (c *Coordinator) Remaining(scope core.Scope, override time.Duration) (time.Duration, error) {
	period := c.global
	if override > 0 {
		period = override
	}

	last, ok, err := c.records.LastRestart(scope)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	remaining := period - c.clock.Now().Sub(last)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// MayRestart reports whether scope is out of cooldown. Read failures are
// returned alongside true so a corrupted record never blocks restarts forever.
func (c *Coordinator) MayRestart(scope core.Scope, override time.Duration) (bool, error) {
	remaining, err := c.Remaining(scope, override)
	if err != nil {
		return true, err
	}
	return remaining == 0, nil
}

// Check returns a cooldown DomainError when scope is blocked, nil otherwise.
func (c *Coordinator) Check(scope core.Scope, override time.Duration) error {
	remaining, err := c.Remaining(scope, override)
	if err != nil {
		return fmt.Errorf("reading %s cooldown: %w", scope, err)
	}
	if remaining > 0 {
		return core.ErrCooldown(scope, remaining)
	}
	return nil
}

// Commit records now as the last restart of scope and of the global scope.
func (c *Coordinator) Commit(scope core.Scope, now time.Time) error {
	var errs []error
	if scope != core.ScopeGlobal {
		if err := c.records.SetLastRestart(scope, now); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.records.SetLastRestart(core.ScopeGlobal, now); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

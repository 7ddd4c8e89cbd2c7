package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// Restart vocabulary
// =============================================================================

// Scope identifies an independent cooldown record.
type Scope string

const (
	ScopeGlobal      Scope = "global"
	ScopeVote        Scope = "vote"
	ScopePerformance Scope = "performance"
)

// Scopes lists every cooldown scope.
func Scopes() []Scope {
	return []Scope{ScopeGlobal, ScopeVote, ScopePerformance}
}

// ParseScope converts a string into a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGlobal, ScopeVote, ScopePerformance:
		return Scope(s), nil
	}
	return "", ErrValidation(CodeUnknownScope, fmt.Sprintf("unknown cooldown scope %q", s))
}

// Trigger is the reason a restart sequence runs.
type Trigger string

const (
	TriggerVote        Trigger = "vote"
	TriggerPerformance Trigger = "performance"
)

// Scope returns the cooldown scope committed for this trigger.
func (t Trigger) Scope() Scope {
	switch t {
	case TriggerVote:
		return ScopeVote
	case TriggerPerformance:
		return ScopePerformance
	default:
		return ScopeGlobal
	}
}

// =============================================================================
// Console Port
// =============================================================================

// Console is the textual command/response channel to the game process.
type Console interface {
	// Send types a line into the process console and presses enter.
	// Returns ErrNotAttached when the session cannot be found.
	Send(ctx context.Context, command string) error

	// RecentOutput returns up to maxLines of the most recent log output.
	RecentOutput(ctx context.Context, maxLines int) ([]string, error)

	// Attached reports whether the named session exists.
	Attached(ctx context.Context) bool
}

// =============================================================================
// Restarter Port
// =============================================================================

// Restarter asks the external process supervisor to restart the game unit.
type Restarter interface {
	Restart(ctx context.Context) error
}

// =============================================================================
// Clock Port
// =============================================================================

// Clock abstracts wall time so countdowns and cadences can be simulated.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d. It is deliberately not cancellable.
	Sleep(d time.Duration)
}

// SystemClock is the real Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks the calling goroutine for d.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SleepContext blocks for d or until ctx is done.
func (SystemClock) SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SleepContext waits for d on clock. Clocks that cannot be interrupted
// sleep the full duration and then report ctx's state.
func SleepContext(ctx context.Context, clock Clock, d time.Duration) error {
	if cs, ok := clock.(interface {
		SleepContext(context.Context, time.Duration) error
	}); ok {
		return cs.SleepContext(ctx, d)
	}
	clock.Sleep(d)
	return ctx.Err()
}

// =============================================================================
// Journal Port
// =============================================================================

// RestartOutcome is the final state of a restart sequence.
type RestartOutcome string

const (
	OutcomeRestarted RestartOutcome = "restarted"
	OutcomeFailed    RestartOutcome = "failed"
)

// RestartEvent is one journaled restart sequence.
type RestartEvent struct {
	ID         string
	Trigger    Trigger
	Reading    float64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    RestartOutcome
	Error      string
}

// Journal records restart sequences for later inspection.
type Journal interface {
	Record(ctx context.Context, event RestartEvent) error
	Recent(ctx context.Context, limit int) ([]RestartEvent, error)
}

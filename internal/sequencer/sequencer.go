// Package sequencer runs the player-visible restart countdown and hands the
// restart to the service supervisor.
package sequencer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/announce"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
)

// Countdown checkpoints, in seconds remaining.
var (
	VoteSchedule        = []int{30, 20, 10, 5, 4, 3, 2, 1}
	PerformanceSchedule = []int{180, 60, 30, 20, 10, 5, 4, 3, 2, 1}
)

// Schedule returns the checkpoints for trigger.
func Schedule(trigger core.Trigger) ([]int, error) {
	switch trigger {
	case core.TriggerVote:
		return VoteSchedule, nil
	case core.TriggerPerformance:
		return PerformanceSchedule, nil
	}
	return nil, core.ErrValidation(core.CodeUnknownTrigger, fmt.Sprintf("unknown restart trigger %q", trigger))
}

// Committer records a restart against a cooldown scope.
// cooldown.Coordinator implements it.
type Committer interface {
	Commit(scope core.Scope, now time.Time) error
}

// Sequencer runs countdowns. A countdown, once started, always runs to the
// end: its sleeps are not cancellable and it ignores ctx cancellation.
type Sequencer struct {
	announcer *announce.Announcer
	cooldown  Committer
	restarter core.Restarter
	journal   core.Journal
	clock     core.Clock
	logger    *logging.Logger
}

// New creates a Sequencer. journal may be nil.
func New(announcer *announce.Announcer, cooldown Committer, restarter core.Restarter,
	journal core.Journal, clock core.Clock, logger *logging.Logger,
) *Sequencer {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sequencer{
		announcer: announcer,
		cooldown:  cooldown,
		restarter: restarter,
		journal:   journal,
		clock:     clock,
		logger:    logger.WithComponent("sequencer"),
	}
}

// Run counts down for trigger, commits the cooldown, then requests the
// restart exactly once. reading is the value that caused the restart (tally
// or mean TPS) and is only used in messages and the journal.
func (s *Sequencer) Run(ctx context.Context, trigger core.Trigger, reading float64) error {
	schedule, err := Schedule(trigger)
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	event := core.RestartEvent{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Reading:   reading,
		StartedAt: s.clock.Now(),
	}
	log := s.logger.WithTrigger(string(trigger)).With("restart_id", event.ID)
	log.Info("restart countdown started", "reading", reading, "seconds", schedule[0])

	for i, remaining := range schedule {
		s.announce(ctx, trigger, reading, remaining, i == 0)

		// The final checkpoint waits out its own second, so the restart
		// lands at zero: 30s for a vote, 180s for performance.
		gap := remaining
		if i+1 < len(schedule) {
			gap = remaining - schedule[i+1]
		}
		s.clock.Sleep(time.Duration(gap) * time.Second)
	}

	if err := s.cooldown.Commit(trigger.Scope(), s.clock.Now()); err != nil {
		log.Error("committing cooldown failed", "error", err)
	}

	err = s.restarter.Restart(ctx)
	event.FinishedAt = s.clock.Now()
	if err != nil {
		event.Outcome = core.OutcomeFailed
		event.Error = err.Error()
		log.Error("restart request failed", "error", err)
	} else {
		event.Outcome = core.OutcomeRestarted
		log.Info("restart requested")
	}
	s.record(ctx, event)

	return err
}

func (s *Sequencer) announce(ctx context.Context, trigger core.Trigger, reading float64, remaining int, first bool) {
	unit := "seconds"
	if remaining == 1 {
		unit = "second"
	}
	if !first {
		_ = s.announcer.Say(ctx, "Restarting in %d %s.", remaining, unit)
		return
	}
	switch trigger {
	case core.TriggerPerformance:
		_ = s.announcer.Say(ctx, "Server performance is degraded (%.1f TPS). Restarting in %d %s.", reading, remaining, unit)
	default:
		_ = s.announcer.Say(ctx, "Players voted to restart. Restarting in %d %s.", remaining, unit)
	}
}

func (s *Sequencer) record(ctx context.Context, event core.RestartEvent) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, event); err != nil {
		s.logger.Warn("journaling restart failed", "restart_id", event.ID, "error", err)
	}
}

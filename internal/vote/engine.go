// Package vote runs the player restart vote: it collects "!restart" votes
// from the log, tracks unique voters until the ballot expires, and hands off
// to the restart sequencer once the quorum is reached.
package vote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/announce"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/cooldown"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/parse"
)

// LogSource yields new log lines since a cursor. logtail.Reader implements it.
type LogSource interface {
	NewLinesSince(cursor int) ([]string, int, error)
	LineCount() (int, error)
}

// Store persists the ballot and the log cursor. state.Store implements it.
type Store interface {
	Ballot() (core.Ballot, error)
	SaveBallot(b core.Ballot) error
	Acknowledged() ([]string, error)
	SaveAcknowledged(voters []string) error
	ClearBallot() error
	Cursor() (int, bool, error)
	SetCursor(cursor int) error
}

// Sequencer runs the restart countdown and handoff.
type Sequencer interface {
	Run(ctx context.Context, trigger core.Trigger, reading float64) error
}

// Outcome describes what a scan decided.
type Outcome string

const (
	OutcomeIdle          Outcome = "idle"
	OutcomeAccumulating  Outcome = "accumulating"
	OutcomeNoPlayerCount Outcome = "no_player_count"
	OutcomeVoteCooldown  Outcome = "vote_cooldown"
	OutcomeGlobalBlocked Outcome = "global_cooldown"
	OutcomeRestarted     Outcome = "restarted"
)

// Deps bundles the collaborators of an Engine.
type Deps struct {
	Log       LogSource
	Store     Store
	Console   core.Console
	Announcer *announce.Announcer
	Cooldown  *cooldown.Coordinator
	Sequencer Sequencer
	Clock     core.Clock
	Logger    *logging.Logger
}

// Engine evaluates the restart vote once per Scan.
type Engine struct {
	deps    Deps
	vote    config.VoteConfig
	players config.PlayersConfig
	logger  *logging.Logger
}

// NewEngine creates an Engine.
func NewEngine(vote config.VoteConfig, players config.PlayersConfig, deps Deps) *Engine {
	if deps.Clock == nil {
		deps.Clock = core.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		deps:    deps,
		vote:    vote,
		players: players,
		logger:  logger.WithComponent("vote"),
	}
}

// Quorum returns the votes needed with online players at percent, never
// fewer than minVotes. Halves round up; no players online means minVotes.
func Quorum(online, percent, minVotes int) int {
	if online <= 0 {
		return minVotes
	}
	return max(minVotes, (online*percent+50)/100)
}

// Prime places the log cursor at the end of the current log when no cursor
// has been persisted yet, so votes cast before the monitor started are not
// replayed.
func (e *Engine) Prime() error {
	_, ok, err := e.deps.Store.Cursor()
	if err == nil && ok {
		return nil
	}
	if err != nil {
		e.logger.Warn("log cursor unreadable, re-priming", "error", err)
	}
	n, err := e.deps.Log.LineCount()
	if err != nil {
		return err
	}
	e.logger.Debug("log cursor primed", "cursor", n)
	return e.deps.Store.SetCursor(n)
}

// Scan runs one vote evaluation.
func (e *Engine) Scan(ctx context.Context) (Outcome, error) {
	voters, err := e.newVoters()
	if err != nil {
		return OutcomeIdle, err
	}

	now := e.deps.Clock.Now()
	ballot, acked := e.loadBallot()

	if ballot.Expired(now, e.vote.Expiry) {
		e.logger.Info("vote ballot expired", "voters", ballot.Tally(), "age", now.Sub(ballot.CreatedAt).Round(time.Second))
		if err := e.deps.Store.ClearBallot(); err != nil {
			return OutcomeIdle, err
		}
		ballot, acked = core.Ballot{}, nil
	}

	if added := ballot.Merge(voters, now); len(added) > 0 {
		e.logger.Info("restart votes received", "voters", added, "tally", ballot.Tally())
		if err := e.deps.Store.SaveBallot(ballot); err != nil {
			return OutcomeAccumulating, err
		}
	}

	if ballot.Empty() {
		return OutcomeIdle, nil
	}

	online, ok := e.onlinePlayers(ctx)
	if !ok {
		e.logger.Warn("player count not found, quorum not evaluated", "tally", ballot.Tally())
		return OutcomeNoPlayerCount, nil
	}
	quorum := Quorum(online, e.vote.QuorumPercent, e.vote.MinVotes)

	if fresh := ballot.Unacknowledged(acked); len(fresh) > 0 {
		_ = e.deps.Announcer.Say(ctx, "Restart vote %d/%d (%s voted). Type !restart to vote.",
			ballot.Tally(), quorum, strings.Join(fresh, ", "))
		if err := e.deps.Store.SaveAcknowledged(append(acked, fresh...)); err != nil {
			e.logger.Warn("saving acknowledged voters failed", "error", err)
		}
	}

	if ballot.Tally() < quorum {
		return OutcomeAccumulating, nil
	}
	return e.decide(ctx, ballot, online, quorum)
}

func (e *Engine) decide(ctx context.Context, ballot core.Ballot, online, quorum int) (Outcome, error) {
	log := e.logger.With("tally", ballot.Tally(), "quorum", quorum, "online", online)

	if blocked, remaining := e.blocked(core.ScopeVote, e.vote.Cooldown); blocked {
		log.Info("vote passed during vote cooldown, ballot discarded", "remaining", remaining.Round(time.Second))
		return OutcomeVoteCooldown, e.deps.Store.ClearBallot()
	}
	if blocked, remaining := e.blocked(core.ScopeGlobal, 0); blocked {
		log.Info("vote passed during global cooldown, ballot discarded", "remaining", remaining.Round(time.Second))
		_ = e.deps.Announcer.Say(ctx, "Vote passed, but the server restarted recently. Try again in %s.",
			remaining.Round(time.Second))
		return OutcomeGlobalBlocked, e.deps.Store.ClearBallot()
	}

	if err := e.deps.Store.ClearBallot(); err != nil {
		log.Warn("clearing ballot failed", "error", err)
	}
	log.Info("vote quorum reached, starting restart sequence")

	if err := e.deps.Sequencer.Run(ctx, core.TriggerVote, float64(ballot.Tally())); err != nil {
		return OutcomeRestarted, fmt.Errorf("vote restart: %w", err)
	}
	if err := e.deps.Store.SetCursor(0); err != nil {
		log.Warn("resetting log cursor failed", "error", err)
	}
	return OutcomeRestarted, nil
}

// blocked reports whether scope is cooling down. Unreadable records are
// logged and treated as eligible.
func (e *Engine) blocked(scope core.Scope, override time.Duration) (bool, time.Duration) {
	err := e.deps.Cooldown.Check(scope, override)
	if err == nil {
		return false, 0
	}
	var de *core.DomainError
	if errors.As(err, &de) && de.Category == core.ErrCatCooldown {
		remaining, _ := de.Details["remaining"].(time.Duration)
		return true, remaining
	}
	e.logger.Warn("cooldown record unreadable, treating as eligible", "scope", scope, "error", err)
	return false, 0
}

func (e *Engine) newVoters() ([]string, error) {
	cursor, ok, err := e.deps.Store.Cursor()
	if err != nil || !ok {
		if err := e.Prime(); err != nil {
			return nil, err
		}
		cursor, _, err = e.deps.Store.Cursor()
		if err != nil {
			return nil, err
		}
	}

	lines, next, err := e.deps.Log.NewLinesSince(cursor)
	if err != nil {
		return nil, err
	}
	if next != cursor {
		if next < cursor {
			e.logger.Info("log rotation detected", "old_cursor", cursor, "new_cursor", next)
		}
		if err := e.deps.Store.SetCursor(next); err != nil {
			return nil, err
		}
	}
	return parse.Voters(lines), nil
}

func (e *Engine) loadBallot() (core.Ballot, []string) {
	ballot, err := e.deps.Store.Ballot()
	if err != nil {
		e.logger.Warn("ballot unreadable, starting a new one", "error", err)
		_ = e.deps.Store.ClearBallot()
		return core.Ballot{}, nil
	}
	acked, err := e.deps.Store.Acknowledged()
	if err != nil {
		e.logger.Warn("acknowledged voters unreadable", "error", err)
		acked = nil
	}
	return ballot, acked
}

func (e *Engine) onlinePlayers(ctx context.Context) (int, bool) {
	if err := e.deps.Console.Send(ctx, e.players.QueryCommand); err != nil {
		e.logger.Warn("player query failed", "error", err)
		return 0, false
	}
	e.deps.Clock.Sleep(e.players.SettleDelay)

	lines, err := e.deps.Console.RecentOutput(ctx, e.players.WindowLines)
	if err != nil {
		e.logger.Warn("reading player count failed", "error", err)
		return 0, false
	}
	return parse.PlayerCount(lines)
}

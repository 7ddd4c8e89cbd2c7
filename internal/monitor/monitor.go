// Package monitor drives the vote scan and the performance cycle on their
// own cadences while the game server session is live.
package monitor

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/perf"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/vote"
)

// VoteScanner evaluates the restart vote. vote.Engine implements it.
type VoteScanner interface {
	Prime() error
	Scan(ctx context.Context) (vote.Outcome, error)
}

// PerfCycler runs one performance sampling cycle. perf.Sampler implements it.
type PerfCycler interface {
	RunCycle(ctx context.Context) (perf.Verdict, error)
}

// Locker guards the state directory against a second monitor.
// state.Store implements it.
type Locker interface {
	Lock() error
	Unlock() error
}

// Background is a long-running helper that stops when ctx is done.
type Background interface {
	Run(ctx context.Context)
}

// Deps bundles the collaborators of a Monitor.
type Deps struct {
	Console    core.Console
	Vote       VoteScanner
	Perf       PerfCycler
	Lock       Locker
	Crash      *diagnostics.CrashDumpWriter
	Background []Background
	Clock      core.Clock
	Logger     *logging.Logger
}

// Monitor is the top-level loop.
type Monitor struct {
	cfg    *config.Config
	deps   Deps
	logger *logging.Logger

	live     bool
	lastVote time.Time
	lastPerf time.Time
}

// New creates a Monitor.
func New(cfg *config.Config, deps Deps) *Monitor {
	if deps.Clock == nil {
		deps.Clock = core.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Crash == nil {
		deps.Crash = diagnostics.NewCrashDumpWriter(cfg.Diagnostics.CrashDumpDir,
			cfg.Diagnostics.MaxDumps, cfg.Diagnostics.IncludeStack, logger, nil, nil)
	}
	return &Monitor{
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithComponent("monitor"),
	}
}

// Run holds the state lock and ticks until ctx is cancelled. It returns
// early only when the lock is held by another monitor.
func (m *Monitor) Run(ctx context.Context) error {
	if m.deps.Lock != nil {
		if err := m.deps.Lock.Lock(); err != nil {
			return err
		}
		defer func() {
			if err := m.deps.Lock.Unlock(); err != nil {
				m.logger.Warn("releasing state lock failed", "error", err)
			}
		}()
	}

	if err := m.deps.Vote.Prime(); err != nil {
		m.logger.Warn("priming log cursor failed, will retry on first scan", "error", err)
	}

	bgCtx, stop := context.WithCancel(ctx)
	g, bgCtx := errgroup.WithContext(bgCtx)
	for _, b := range m.deps.Background {
		g.Go(func() error {
			b.Run(bgCtx)
			return nil
		})
	}
	defer func() {
		stop()
		_ = g.Wait()
	}()

	m.lastPerf = m.deps.Clock.Now()
	m.logger.Info("monitor started",
		"session", m.cfg.Server.Session,
		"scan_interval", m.cfg.Vote.ScanInterval,
		"cycle_interval", m.cfg.Performance.CycleInterval,
	)

	for {
		wait := m.Tick(ctx)
		if err := core.SleepContext(ctx, m.deps.Clock, wait); err != nil {
			m.logger.Info("monitor stopping", "reason", err)
			return nil
		}
	}
}

// Tick runs whatever work is due and returns how long to wait before the
// next tick.
func (m *Monitor) Tick(ctx context.Context) time.Duration {
	if !m.deps.Console.Attached(ctx) {
		if m.live {
			m.logger.Warn("server session not found, pausing", "session", m.cfg.Server.Session)
		}
		m.live = false
		return m.cfg.Monitor.OfflineWait
	}
	if !m.live {
		m.logger.Info("server session attached", "session", m.cfg.Server.Session)
		m.live = true
		// A fresh server start lags; give it a full cycle before sampling.
		m.lastPerf = m.deps.Clock.Now()
	}

	if m.due(m.lastVote, m.cfg.Vote.ScanInterval) {
		m.lastVote = m.deps.Clock.Now()
		m.runVote(ctx)
	}
	if m.due(m.lastPerf, m.cfg.Performance.CycleInterval) {
		m.lastPerf = m.deps.Clock.Now()
		m.runPerf(ctx)
	}
	return m.cfg.Monitor.Tick
}

func (m *Monitor) due(last time.Time, interval time.Duration) bool {
	return last.IsZero() || m.deps.Clock.Now().Sub(last) >= interval
}

func (m *Monitor) runVote(ctx context.Context) {
	var outcome vote.Outcome
	err := m.deps.Crash.Guard("vote_scan", func() error {
		var err error
		outcome, err = m.deps.Vote.Scan(ctx)
		return err
	})
	if outcome == vote.OutcomeRestarted {
		m.restarted()
	}
	m.logError("vote scan failed", err)
}

func (m *Monitor) runPerf(ctx context.Context) {
	var verdict perf.Verdict
	err := m.deps.Crash.Guard("performance_cycle", func() error {
		var err error
		verdict, err = m.deps.Perf.RunCycle(ctx)
		return err
	})
	if verdict.Outcome == perf.OutcomeRestarted {
		m.restarted()
	}
	m.logError("performance cycle failed", err)
}

// restarted resets the performance cadence after a handoff.
func (m *Monitor) restarted() {
	m.lastPerf = m.deps.Clock.Now()
}

func (m *Monitor) logError(msg string, err error) {
	switch {
	case err == nil:
	case core.IsCategory(err, core.ErrCatTransientIO), errors.Is(err, context.Canceled):
		m.logger.Warn(msg, "error", err)
	default:
		m.logger.Error(msg, "error", err, "category", core.GetCategory(err))
	}
}

// Package perf samples server TPS in short bursts and restarts the server
// when most samples of a cycle fall below the configured threshold.
package perf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/cooldown"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/parse"
)

// HealthyTPS is the tick-rate ceiling, used when a sample cannot be parsed.
const HealthyTPS = 20.0

// Sequencer runs the restart countdown and handoff.
type Sequencer interface {
	Run(ctx context.Context, trigger core.Trigger, reading float64) error
}

// HostSampler reports host resource usage. diagnostics.HostCollector
// implements it.
type HostSampler interface {
	Collect() diagnostics.HostSnapshot
}

// Outcome describes what a cycle decided.
type Outcome string

const (
	OutcomeHealthy        Outcome = "healthy"
	OutcomePerfCooldown   Outcome = "performance_cooldown"
	OutcomeGlobalCooldown Outcome = "global_cooldown"
	OutcomeRestarted      Outcome = "restarted"
)

// Verdict summarizes one sampling cycle.
type Verdict struct {
	Readings []float64
	Bad      int
	Mean     float64
	Degraded bool
	Outcome  Outcome
}

// Deps bundles the collaborators of a Sampler.
type Deps struct {
	Console   core.Console
	Cooldown  *cooldown.Coordinator
	Sequencer Sequencer
	Host      HostSampler
	Clock     core.Clock
	Logger    *logging.Logger
}

// Sampler runs performance cycles.
type Sampler struct {
	cfg    config.PerformanceConfig
	deps   Deps
	logger *logging.Logger
}

// NewSampler creates a Sampler. Deps.Host may be nil.
func NewSampler(cfg config.PerformanceConfig, deps Deps) *Sampler {
	if deps.Clock == nil {
		deps.Clock = core.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sampler{
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithComponent("perf"),
	}
}

// RunCycle takes samples_per_cycle samples and restarts the server when at
// least required_bad_samples of them are below the threshold and no
// cooldown blocks it. A console failure aborts the cycle.
func (s *Sampler) RunCycle(ctx context.Context) (Verdict, error) {
	v := Verdict{Outcome: OutcomeHealthy}

	for i := 0; i < s.cfg.SamplesPerCycle; i++ {
		if i > 0 {
			s.deps.Clock.Sleep(s.cfg.SampleDelay)
		}
		reading, err := s.Sample(ctx)
		if err != nil {
			return v, fmt.Errorf("performance sample %d: %w", i+1, err)
		}
		v.Readings = append(v.Readings, reading)
		if reading < s.cfg.Threshold {
			v.Bad++
		}
	}

	v.Mean = mean(v.Readings)
	v.Degraded = v.Bad >= s.cfg.RequiredBadSamples

	log := s.logger.With("bad", v.Bad, "samples", len(v.Readings), "mean_tps", v.Mean, "threshold", s.cfg.Threshold)
	if !v.Degraded {
		log.Debug("performance cycle healthy")
		return v, nil
	}

	if s.deps.Host != nil {
		log = log.With(s.deps.Host.Collect().LogAttrs()...)
	}
	log.Warn("performance degraded", "readings", v.Readings)

	if blocked, remaining := s.blocked(core.ScopePerformance, s.cfg.Cooldown); blocked {
		log.Info("performance restart blocked by performance cooldown", "remaining", remaining.Round(time.Second))
		v.Outcome = OutcomePerfCooldown
		return v, nil
	}
	if blocked, remaining := s.blocked(core.ScopeGlobal, 0); blocked {
		log.Info("performance restart blocked by global cooldown", "remaining", remaining.Round(time.Second))
		v.Outcome = OutcomeGlobalCooldown
		return v, nil
	}

	log.Info("starting performance restart sequence")
	v.Outcome = OutcomeRestarted
	if err := s.deps.Sequencer.Run(ctx, core.TriggerPerformance, v.Mean); err != nil {
		return v, fmt.Errorf("performance restart: %w", err)
	}
	return v, nil
}

// Sample sends the TPS query and returns the lowest Mean TPS in the
// response window, or HealthyTPS when none parses.
func (s *Sampler) Sample(ctx context.Context) (float64, error) {
	if err := s.deps.Console.Send(ctx, s.cfg.QueryCommand); err != nil {
		return 0, err
	}
	s.deps.Clock.Sleep(s.cfg.SettleDelay)

	lines, err := s.deps.Console.RecentOutput(ctx, s.cfg.WindowLines)
	if err != nil {
		return 0, err
	}
	tps, ok := parse.MinMeanTPS(lines)
	if !ok {
		s.logger.Debug("no TPS reading in output, assuming healthy")
		return HealthyTPS, nil
	}
	return tps, nil
}

// blocked reports whether scope is cooling down. Unreadable records are
// logged and treated as eligible.
func (s *Sampler) blocked(scope core.Scope, override time.Duration) (bool, time.Duration) {
	err := s.deps.Cooldown.Check(scope, override)
	if err == nil {
		return false, 0
	}
	var de *core.DomainError
	if errors.As(err, &de) && de.Category == core.ErrCatCooldown {
		remaining, _ := de.Details["remaining"].(time.Duration)
		return true, remaining
	}
	s.logger.Warn("cooldown record unreadable, treating as eligible", "scope", scope, "error", err)
	return false, 0
}

func mean(readings []float64) float64 {
	if len(readings) == 0 {
		return HealthyTPS
	}
	var sum float64
	for _, r := range readings {
		sum += r
	}
	return sum / float64(len(readings))
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/console"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/history"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/shell"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/supervisor"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/announce"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/cooldown"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logtail"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/monitor"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/perf"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/sequencer"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/vote"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the restart monitor",
	Long: `Run the monitor loop in the foreground until SIGINT or SIGTERM.

Only one monitor may use a state directory at a time; a second instance
exits immediately.`,
	RunE: runMonitor,
}

var runNoWatch bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false,
		"detect log rotation by polling only, without filesystem notifications")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(cfg, logger, !runNoWatch)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.monitor.Run(ctx); err != nil {
		if errors.Is(err, core.ErrLockHeld) {
			return fmt.Errorf("another monitor is already using %s: %w", cfg.State.Dir, err)
		}
		return err
	}
	return nil
}

// app holds the wired monitor and everything that must be released on exit.
type app struct {
	monitor *monitor.Monitor
	closers []func() error
	logger  *logging.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

// commandRunners returns the runner for per-tick multiplexer calls and the
// runner for the slower supervisor restart.
func commandRunners(cfg *config.Config) (con, sup shell.ExecRunner) {
	return shell.ExecRunner{Timeout: cfg.Server.CommandTimeout},
		shell.ExecRunner{Timeout: cfg.Supervisor.Timeout}
}

// buildApp wires the monitor from configuration. watch enables fsnotify
// rotation detection.
func buildApp(cfg *config.Config, logger *logging.Logger, watch bool) (*app, error) {
	a := &app{logger: logger}
	clock := core.SystemClock{}
	conRunner, supRunner := commandRunners(cfg)

	store, err := state.NewStore(cfg.State.Dir)
	if err != nil {
		return nil, err
	}

	con, err := console.New(cfg.Server, conRunner)
	if err != nil {
		return nil, err
	}
	restarter := supervisor.New(cfg.Supervisor, supRunner)

	var journal core.Journal
	if cfg.State.HistoryPath != "" {
		j, err := history.NewSQLiteJournal(cfg.State.HistoryPath)
		if err != nil {
			logger.Warn("restart journal unavailable", "path", cfg.State.HistoryPath, "error", err)
		} else {
			journal = j
			a.closers = append(a.closers, j.Close)
		}
	}

	reader := logtail.NewReader(cfg.Server.LogPath)
	var background []monitor.Background
	if watch {
		w, err := logtail.NewRotationWatcher(cfg.Server.LogPath, logger)
		if err != nil {
			logger.Warn("log rotation watcher unavailable, falling back to polling", "error", err)
		} else {
			reader.SetRotationSignal(w)
			background = append(background, w)
			a.closers = append(a.closers, w.Close)
		}
	}

	resources := diagnostics.NewResourceMonitor(cfg.Diagnostics.ResourceInterval, diagnostics.Thresholds{
		FDPercent:  cfg.Diagnostics.FDThresholdPercent,
		Goroutines: cfg.Diagnostics.GoroutineThreshold,
		MemoryMB:   cfg.Diagnostics.MemoryThresholdMB,
	}, 0, logger)
	background = append(background, resources)

	host := diagnostics.NewHostCollector(cfg.State.Dir)
	crash := diagnostics.NewCrashDumpWriter(cfg.Diagnostics.CrashDumpDir, cfg.Diagnostics.MaxDumps,
		cfg.Diagnostics.IncludeStack, logger, resources, host)

	coord := cooldown.NewCoordinator(store, clock, cfg.Cooldown.Global)
	announcer := announce.New(con, cfg.Announce.Command, logger)
	seq := sequencer.New(announcer, coord, restarter, journal, clock, logger)

	engine := vote.NewEngine(cfg.Vote, cfg.Players, vote.Deps{
		Log:       reader,
		Store:     store,
		Console:   con,
		Announcer: announcer,
		Cooldown:  coord,
		Sequencer: seq,
		Clock:     clock,
		Logger:    logger,
	})
	sampler := perf.NewSampler(cfg.Performance, perf.Deps{
		Console:   con,
		Cooldown:  coord,
		Sequencer: seq,
		Host:      host,
		Clock:     clock,
		Logger:    logger,
	})

	a.monitor = monitor.New(cfg, monitor.Deps{
		Console:    con,
		Vote:       engine,
		Perf:       sampler,
		Lock:       store,
		Crash:      crash,
		Background: background,
		Clock:      clock,
		Logger:     logger,
	})
	return a, nil
}

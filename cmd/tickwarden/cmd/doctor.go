package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/console"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/shell"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/supervisor"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logtail"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment the monitor depends on",
	Long: `Verify that the multiplexer and supervisor binaries are installed, the
server session exists, the log file is readable and the state directory is
usable. Host resource usage is reported for context.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
)

type checkResult struct {
	Name   string
	Status checkStatus
	Detail string
}

// doctor runs environment checks. Fields are swappable for tests.
type doctor struct {
	cfg      *config.Config
	runner   shell.Runner
	lookPath func(name string) (string, bool)
	collect  func() diagnostics.HostSnapshot
	timeout  time.Duration
}

func newDoctor(cfg *config.Config) *doctor {
	return &doctor{
		cfg:      cfg,
		runner:   shell.ExecRunner{},
		lookPath: shell.Available,
		collect:  diagnostics.NewHostCollector(cfg.State.Dir).Collect,
		timeout:  10 * time.Second,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			out := cmd.OutOrStdout()
			for _, v := range verrs {
				fmt.Fprintf(out, "  ✗ %s\n", v.Error())
			}
			return fmt.Errorf("configuration invalid")
		}
		return err
	}

	results := newDoctor(cfg).run(cmd.Context())
	out := cmd.OutOrStdout()
	renderChecks(out, results, newStyles(out))

	for _, r := range results {
		if r.Status == checkFail {
			return fmt.Errorf("doctor found problems")
		}
	}
	return nil
}

// run executes every check concurrently and returns results in a fixed order.
func (d *doctor) run(ctx context.Context) []checkResult {
	checks := []func(context.Context) checkResult{
		d.checkMultiplexer,
		d.checkSession,
		d.checkLog,
		d.checkSupervisor,
		d.checkState,
		d.checkHost,
	}
	results := make([]checkResult, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, d.timeout)
			defer cancel()
			results[i] = check(cctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *doctor) checkMultiplexer(context.Context) checkResult {
	name := d.cfg.Server.Multiplexer
	path, ok := d.lookPath(name)
	if !ok {
		return checkResult{Name: name, Status: checkFail, Detail: "not found in PATH"}
	}
	return checkResult{Name: name, Status: checkOK, Detail: path}
}

func (d *doctor) checkSession(ctx context.Context) checkResult {
	name := "session " + d.cfg.Server.Session
	con, err := console.New(d.cfg.Server, d.runner)
	if err != nil {
		return checkResult{Name: name, Status: checkFail, Detail: err.Error()}
	}
	if !con.Attached(ctx) {
		return checkResult{Name: name, Status: checkWarn, Detail: "not running; the monitor waits until it appears"}
	}
	return checkResult{Name: name, Status: checkOK, Detail: "attached"}
}

func (d *doctor) checkLog(context.Context) checkResult {
	name := "log file"
	n, err := logtail.NewReader(d.cfg.Server.LogPath).LineCount()
	if err != nil {
		return checkResult{Name: name, Status: checkFail, Detail: err.Error()}
	}
	return checkResult{Name: name, Status: checkOK, Detail: fmt.Sprintf("%s (%d lines)", d.cfg.Server.LogPath, n)}
}

func (d *doctor) checkSupervisor(context.Context) checkResult {
	line := supervisor.New(d.cfg.Supervisor, d.runner).CommandLine()
	name := "supervisor"
	if len(line) == 0 {
		return checkResult{Name: name, Status: checkFail, Detail: "no restart command configured"}
	}
	if _, ok := d.lookPath(line[0]); !ok {
		return checkResult{Name: name, Status: checkFail, Detail: line[0] + " not found in PATH"}
	}
	return checkResult{Name: name, Status: checkOK, Detail: strings.Join(line, " ")}
}

func (d *doctor) checkState(context.Context) checkResult {
	name := "state dir"
	store, err := state.NewStore(d.cfg.State.Dir)
	if err != nil {
		return checkResult{Name: name, Status: checkFail, Detail: err.Error()}
	}
	if err := store.Lock(); err != nil {
		if errors.Is(err, core.ErrLockHeld) {
			return checkResult{Name: name, Status: checkOK, Detail: store.Dir() + " (monitor running)"}
		}
		return checkResult{Name: name, Status: checkFail, Detail: err.Error()}
	}
	_ = store.Unlock()
	return checkResult{Name: name, Status: checkOK, Detail: store.Dir()}
}

func (d *doctor) checkHost(context.Context) checkResult {
	h := d.collect()
	status := checkOK
	if h.MemPercent > 90 || h.DiskPercent > 90 {
		status = checkWarn
	}
	return checkResult{
		Name:   "host",
		Status: status,
		Detail: fmt.Sprintf("cpu %.0f%% (%d threads), mem %.0f%%, disk %.0f%%, load %.2f",
			h.CPUPercent, h.CPUThreads, h.MemPercent, h.DiskPercent, h.LoadAvg1),
	}
}

func renderChecks(w io.Writer, results []checkResult, s styles) {
	fmt.Fprintln(w, s.title.Render("Checking environment"))
	for _, r := range results {
		var icon string
		switch r.Status {
		case checkOK:
			icon = s.ok.Render("✓")
		case checkWarn:
			icon = s.warn.Render("○")
		default:
			icon = s.bad.Render("✗")
		}
		fmt.Fprintf(w, "  %s %s", icon, s.row(r.Name, s.muted.Render(r.Detail)))
	}
}

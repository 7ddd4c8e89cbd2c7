package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/history"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/cooldown"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/diagnostics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cooldowns, the current vote and recent restarts",
	Long:  "Display persisted monitor state: cooldowns per scope, the open ballot, the log cursor and the restart journal.",
	RunE:  runStatus,
}

var (
	statusJSON    bool
	statusHistory int
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().IntVar(&statusHistory, "history", 5, "Number of recent restarts to show")
}

type cooldownStatus struct {
	Scope       core.Scope    `json:"scope"`
	LastRestart *time.Time    `json:"last_restart,omitempty"`
	Remaining   time.Duration `json:"remaining"`
	Error       string        `json:"error,omitempty"`
}

type ballotStatus struct {
	Voters    []string  `json:"voters"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

type crashStatus struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Panic     string    `json:"panic"`
}

type statusReport struct {
	Cooldowns []cooldownStatus    `json:"cooldowns"`
	Ballot    *ballotStatus       `json:"ballot,omitempty"`
	Cursor    *int                `json:"cursor,omitempty"`
	Restarts  []core.RestartEvent `json:"restarts,omitempty"`
	LastCrash *crashStatus        `json:"last_crash,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	report, err := collectStatus(cmd.Context(), cfg, time.Now(), statusHistory)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderStatus(out, report, newStyles(out))
	return nil
}

// collectStatus reads persisted state without modifying it. Unreadable
// values are reported as warnings.
func collectStatus(ctx context.Context, cfg *config.Config, now time.Time, historyLimit int) (statusReport, error) {
	var report statusReport

	store, err := state.NewStore(cfg.State.Dir)
	if err != nil {
		return report, err
	}

	overrides := map[core.Scope]time.Duration{
		core.ScopeVote:        cfg.Vote.Cooldown,
		core.ScopePerformance: cfg.Performance.Cooldown,
	}
	coord := cooldown.NewCoordinator(store, fixedClock(now), cfg.Cooldown.Global)
	for _, scope := range core.Scopes() {
		cs := cooldownStatus{Scope: scope}
		last, ok, err := store.LastRestart(scope)
		switch {
		case err != nil:
			cs.Error = err.Error()
		case ok:
			cs.LastRestart = &last
			cs.Remaining, _ = coord.Remaining(scope, overrides[scope])
		}
		report.Cooldowns = append(report.Cooldowns, cs)
	}

	if ballot, err := store.Ballot(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("ballot: %v", err))
	} else if !ballot.Empty() {
		report.Ballot = &ballotStatus{
			Voters:    ballot.Voters,
			CreatedAt: ballot.CreatedAt,
			ExpiresAt: ballot.CreatedAt.Add(cfg.Vote.Expiry),
			Expired:   ballot.Expired(now, cfg.Vote.Expiry),
		}
	}

	if cursor, ok, err := store.Cursor(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("log cursor: %v", err))
	} else if ok {
		report.Cursor = &cursor
	}

	if historyLimit > 0 && cfg.State.HistoryPath != "" {
		if _, err := os.Stat(cfg.State.HistoryPath); err == nil {
			restarts, err := recentRestarts(ctx, cfg.State.HistoryPath, historyLimit)
			if err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("restart journal: %v", err))
			}
			report.Restarts = restarts
		}
	}

	dump, err := diagnostics.LoadLatestCrashDump(cfg.Diagnostics.CrashDumpDir)
	switch {
	case err == nil:
		report.LastCrash = &crashStatus{Timestamp: dump.Timestamp, Operation: dump.Operation, Panic: dump.PanicValue}
	case !errors.Is(err, diagnostics.ErrNoCrashDumps):
		report.Warnings = append(report.Warnings, fmt.Sprintf("crash dumps: %v", err))
	}

	return report, nil
}

func recentRestarts(ctx context.Context, path string, limit int) ([]core.RestartEvent, error) {
	journal, err := history.NewSQLiteJournal(path)
	if err != nil {
		return nil, err
	}
	defer journal.Close()
	return journal.Recent(ctx, limit)
}

func renderStatus(w io.Writer, r statusReport, s styles) {
	var b strings.Builder

	b.WriteString(s.title.Render("Cooldowns") + "\n")
	for _, c := range r.Cooldowns {
		var value string
		switch {
		case c.Error != "":
			value = s.bad.Render("unreadable: " + c.Error)
		case c.LastRestart == nil:
			value = s.ok.Render("ready") + s.muted.Render(" (never restarted)")
		case c.Remaining > 0:
			value = s.warn.Render(fmt.Sprintf("cooling down, %s left", c.Remaining.Round(time.Second))) +
				s.muted.Render(" (last "+c.LastRestart.Local().Format(time.DateTime)+")")
		default:
			value = s.ok.Render("ready") + s.muted.Render(" (last "+c.LastRestart.Local().Format(time.DateTime)+")")
		}
		b.WriteString(s.row(string(c.Scope), value))
	}

	b.WriteString(s.title.Render("Vote") + "\n")
	if r.Ballot == nil {
		b.WriteString(s.row("ballot", s.muted.Render("none")))
	} else {
		ballotState := s.ok.Render(fmt.Sprintf("open until %s", r.Ballot.ExpiresAt.Local().Format(time.TimeOnly)))
		if r.Ballot.Expired {
			ballotState = s.muted.Render("expired")
		}
		b.WriteString(s.row("ballot", ballotState))
		b.WriteString(s.row("voters", fmt.Sprintf("%d (%s)", len(r.Ballot.Voters), strings.Join(r.Ballot.Voters, ", "))))
	}
	if r.Cursor != nil {
		b.WriteString(s.row("log cursor", fmt.Sprintf("line %d", *r.Cursor)))
	} else {
		b.WriteString(s.row("log cursor", s.muted.Render("not primed")))
	}

	if len(r.Restarts) > 0 {
		b.WriteString(s.title.Render("Recent restarts") + "\n")
		for _, e := range r.Restarts {
			outcome := s.ok.Render(string(e.Outcome))
			if e.Outcome != core.OutcomeRestarted {
				outcome = s.bad.Render(string(e.Outcome))
			}
			b.WriteString(s.row(e.StartedAt.Local().Format(time.DateTime),
				fmt.Sprintf("%-11s %s %s", e.Trigger, outcome, s.muted.Render(readingLabel(e)))))
		}
	}

	if r.LastCrash != nil {
		b.WriteString(s.title.Render("Last crash") + "\n")
		b.WriteString(s.row(r.LastCrash.Timestamp.Local().Format(time.DateTime),
			s.bad.Render(r.LastCrash.Operation+": "+r.LastCrash.Panic)))
	}

	for _, warning := range r.Warnings {
		b.WriteString(s.warn.Render("warning: "+warning) + "\n")
	}

	fmt.Fprint(w, b.String())
}

func readingLabel(e core.RestartEvent) string {
	if e.Trigger == core.TriggerPerformance {
		return fmt.Sprintf("%.1f TPS", e.Reading)
	}
	return fmt.Sprintf("%.0f votes", e.Reading)
}

// fixedClock pins Now for read-only cooldown arithmetic.
type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func (fixedClock) Sleep(time.Duration) {}

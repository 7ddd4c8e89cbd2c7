package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

const (
	resetBallot = "ballot"
	resetCursor = "cursor"
	resetAll    = "all"
)

var resetCmd = &cobra.Command{
	Use:   "reset [global|vote|performance|ballot|cursor|all]",
	Short: "Clear persisted monitor state",
	Long: `Clear a cooldown record, the open ballot, the log cursor, or everything.

A cleared cursor is re-primed to the end of the log on the next scan, so
votes already in the log are not replayed. The command refuses to run while
a monitor holds the state directory unless --force is given.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"global", "vote", "performance", resetBallot, resetCursor, resetAll},
	RunE:      runReset,
}

var resetForce bool

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Reset even while a monitor is running")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := state.NewStore(cfg.State.Dir)
	if err != nil {
		return err
	}

	if err := store.Lock(); err != nil {
		if !errors.Is(err, core.ErrLockHeld) || !resetForce {
			return fmt.Errorf("cannot reset while the monitor is running (use --force): %w", err)
		}
	} else {
		defer func() { _ = store.Unlock() }()
	}

	return resetState(cmd.OutOrStdout(), store, args[0])
}

// resetState clears the state named by target.
func resetState(out io.Writer, store *state.Store, target string) error {
	var errs []error
	reset := func(label string, fn func() error) {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
			return
		}
		fmt.Fprintf(out, "reset %s\n", label)
	}
	resetScope := func(scope core.Scope) {
		reset(string(scope)+" cooldown", func() error { return store.Reset(state.CooldownFile(scope)) })
	}

	switch target {
	case resetBallot:
		reset(resetBallot, store.ClearBallot)
	case resetCursor:
		reset("log cursor", func() error { return store.Reset(state.FileCursor) })
	case resetAll:
		for _, scope := range core.Scopes() {
			resetScope(scope)
		}
		reset(resetBallot, store.ClearBallot)
		reset("log cursor", func() error { return store.Reset(state.FileCursor) })
	default:
		scope, err := core.ParseScope(target)
		if err != nil {
			return fmt.Errorf("unknown reset target %q: must be a scope, ballot, cursor or all", target)
		}
		resetScope(scope)
	}
	return errors.Join(errs...)
}

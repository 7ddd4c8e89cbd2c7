package testutil_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/testutil"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)

	var hooked []time.Duration
	clock.OnSleep(func(d time.Duration) { hooked = append(hooked, d) })

	clock.Sleep(10 * time.Second)
	clock.Advance(time.Minute)
	clock.Sleep(time.Second)

	if got := clock.Now(); !got.Equal(start.Add(71 * time.Second)) {
		t.Errorf("Now() = %v", got)
	}
	if got := clock.Slept(); got != 11*time.Second {
		t.Errorf("Slept() = %v, want 11s", got)
	}
	if len(hooked) != 2 {
		t.Errorf("hook ran %d times, want 2", len(hooked))
	}
}

func TestFakeConsole(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewFakeConsole()
	c.Respond("list", func() []string { return []string{testutil.PlayerCountLine(3, 20)} })

	if err := c.Send(ctx, "say hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := c.Send(ctx, "list"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	out, err := c.RecentOutput(ctx, 5)
	if err != nil || len(out) != 1 {
		t.Fatalf("RecentOutput() = %v, %v", out, err)
	}
	if got := c.SentWithPrefix("say "); len(got) != 1 {
		t.Errorf("SentWithPrefix() = %v", got)
	}

	c.SetAttached(false)
	if err := c.Send(ctx, "say bye"); !errors.Is(err, core.ErrNotAttached) {
		t.Errorf("Send() detached error = %v, want ErrNotAttached", err)
	}
	if c.Attached(ctx) {
		t.Error("Attached() = true after SetAttached(false)")
	}
}

func TestFakeRestarter(t *testing.T) {
	r := testutil.NewFakeRestarter().WithError(testutil.ErrTest)
	if err := r.Restart(context.Background()); !errors.Is(err, testutil.ErrTest) {
		t.Errorf("Restart() error = %v", err)
	}
	if r.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1", r.CallCount())
	}
}

func TestFakeRunner(t *testing.T) {
	r := testutil.NewFakeRunner().Handle(func(name string, args []string) (string, error) {
		if name == "tmux" {
			return "ok", nil
		}
		return "", testutil.ErrTest
	})

	out, err := r.Run(context.Background(), "tmux", "has-session")
	if err != nil || out != "ok" {
		t.Errorf("Run(tmux) = %q, %v", out, err)
	}
	if _, err := r.Run(context.Background(), "screen", "-ls"); err == nil {
		t.Error("Run(screen) expected error")
	}
	if calls := r.Calls(); len(calls) != 2 || calls[0][1] != "has-session" {
		t.Errorf("Calls() = %v", calls)
	}
}

func TestFakeJournal(t *testing.T) {
	ctx := context.Background()
	j := testutil.NewFakeJournal()
	for _, id := range []string{"a", "b", "c"} {
		if err := j.Record(ctx, core.RestartEvent{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("Recent() = %+v", recent)
	}
}

func TestNewTestConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := testutil.NewTestConfig(dir, func(c *config.Config) { c.Vote.MinVotes = 4 })

	if cfg.Vote.MinVotes != 4 {
		t.Errorf("option not applied: MinVotes = %d", cfg.Vote.MinVotes)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		t.Errorf("test config does not validate: %v", err)
	}
}

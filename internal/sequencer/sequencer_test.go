package sequencer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/announce"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/testutil"
)

var epoch = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type commit struct {
	scope core.Scope
	at    time.Time
}

type fakeCommitter struct {
	commits []commit
	order   *[]string
}

func (f *fakeCommitter) Commit(scope core.Scope, now time.Time) error {
	f.commits = append(f.commits, commit{scope, now})
	if f.order != nil {
		*f.order = append(*f.order, "commit")
	}
	return nil
}

type orderedRestarter struct {
	*testutil.FakeRestarter
	order *[]string
}

func (r orderedRestarter) Restart(ctx context.Context) error {
	*r.order = append(*r.order, "restart")
	return r.FakeRestarter.Restart(ctx)
}

type fixture struct {
	clock     *testutil.FakeClock
	console   *testutil.FakeConsole
	committer *fakeCommitter
	restarter *testutil.FakeRestarter
	journal   *testutil.FakeJournal
	seq       *Sequencer
}

func newFixture(restarter *testutil.FakeRestarter) *fixture {
	f := &fixture{
		clock:     testutil.NewFakeClock(epoch),
		console:   testutil.NewFakeConsole(),
		committer: &fakeCommitter{},
		restarter: restarter,
		journal:   testutil.NewFakeJournal(),
	}
	f.restarter.WithClock(f.clock)
	f.seq = New(announce.New(f.console, "say", nil), f.committer, f.restarter, f.journal, f.clock, nil)
	return f
}

func seconds(values ...int) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Second
	}
	return out
}

func TestSchedule(t *testing.T) {
	s, err := Schedule(core.TriggerVote)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 20, 10, 5, 4, 3, 2, 1}, s)

	s, err = Schedule(core.TriggerPerformance)
	require.NoError(t, err)
	assert.Equal(t, []int{180, 60, 30, 20, 10, 5, 4, 3, 2, 1}, s)

	_, err = Schedule("manual")
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestRun_VoteCountdown(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())

	require.NoError(t, f.seq.Run(context.Background(), core.TriggerVote, 2))

	assert.Equal(t, seconds(10, 10, 5, 1, 1, 1, 1, 1), f.clock.Sleeps())
	assert.Equal(t, 30*time.Second, f.clock.Slept())

	said := f.console.SentWithPrefix("say ")
	require.Len(t, said, 8)
	assert.Equal(t, "say [tickwarden] Players voted to restart. Restarting in 30 seconds.", said[0])
	assert.Equal(t, "say [tickwarden] Restarting in 20 seconds.", said[1])
	assert.Equal(t, "say [tickwarden] Restarting in 1 second.", said[7])

	require.Len(t, f.committer.commits, 1)
	assert.Equal(t, core.ScopeVote, f.committer.commits[0].scope)
	assert.True(t, f.committer.commits[0].at.Equal(epoch.Add(30*time.Second)))

	require.Equal(t, 1, f.restarter.CallCount())
	assert.True(t, f.restarter.Calls()[0].Timestamp.Equal(epoch.Add(30*time.Second)))
}

func TestRun_PerformanceCountdown(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())

	require.NoError(t, f.seq.Run(context.Background(), core.TriggerPerformance, 14.34))

	assert.Equal(t, seconds(120, 30, 10, 10, 5, 1, 1, 1, 1, 1), f.clock.Sleeps())
	assert.Equal(t, 3*time.Minute, f.clock.Slept())

	said := f.console.SentWithPrefix("say ")
	require.Len(t, said, 10)
	assert.Equal(t, "say [tickwarden] Server performance is degraded (14.3 TPS). Restarting in 180 seconds.", said[0])
	assert.Equal(t, core.ScopePerformance, f.committer.commits[0].scope)
	assert.Equal(t, 1, f.restarter.CallCount())
}

func TestRun_CommitBeforeRestart(t *testing.T) {
	var order []string
	f := newFixture(testutil.NewFakeRestarter())
	f.committer.order = &order
	f.seq.restarter = orderedRestarter{FakeRestarter: f.restarter, order: &order}

	require.NoError(t, f.seq.Run(context.Background(), core.TriggerVote, 3))
	assert.Equal(t, []string{"commit", "restart"}, order)
}

func TestRun_AnnounceFailuresDoNotStopCountdown(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())
	f.console.SetAttached(false)

	require.NoError(t, f.seq.Run(context.Background(), core.TriggerVote, 2))

	assert.Empty(t, f.console.Sent())
	assert.Equal(t, 30*time.Second, f.clock.Slept())
	assert.Equal(t, 1, f.restarter.CallCount())
}

func TestRun_RestartFailureIsNotRetried(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter().WithError(core.ErrRestart("systemctl exited 1")))

	err := f.seq.Run(context.Background(), core.TriggerVote, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRestartFailed)
	assert.Equal(t, 1, f.restarter.CallCount())

	events := f.journal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, core.OutcomeFailed, events[0].Outcome)
	assert.Contains(t, events[0].Error, "systemctl exited 1")
	assert.Len(t, f.committer.commits, 1, "cooldown is committed even when the restart fails")
}

func TestRun_IgnoresCancellation(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())
	ctx, cancel := context.WithCancel(context.Background())
	f.clock.OnSleep(func(time.Duration) { cancel() })

	require.NoError(t, f.seq.Run(ctx, core.TriggerVote, 2))
	assert.Len(t, f.clock.Sleeps(), 8)
	assert.Equal(t, 1, f.restarter.CallCount())
}

func TestRun_Journal(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())

	require.NoError(t, f.seq.Run(context.Background(), core.TriggerPerformance, 15.5))

	events := f.journal.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, core.TriggerPerformance, ev.Trigger)
	assert.InDelta(t, 15.5, ev.Reading, 1e-9)
	assert.True(t, ev.StartedAt.Equal(epoch))
	assert.True(t, ev.FinishedAt.Equal(epoch.Add(3*time.Minute)))
	assert.Equal(t, core.OutcomeRestarted, ev.Outcome)
}

func TestRun_JournalFailureIsLoggedOnly(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())
	f.seq.journal = testutil.NewFakeJournal().WithError(testutil.ErrTest)

	assert.NoError(t, f.seq.Run(context.Background(), core.TriggerVote, 2))
}

func TestRun_UnknownTrigger(t *testing.T) {
	f := newFixture(testutil.NewFakeRestarter())

	err := f.seq.Run(context.Background(), "manual", 0)
	require.Error(t, err)
	assert.Zero(t, f.restarter.CallCount())
	assert.Empty(t, f.clock.Sleeps())
}

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSQLiteJournal_RecordAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, core.RestartEvent{
		Trigger:    core.TriggerVote,
		StartedAt:  base,
		FinishedAt: base.Add(30 * time.Second),
		Outcome:    core.OutcomeRestarted,
	}))
	require.NoError(t, j.Record(ctx, core.RestartEvent{
		ID:         "perf-1",
		Trigger:    core.TriggerPerformance,
		Reading:    16.25,
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + 3*time.Minute),
		Outcome:    core.OutcomeFailed,
		Error:      "exit status 1",
	}))

	events, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "perf-1", events[0].ID)
	assert.Equal(t, core.TriggerPerformance, events[0].Trigger)
	assert.InDelta(t, 16.25, events[0].Reading, 1e-9)
	assert.Equal(t, core.OutcomeFailed, events[0].Outcome)
	assert.Equal(t, "exit status 1", events[0].Error)
	assert.True(t, events[0].StartedAt.Equal(base.Add(time.Hour)))

	assert.Equal(t, core.TriggerVote, events[1].Trigger)
	assert.NotEmpty(t, events[1].ID, "missing IDs are generated")
	assert.Empty(t, events[1].Error)
}

func TestSQLiteJournal_RecentLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, core.RestartEvent{
			Trigger:    core.TriggerVote,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i) * time.Hour),
			Outcome:    core.OutcomeRestarted,
		}))
	}

	events, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].StartedAt.Equal(base.Add(4*time.Hour)))
}

func TestSQLiteJournal_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	j, err := NewSQLiteJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, core.RestartEvent{
		ID: "a", Trigger: core.TriggerVote, Outcome: core.OutcomeRestarted,
		StartedAt: time.Now(), FinishedAt: time.Now(),
	}))
	require.NoError(t, j.Close())

	j, err = NewSQLiteJournal(path)
	require.NoError(t, err)
	defer j.Close()

	events, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, path, j.Path())
}

package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

func seededStore(t *testing.T) *state.Store {
	t.Helper()
	store, err := state.NewStore(t.TempDir())
	require.NoError(t, err)

	now := time.Now()
	for _, scope := range core.Scopes() {
		require.NoError(t, store.SetLastRestart(scope, now))
	}
	require.NoError(t, store.SaveBallot(core.Ballot{Voters: []string{"alice"}, CreatedAt: now}))
	require.NoError(t, store.SetCursor(42))
	return store
}

func TestResetState_Scope(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer

	require.NoError(t, resetState(&buf, store, "vote"))

	_, ok, err := store.LastRestart(core.ScopeVote)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.LastRestart(core.ScopeGlobal)
	require.NoError(t, err)
	assert.True(t, ok, "other scopes are untouched")
	assert.Contains(t, buf.String(), "reset vote cooldown")
}

func TestResetState_BallotAndCursor(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer

	require.NoError(t, resetState(&buf, store, "ballot"))
	b, err := store.Ballot()
	require.NoError(t, err)
	assert.True(t, b.Empty())

	require.NoError(t, resetState(&buf, store, "cursor"))
	_, ok, err := store.Cursor()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetState_All(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer

	require.NoError(t, resetState(&buf, store, "all"))

	for _, scope := range core.Scopes() {
		_, ok, err := store.LastRestart(scope)
		require.NoError(t, err)
		assert.False(t, ok, "scope %s", scope)
	}
	_, ok, err := store.Cursor()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetState_UnknownTarget(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer

	err := resetState(&buf, store, "weekly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reset target")
}

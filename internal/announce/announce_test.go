package announce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/testutil"
)

func TestAnnouncer_Say(t *testing.T) {
	console := testutil.NewFakeConsole()
	a := New(console, "say", nil)

	require.NoError(t, a.Say(context.Background(), "Restarting in %d seconds", 30))
	assert.Equal(t, []string{"say [tickwarden] Restarting in 30 seconds"}, console.Sent())
}

func TestAnnouncer_SayFailure(t *testing.T) {
	console := testutil.NewFakeConsole()
	console.SetAttached(false)
	a := New(console, "tellraw", nil)

	assert.Error(t, a.Say(context.Background(), "hello"))
	assert.Empty(t, console.Sent())
}

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVote(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		voter string
		ok    bool
	}{
		{"vanilla", "[12:00:00] [Server thread/INFO]: <Alex> !restart", "Alex", true},
		{"voterestart", "[12:00:00] [Server thread/INFO]: <steve_2> !voterestart", "steve_2", true},
		{"uppercase command", "[12:00:00] [Server thread/INFO]: <Alex> !RESTART", "Alex", true},
		{"trailing words", "[12:00:00] [Server thread/INFO]: <Alex> !restart please", "Alex", true},
		{"plugin format", "[12:00:00] [Server thread/INFO]: [Member] Notch: !restart", "Notch", true},
		{"plugin at line start", "Notch: !voterestart", "Notch", true},
		{"longer command", "[12:00:00] [Server thread/INFO]: <Alex> !restartnow", "", false},
		{"not first word", "[12:00:00] [Server thread/INFO]: <Alex> please !restart", "", false},
		{"name too long", "[12:00:00] [Server thread/INFO]: <abcdefghijklmnopq> !restart", "", false},
		{"invalid name", "[12:00:00] [Server thread/INFO]: <Al-ex> !restart", "", false},
		{"timestamp is not a name", "[12:00:00] [Server thread/INFO]: !restart", "", false},
		{"unrelated", "[12:00:00] [Server thread/INFO]: Alex joined the game", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voter, ok := Vote(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.voter, voter)
		})
	}
}

func TestVoters_DeduplicatesInOrder(t *testing.T) {
	lines := []string{
		"<Bob> !restart",
		"<Alex> hello",
		"<Alex> !voterestart",
		"<Bob> !restart",
		"Server started",
	}
	assert.Equal(t, []string{"Bob", "Alex"}, Voters(lines))
	assert.Empty(t, Voters(nil))
}

func TestPlayerCount(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  int
		ok    bool
	}{
		{
			name:  "modern",
			lines: []string{"[Server thread/INFO]: There are 3 of a max of 20 players online: a, b, c"},
			want:  3, ok: true,
		},
		{
			name:  "without of",
			lines: []string{"There are 0 of a max 20 players online:"},
			want:  0, ok: true,
		},
		{
			name:  "legacy slash",
			lines: []string{"There are 7/50 players online:"},
			want:  7, ok: true,
		},
		{
			name: "newest wins",
			lines: []string{
				"There are 2 of a max of 20 players online:",
				"<Alex> !restart",
				"There are 5 of a max of 20 players online:",
			},
			want: 5, ok: true,
		},
		{
			name:  "missing",
			lines: []string{"<Alex> !restart"},
			ok:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PlayerCount(tt.lines)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinMeanTPS(t *testing.T) {
	lines := []string{
		"Dim 0 (overworld) : Mean tick time: 40.1 ms. Mean TPS: 19.950",
		"Dim -1 (the_nether) : Mean tick time: 61.0 ms. Mean TPS: 16.393",
		"Dim 1 (the_end) : Mean tick time: 1.2 ms. Mean TPS: 20.000",
		"Overall : Mean tick time: 102.3 ms. Mean TPS: 17.5",
	}

	got, ok := MinMeanTPS(lines)
	assert.True(t, ok)
	assert.InDelta(t, 16.393, got, 1e-9)

	_, ok = MinMeanTPS([]string{"There are 3 of a max of 20 players online:"})
	assert.False(t, ok)

	got, ok = MinMeanTPS([]string{"Mean TPS: 20"})
	assert.True(t, ok)
	assert.InDelta(t, 20.0, got, 1e-9)
}

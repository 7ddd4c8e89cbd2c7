package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/testutil"
)

func newTestDoctor(t *testing.T, sessionUp bool, missing ...string) *doctor {
	t.Helper()
	cfg := testutil.NewTestConfig(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Server.LogPath), 0o755))
	testutil.AppendLines(t, cfg.Server.LogPath, "line one", "line two")

	d := newDoctor(cfg)
	d.runner = testutil.NewFakeRunner().Handle(func(string, []string) (string, error) {
		if !sessionUp {
			return "", errors.New("can't find session")
		}
		return "", nil
	})
	d.lookPath = func(name string) (string, bool) {
		for _, m := range missing {
			if m == name {
				return "", false
			}
		}
		return "/usr/bin/" + name, true
	}
	d.collect = func() diagnostics.HostSnapshot {
		return diagnostics.HostSnapshot{CPUPercent: 12, CPUThreads: 8, MemPercent: 40, DiskPercent: 50}
	}
	return d
}

func statuses(results []checkResult) map[string]checkStatus {
	out := map[string]checkStatus{}
	for _, r := range results {
		out[r.Name] = r.Status
	}
	return out
}

func TestDoctor_AllHealthy(t *testing.T) {
	results := newTestDoctor(t, true).run(context.Background())

	require.Len(t, results, 6)
	for _, r := range results {
		assert.Equal(t, checkOK, r.Status, "%s: %s", r.Name, r.Detail)
	}
	assert.Contains(t, results[2].Detail, "(2 lines)")
}

func TestDoctor_Problems(t *testing.T) {
	d := newTestDoctor(t, false, "tmux", "sudo")
	require.NoError(t, os.Remove(d.cfg.Server.LogPath))

	got := statuses(d.run(context.Background()))

	assert.Equal(t, checkFail, got["tmux"])
	assert.Equal(t, checkWarn, got["session minecraft"])
	assert.Equal(t, checkFail, got["log file"])
	assert.Equal(t, checkFail, got["supervisor"])
	assert.Equal(t, checkOK, got["state dir"])
}

func TestRenderChecks(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	c, buf := newTestCommand()
	renderChecks(c.OutOrStdout(), []checkResult{
		{Name: "tmux", Status: checkOK, Detail: "/usr/bin/tmux"},
		{Name: "log file", Status: checkFail, Detail: "missing"},
	}, newStyles(c.OutOrStdout()))

	assert.Contains(t, buf.String(), "✓ tmux")
	assert.Contains(t, buf.String(), "✗ log file")
}

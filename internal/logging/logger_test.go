package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.NotNil(t, cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("vote registered", "voter", "Steve", "tally", 1)

	out := buf.String()
	assert.Contains(t, out, `"msg":"vote registered"`)
	assert.Contains(t, out, `"voter":"Steve"`)
	assert.Contains(t, out, `"tally":1`)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_AutoFormatNonTTYIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "auto", Output: &buf})
	logger.Info("hello")

	assert.True(t, strings.HasPrefix(buf.String(), "{"), "expected JSON output, got %q", buf.String())
}

func TestLogger_WithComponentAndTrigger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.WithComponent("sequencer").WithTrigger("vote").Info("countdown started")

	out := buf.String()
	assert.Contains(t, out, `"component":"sequencer"`)
	assert.Contains(t, out, `"trigger":"vote"`)
}

func TestLogger_RedactsPlayerAddresses(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("Steve[/203.0.113.7:51234] logged in", "line", "Alex[/198.51.100.2:4000] logged in")
	logger.Error("send failed", "error", errors.New("dial 192.0.2.1:25575 refused"))

	out := buf.String()
	assert.NotContains(t, out, "203.0.113.7")
	assert.NotContains(t, out, "198.51.100.2")
	assert.NotContains(t, out, "192.0.2.1")
	assert.Contains(t, out, "[REDACTED]")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickwarden.log")
	var buf bytes.Buffer

	logger, closer, err := NewWithFile(Config{Level: "info", Output: &buf}, path)
	require.NoError(t, err)
	logger.Info("written twice")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written twice")
	assert.Contains(t, buf.String(), "written twice")
}

func TestNewWithFile_EmptyPath(t *testing.T) {
	logger, closer, err := NewWithFile(DefaultConfig(), "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)
	logger.Info("discarded")
	assert.NotNil(t, logger.Sanitizer())
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, slog.LevelDebug)
	logger := slog.New(h).With("component", "monitor").WithGroup("cycle")

	logger.Warn("cycle bad", "bad", 5)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "cycle bad")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "cycle.bad")
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug-1))
}

func TestSanitizer(t *testing.T) {
	t.Parallel()
	s := NewSanitizer()

	tests := []struct {
		name  string
		input string
		leak  string
	}{
		{"ipv4 endpoint", "connection from /10.0.0.5:53422", "10.0.0.5"},
		{"ipv6 endpoint", "Notch[/[2001:db8::1]:25565] logged in", "2001:db8::1"},
		{"rcon password", "rcon.password=hunter2hunter2", "hunter2"},
		{"webhook", "relay https://discord.com/api/webhooks/123/abc", "webhooks/123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Sanitize(tt.input)
			assert.NotContains(t, out, tt.leak)
			assert.Contains(t, out, "[REDACTED]")
		})
	}

	assert.Equal(t, "<Steve> !restart", s.Sanitize("<Steve> !restart"))
	assert.Equal(t, "Mean TPS: 19.875", s.Sanitize("Mean TPS: 19.875"))
	assert.Equal(t, "[12:34:56] [Server thread/INFO]: done", s.Sanitize("[12:34:56] [Server thread/INFO]: done"))
}

func TestSanitizer_CustomPattern(t *testing.T) {
	s := NewSanitizer()
	require.NoError(t, s.AddPattern(`seed=\d+`))
	s.SetRedactedPlaceholder("***")

	assert.Equal(t, "level *** ok", s.Sanitize("level seed=42 ok"))
	assert.Error(t, s.AddPattern("("))
}

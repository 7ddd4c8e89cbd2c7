package testutil

import (
	"path/filepath"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/config"
)

// NewTestConfig returns the default configuration with every path rooted in
// dir. Use functional options to override specific fields.
func NewTestConfig(dir string, opts ...func(*config.Config)) *config.Config {
	cfg := &config.Config{
		Log: config.LogConfig{Level: "debug", Format: "json"},
		Server: config.ServerConfig{
			Multiplexer:    "tmux",
			Session:        "minecraft",
			LogPath:        filepath.Join(dir, "logs", "latest.log"),
			CommandTimeout: 5 * time.Second,
		},
		Supervisor: config.SupervisorConfig{
			Command: []string{"sudo", "-n", "systemctl", "restart"},
			Unit:    "minecraft.service",
			Timeout: 2 * time.Minute,
		},
		State: config.StateConfig{
			Dir:         filepath.Join(dir, "state"),
			HistoryPath: filepath.Join(dir, "history.db"),
		},
		Announce: config.AnnounceConfig{Command: "say"},
		Players: config.PlayersConfig{
			QueryCommand: "list",
			SettleDelay:  time.Second,
			WindowLines:  20,
		},
		Vote: config.VoteConfig{
			QuorumPercent: 60,
			MinVotes:      1,
			Expiry:        300 * time.Second,
			ScanInterval:  5 * time.Second,
			Cooldown:      15 * time.Minute,
		},
		Performance: config.PerformanceConfig{
			QueryCommand:       "forge tps",
			Threshold:          18.0,
			CycleInterval:      5 * time.Minute,
			SamplesPerCycle:    7,
			RequiredBadSamples: 5,
			SampleDelay:        time.Second,
			SettleDelay:        2 * time.Second,
			WindowLines:        50,
			Cooldown:           time.Hour,
		},
		Cooldown: config.CooldownConfig{Global: 15 * time.Minute},
		Monitor: config.MonitorConfig{
			Tick:        time.Second,
			OfflineWait: 10 * time.Second,
		},
		Diagnostics: config.DiagnosticsConfig{
			CrashDumpDir:       filepath.Join(dir, "crashdumps"),
			MaxDumps:           10,
			IncludeStack:       true,
			ResourceInterval:   5 * time.Minute,
			FDThresholdPercent: 80,
			GoroutineThreshold: 1000,
			MemoryThresholdMB:  512,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

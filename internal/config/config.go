package config

import "time"

// Config holds all application configuration. It is loaded once at process
// start and treated as read-only afterwards.
type Config struct {
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Supervisor  SupervisorConfig  `mapstructure:"supervisor" yaml:"supervisor"`
	State       StateConfig       `mapstructure:"state" yaml:"state"`
	Announce    AnnounceConfig    `mapstructure:"announce" yaml:"announce"`
	Players     PlayersConfig     `mapstructure:"players" yaml:"players"`
	Vote        VoteConfig        `mapstructure:"vote" yaml:"vote"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	Cooldown    CooldownConfig    `mapstructure:"cooldown" yaml:"cooldown"`
	Monitor     MonitorConfig     `mapstructure:"monitor" yaml:"monitor"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// ServerConfig locates the game process: its interactive session and its log.
type ServerConfig struct {
	// Multiplexer is "tmux" or "screen".
	Multiplexer string `mapstructure:"multiplexer" yaml:"multiplexer"`
	Session     string `mapstructure:"session" yaml:"session"`
	LogPath     string `mapstructure:"log_path" yaml:"log_path"`
	// CommandTimeout bounds each multiplexer call made on a tick.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// SupervisorConfig configures the external restart call. The unit name is
// appended to Command.
type SupervisorConfig struct {
	Command []string      `mapstructure:"command" yaml:"command"`
	Unit    string        `mapstructure:"unit" yaml:"unit"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// StateConfig configures persisted monitor state.
type StateConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	HistoryPath string `mapstructure:"history_path" yaml:"history_path"`
}

// AnnounceConfig configures player-facing chat messages.
type AnnounceConfig struct {
	Command string `mapstructure:"command" yaml:"command"`
}

// PlayersConfig configures the online-player query.
type PlayersConfig struct {
	QueryCommand string        `mapstructure:"query_command" yaml:"query_command"`
	SettleDelay  time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	WindowLines  int           `mapstructure:"window_lines" yaml:"window_lines"`
}

// VoteConfig configures the restart vote.
type VoteConfig struct {
	QuorumPercent int           `mapstructure:"quorum_percent" yaml:"quorum_percent"`
	MinVotes      int           `mapstructure:"min_votes" yaml:"min_votes"`
	Expiry        time.Duration `mapstructure:"expiry" yaml:"expiry"`
	ScanInterval  time.Duration `mapstructure:"scan_interval" yaml:"scan_interval"`
	Cooldown      time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

// PerformanceConfig configures TPS sampling.
type PerformanceConfig struct {
	QueryCommand       string        `mapstructure:"query_command" yaml:"query_command"`
	Threshold          float64       `mapstructure:"threshold" yaml:"threshold"`
	CycleInterval      time.Duration `mapstructure:"cycle_interval" yaml:"cycle_interval"`
	SamplesPerCycle    int           `mapstructure:"samples_per_cycle" yaml:"samples_per_cycle"`
	RequiredBadSamples int           `mapstructure:"required_bad_samples" yaml:"required_bad_samples"`
	SampleDelay        time.Duration `mapstructure:"sample_delay" yaml:"sample_delay"`
	SettleDelay        time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	WindowLines        int           `mapstructure:"window_lines" yaml:"window_lines"`
	Cooldown           time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

// CooldownConfig configures the global cooldown shared by every trigger.
type CooldownConfig struct {
	Global time.Duration `mapstructure:"global" yaml:"global"`
}

// MonitorConfig configures the top-level loop.
type MonitorConfig struct {
	Tick        time.Duration `mapstructure:"tick" yaml:"tick"`
	OfflineWait time.Duration `mapstructure:"offline_wait" yaml:"offline_wait"`
}

// DiagnosticsConfig configures crash dumps written when a tick panics and
// the monitor's own resource sampling. Zero thresholds disable that check.
type DiagnosticsConfig struct {
	CrashDumpDir       string        `mapstructure:"crash_dump_dir" yaml:"crash_dump_dir"`
	MaxDumps           int           `mapstructure:"max_dumps" yaml:"max_dumps"`
	IncludeStack       bool          `mapstructure:"include_stack" yaml:"include_stack"`
	ResourceInterval   time.Duration `mapstructure:"resource_interval" yaml:"resource_interval"`
	FDThresholdPercent int           `mapstructure:"fd_threshold_percent" yaml:"fd_threshold_percent"`
	GoroutineThreshold int           `mapstructure:"goroutine_threshold" yaml:"goroutine_threshold"`
	MemoryThresholdMB  int           `mapstructure:"memory_threshold_mb" yaml:"memory_threshold_mb"`
}

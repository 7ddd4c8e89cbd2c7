package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateServer(&cfg.Server)
	v.validateSupervisor(&cfg.Supervisor)
	v.validateState(&cfg.State)
	v.validateAnnounce(&cfg.Announce)
	v.validatePlayers(&cfg.Players)
	v.validateVote(&cfg.Vote)
	v.validatePerformance(&cfg.Performance)
	v.validateCooldown(&cfg.Cooldown)
	v.validateMonitor(&cfg.Monitor)
	v.validateDiagnostics(&cfg.Diagnostics)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) requirePositive(field string, d time.Duration) {
	if d <= 0 {
		v.addError(field, d, "must be a positive duration")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}

	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Multiplexer != "tmux" && cfg.Multiplexer != "screen" {
		v.addError("server.multiplexer", cfg.Multiplexer, "must be one of: tmux, screen")
	}
	if strings.TrimSpace(cfg.Session) == "" {
		v.addError("server.session", cfg.Session, "session name required")
	}
	if cfg.LogPath == "" {
		v.addError("server.log_path", cfg.LogPath, "log path required")
	}
	v.requirePositive("server.command_timeout", cfg.CommandTimeout)
}

func (v *Validator) validateSupervisor(cfg *SupervisorConfig) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		v.addError("supervisor.command", cfg.Command, "command required")
	}
	if cfg.Unit == "" {
		v.addError("supervisor.unit", cfg.Unit, "unit required")
	}
	v.requirePositive("supervisor.timeout", cfg.Timeout)
}

func (v *Validator) validateState(cfg *StateConfig) {
	if cfg.Dir == "" {
		v.addError("state.dir", cfg.Dir, "directory required")
	} else if !isValidPath(cfg.Dir) {
		v.addError("state.dir", cfg.Dir, "invalid directory path")
	}
	if cfg.HistoryPath != "" && !isValidPath(cfg.HistoryPath) {
		v.addError("state.history_path", cfg.HistoryPath, "invalid file path")
	}
}

func (v *Validator) validateAnnounce(cfg *AnnounceConfig) {
	if strings.TrimSpace(cfg.Command) == "" {
		v.addError("announce.command", cfg.Command, "command required")
	}
}

func (v *Validator) validatePlayers(cfg *PlayersConfig) {
	if strings.TrimSpace(cfg.QueryCommand) == "" {
		v.addError("players.query_command", cfg.QueryCommand, "command required")
	}
	if cfg.SettleDelay < 0 {
		v.addError("players.settle_delay", cfg.SettleDelay, "must not be negative")
	}
	if cfg.WindowLines <= 0 {
		v.addError("players.window_lines", cfg.WindowLines, "must be positive")
	}
}

func (v *Validator) validateVote(cfg *VoteConfig) {
	if cfg.QuorumPercent <= 0 || cfg.QuorumPercent > 100 {
		v.addError("vote.quorum_percent", cfg.QuorumPercent, "must be between 1 and 100")
	}
	if cfg.MinVotes < 1 {
		v.addError("vote.min_votes", cfg.MinVotes, "must be at least 1")
	}
	v.requirePositive("vote.expiry", cfg.Expiry)
	v.requirePositive("vote.scan_interval", cfg.ScanInterval)
	if cfg.Cooldown < 0 {
		v.addError("vote.cooldown", cfg.Cooldown, "must not be negative")
	}
}

func (v *Validator) validatePerformance(cfg *PerformanceConfig) {
	if strings.TrimSpace(cfg.QueryCommand) == "" {
		v.addError("performance.query_command", cfg.QueryCommand, "command required")
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 20 {
		v.addError("performance.threshold", cfg.Threshold, "must be in (0, 20]")
	}
	v.requirePositive("performance.cycle_interval", cfg.CycleInterval)
	if cfg.SamplesPerCycle < 1 {
		v.addError("performance.samples_per_cycle", cfg.SamplesPerCycle, "must be at least 1")
	}
	if cfg.RequiredBadSamples < 1 || cfg.RequiredBadSamples > cfg.SamplesPerCycle {
		v.addError("performance.required_bad_samples", cfg.RequiredBadSamples,
			"must be between 1 and performance.samples_per_cycle")
	}
	if cfg.SampleDelay < 0 {
		v.addError("performance.sample_delay", cfg.SampleDelay, "must not be negative")
	}
	if cfg.SettleDelay < 0 {
		v.addError("performance.settle_delay", cfg.SettleDelay, "must not be negative")
	}
	if cfg.WindowLines <= 0 {
		v.addError("performance.window_lines", cfg.WindowLines, "must be positive")
	}
	if cfg.Cooldown < 0 {
		v.addError("performance.cooldown", cfg.Cooldown, "must not be negative")
	}
}

func (v *Validator) validateCooldown(cfg *CooldownConfig) {
	if cfg.Global < 0 {
		v.addError("cooldown.global", cfg.Global, "must not be negative")
	}
}

func (v *Validator) validateMonitor(cfg *MonitorConfig) {
	v.requirePositive("monitor.tick", cfg.Tick)
	v.requirePositive("monitor.offline_wait", cfg.OfflineWait)
}

func (v *Validator) validateDiagnostics(cfg *DiagnosticsConfig) {
	if cfg.MaxDumps < 0 {
		v.addError("diagnostics.max_dumps", cfg.MaxDumps, "must not be negative")
	}
	if cfg.ResourceInterval < 0 {
		v.addError("diagnostics.resource_interval", cfg.ResourceInterval, "must not be negative")
	}
	if cfg.FDThresholdPercent < 0 || cfg.FDThresholdPercent > 100 {
		v.addError("diagnostics.fd_threshold_percent", cfg.FDThresholdPercent, "must be between 0 and 100")
	}
	if cfg.GoroutineThreshold < 0 {
		v.addError("diagnostics.goroutine_threshold", cfg.GoroutineThreshold, "must not be negative")
	}
	if cfg.MemoryThresholdMB < 0 {
		v.addError("diagnostics.memory_threshold_mb", cfg.MemoryThresholdMB, "must not be negative")
	}
}

// isValidPath checks that the parent of path either exists or can be created.
func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}

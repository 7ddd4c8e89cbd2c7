package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "TICKWARDEN",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "TICKWARDEN",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (TICKWARDEN_*)
// 3. Project config (.tickwarden/config.yaml in current directory)
// 4. User config (~/.config/tickwarden/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".tickwarden")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "tickwarden"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values. Keep in sync with DefaultConfigYAML.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")
	l.v.SetDefault("log.file", "")

	l.v.SetDefault("server.multiplexer", "tmux")
	l.v.SetDefault("server.session", "minecraft")
	l.v.SetDefault("server.log_path", "logs/latest.log")
	l.v.SetDefault("server.command_timeout", "5s")

	l.v.SetDefault("supervisor.command", []string{"sudo", "-n", "systemctl", "restart"})
	l.v.SetDefault("supervisor.unit", "minecraft.service")
	l.v.SetDefault("supervisor.timeout", "2m")

	l.v.SetDefault("state.dir", ".tickwarden/state")
	l.v.SetDefault("state.history_path", ".tickwarden/history.db")

	l.v.SetDefault("announce.command", "say")

	l.v.SetDefault("players.query_command", "list")
	l.v.SetDefault("players.settle_delay", "1s")
	l.v.SetDefault("players.window_lines", 20)

	l.v.SetDefault("vote.quorum_percent", 60)
	l.v.SetDefault("vote.min_votes", 1)
	l.v.SetDefault("vote.expiry", "300s")
	l.v.SetDefault("vote.scan_interval", "5s")
	l.v.SetDefault("vote.cooldown", "15m")

	l.v.SetDefault("performance.query_command", "forge tps")
	l.v.SetDefault("performance.threshold", 18.0)
	l.v.SetDefault("performance.cycle_interval", "5m")
	l.v.SetDefault("performance.samples_per_cycle", 7)
	l.v.SetDefault("performance.required_bad_samples", 5)
	l.v.SetDefault("performance.sample_delay", "1s")
	l.v.SetDefault("performance.settle_delay", "2s")
	l.v.SetDefault("performance.window_lines", 50)
	l.v.SetDefault("performance.cooldown", "1h")

	l.v.SetDefault("cooldown.global", "15m")

	l.v.SetDefault("monitor.tick", "1s")
	l.v.SetDefault("monitor.offline_wait", "10s")

	l.v.SetDefault("diagnostics.crash_dump_dir", ".tickwarden/crashdumps")
	l.v.SetDefault("diagnostics.max_dumps", 10)
	l.v.SetDefault("diagnostics.include_stack", true)
	l.v.SetDefault("diagnostics.resource_interval", "5m")
	l.v.SetDefault("diagnostics.fd_threshold_percent", 80)
	l.v.SetDefault("diagnostics.goroutine_threshold", 1000)
	l.v.SetDefault("diagnostics.memory_threshold_mb", 512)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

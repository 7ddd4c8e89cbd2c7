package config

// DefaultConfigYAML contains the default configuration YAML content.
// `tickwarden init` writes it to .tickwarden/config.yaml.
const DefaultConfigYAML = `# tickwarden configuration
#
# Values not specified here use built-in defaults.

log:
  level: info        # debug, info, warn, error
  format: auto       # auto, text, json

server:
  multiplexer: tmux  # tmux or screen
  session: minecraft
  log_path: logs/latest.log
  command_timeout: 5s

supervisor:
  # The unit name is appended to this command.
  command: [sudo, -n, systemctl, restart]
  unit: minecraft.service
  timeout: 2m

state:
  dir: .tickwarden/state
  history_path: .tickwarden/history.db

announce:
  command: say

players:
  query_command: list
  settle_delay: 1s
  window_lines: 20

vote:
  quorum_percent: 60
  min_votes: 1
  expiry: 300s
  scan_interval: 5s
  cooldown: 15m

performance:
  query_command: forge tps
  threshold: 18.0
  cycle_interval: 5m
  samples_per_cycle: 7
  required_bad_samples: 5
  sample_delay: 1s
  settle_delay: 2s
  window_lines: 50
  cooldown: 1h

cooldown:
  global: 15m

monitor:
  tick: 1s
  offline_wait: 10s

diagnostics:
  crash_dump_dir: .tickwarden/crashdumps
  max_dumps: 10
  resource_interval: 5m
  fd_threshold_percent: 80
  goroutine_threshold: 1000
  memory_threshold_mb: 512   # 0 disables a threshold
`

// Package diagnostics provides host and process health information for a
// long-running monitor.
//
// The package implements three components:
//
//   - HostCollector: samples host CPU, memory, disk and load average with
//     gopsutil. Snapshots are logged alongside degraded-performance verdicts
//     and shown by the doctor command.
//
//   - ResourceMonitor: periodically tracks the monitor's own file
//     descriptors, goroutines and heap, and warns about growth that would
//     indicate a leak over weeks of uptime.
//
//   - CrashDumpWriter: persists diagnostic information when a monitor tick
//     panics, so the loop can recover and keep running.
//
// Configuration is managed through DiagnosticsConfig in the config package.
package diagnostics

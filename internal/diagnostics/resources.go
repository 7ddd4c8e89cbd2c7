package diagnostics

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
)

// ResourceSnapshot captures the monitor process's own resource state.
type ResourceSnapshot struct {
	Timestamp      time.Time     `json:"timestamp"`
	OpenFDs        int           `json:"open_fds"`
	MaxFDs         int           `json:"max_fds"`
	FDUsagePercent float64       `json:"fd_usage_percent"`
	Goroutines     int           `json:"goroutines"`
	HeapAllocMB    float64       `json:"heap_alloc_mb"`
	HeapInUseMB    float64       `json:"heap_in_use_mb"`
	NumGC          uint32        `json:"num_gc"`
	ProcessUptime  time.Duration `json:"process_uptime"`
}

// ResourceTrend captures resource usage trends over time.
type ResourceTrend struct {
	FDGrowthRate        float64  // FDs per hour
	GoroutineGrowthRate float64  // Goroutines per hour
	MemoryGrowthRate    float64  // MB per hour
	IsHealthy           bool     // Overall health assessment
	Warnings            []string // Trend-based warnings
}

// HealthWarning represents a single health concern.
type HealthWarning struct {
	Level   string  // "warning" or "critical"
	Type    string  // "fd", "goroutine", "memory"
	Message string  // Human-readable description
	Value   float64 // Current value
	Limit   float64 // Threshold that was exceeded
}

// Thresholds configures when the ResourceMonitor warns. Zero disables a check.
type Thresholds struct {
	FDPercent  int
	Goroutines int
	MemoryMB   int
}

// ResourceMonitor tracks the monitor process's resource usage over time.
type ResourceMonitor struct {
	interval    time.Duration
	thresholds  Thresholds
	historySize int
	logger      *logging.Logger

	history []ResourceSnapshot
	mu      sync.RWMutex
	started time.Time
}

// NewResourceMonitor creates a resource monitor sampling every interval.
func NewResourceMonitor(interval time.Duration, thresholds Thresholds, historySize int, logger *logging.Logger) *ResourceMonitor {
	if historySize <= 0 {
		historySize = 288 // one day at 5m intervals
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ResourceMonitor{
		interval:    interval,
		thresholds:  thresholds,
		historySize: historySize,
		logger:      logger.WithComponent("resources"),
		history:     make([]ResourceSnapshot, 0, historySize),
		started:     time.Now(),
	}
}

// Run samples until ctx is done, logging threshold and trend warnings.
func (m *ResourceMonitor) Run(ctx context.Context) {
	m.Sample()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sample()
			for _, w := range m.CheckHealth() {
				m.logger.Warn("resource warning",
					"type", w.Type,
					"level", w.Level,
					"value", w.Value,
					"limit", w.Limit,
					"message", w.Message,
				)
			}
			if trend := m.GetTrend(); !trend.IsHealthy {
				m.logger.Warn("resource trend", "warnings", trend.Warnings)
			}
		}
	}
}

// Sample takes a snapshot and records it in the history.
func (m *ResourceMonitor) Sample() ResourceSnapshot {
	s := m.TakeSnapshot()
	m.recordSnapshot(s)
	return s
}

// TakeSnapshot captures current resource state.
func (m *ResourceMonitor) TakeSnapshot() ResourceSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	openFDs, maxFDs := CountFDs()
	fdPercent := 0.0
	if maxFDs > 0 {
		fdPercent = float64(openFDs) / float64(maxFDs) * 100
	}

	return ResourceSnapshot{
		Timestamp:      time.Now(),
		OpenFDs:        openFDs,
		MaxFDs:         maxFDs,
		FDUsagePercent: fdPercent,
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocMB:    float64(memStats.HeapAlloc) / 1024 / 1024,
		HeapInUseMB:    float64(memStats.HeapInuse) / 1024 / 1024,
		NumGC:          memStats.NumGC,
		ProcessUptime:  time.Since(m.started),
	}
}

func (m *ResourceMonitor) recordSnapshot(s ResourceSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, s)
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
}

// GetHistory returns historical snapshots.
func (m *ResourceMonitor) GetHistory() []ResourceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]ResourceSnapshot, len(m.history))
	copy(result, m.history)
	return result
}

// GetLatest returns the most recent snapshot.
func (m *ResourceMonitor) GetLatest() (ResourceSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.history) == 0 {
		return ResourceSnapshot{}, false
	}
	return m.history[len(m.history)-1], true
}

// GetTrend analyzes recorded snapshots for steady growth.
func (m *ResourceMonitor) GetTrend() ResourceTrend {
	return trendOf(m.GetHistory())
}

func trendOf(history []ResourceSnapshot) ResourceTrend {
	if len(history) < 2 {
		return ResourceTrend{IsHealthy: true}
	}

	first := history[0]
	last := history[len(history)-1]
	duration := last.Timestamp.Sub(first.Timestamp).Hours()

	if duration < 0.01 { // Less than 36 seconds
		return ResourceTrend{IsHealthy: true}
	}

	trend := ResourceTrend{
		FDGrowthRate:        float64(last.OpenFDs-first.OpenFDs) / duration,
		GoroutineGrowthRate: float64(last.Goroutines-first.Goroutines) / duration,
		MemoryGrowthRate:    (last.HeapAllocMB - first.HeapAllocMB) / duration,
		IsHealthy:           true,
	}

	if trend.FDGrowthRate > 10 {
		trend.IsHealthy = false
		trend.Warnings = append(trend.Warnings,
			fmt.Sprintf("FD count growing at %.1f/hour (potential leak)", trend.FDGrowthRate))
	}
	if trend.GoroutineGrowthRate > 100 {
		trend.IsHealthy = false
		trend.Warnings = append(trend.Warnings,
			fmt.Sprintf("Goroutine count growing at %.1f/hour (potential leak)", trend.GoroutineGrowthRate))
	}
	if trend.MemoryGrowthRate > 100 {
		trend.IsHealthy = false
		trend.Warnings = append(trend.Warnings,
			fmt.Sprintf("Memory growing at %.1f MB/hour", trend.MemoryGrowthRate))
	}

	return trend
}

// CheckHealth returns warnings for the latest snapshot.
func (m *ResourceMonitor) CheckHealth() []HealthWarning {
	snapshot, ok := m.GetLatest()
	if !ok {
		snapshot = m.TakeSnapshot()
	}
	return m.thresholds.check(snapshot)
}

func (t Thresholds) check(snapshot ResourceSnapshot) []HealthWarning {
	var warnings []HealthWarning

	if t.FDPercent > 0 && snapshot.FDUsagePercent > float64(t.FDPercent) {
		level := "warning"
		if snapshot.FDUsagePercent > 90 {
			level = "critical"
		}
		warnings = append(warnings, HealthWarning{
			Level: level,
			Type:  "fd",
			Message: fmt.Sprintf("FD usage at %.1f%% (threshold: %d%%)",
				snapshot.FDUsagePercent, t.FDPercent),
			Value: snapshot.FDUsagePercent,
			Limit: float64(t.FDPercent),
		})
	}

	if t.Goroutines > 0 && snapshot.Goroutines > t.Goroutines {
		level := "warning"
		if snapshot.Goroutines > t.Goroutines*2 {
			level = "critical"
		}
		warnings = append(warnings, HealthWarning{
			Level: level,
			Type:  "goroutine",
			Message: fmt.Sprintf("Goroutine count at %d (threshold: %d)",
				snapshot.Goroutines, t.Goroutines),
			Value: float64(snapshot.Goroutines),
			Limit: float64(t.Goroutines),
		})
	}

	if t.MemoryMB > 0 && snapshot.HeapAllocMB > float64(t.MemoryMB) {
		level := "warning"
		if snapshot.HeapAllocMB > float64(t.MemoryMB)*1.5 {
			level = "critical"
		}
		warnings = append(warnings, HealthWarning{
			Level: level,
			Type:  "memory",
			Message: fmt.Sprintf("Heap usage at %.1f MB (threshold: %d MB)",
				snapshot.HeapAllocMB, t.MemoryMB),
			Value: snapshot.HeapAllocMB,
			Limit: float64(t.MemoryMB),
		})
	}

	return warnings
}

// Uptime returns the process uptime.
func (m *ResourceMonitor) Uptime() time.Duration {
	return time.Since(m.started)
}

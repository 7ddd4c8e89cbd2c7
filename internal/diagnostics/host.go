package diagnostics

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSnapshot holds host-wide resource usage.
type HostSnapshot struct {
	CPUModel   string  `json:"cpu_model"`
	CPUThreads int     `json:"cpu_threads"`
	CPUPercent float64 `json:"cpu_percent"`

	// Memory (in MB)
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	// Disk (in GB), for the filesystem holding DiskPath
	DiskPath    string  `json:"disk_path"`
	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskPercent float64 `json:"disk_percent"`

	// Load Average (Unix)
	LoadAvg1  float64 `json:"load_avg_1"`
	LoadAvg5  float64 `json:"load_avg_5"`
	LoadAvg15 float64 `json:"load_avg_15"`
}

// LogAttrs returns the snapshot as slog key/value pairs.
func (s HostSnapshot) LogAttrs() []any {
	return []any{
		"host_cpu_percent", round1(s.CPUPercent),
		"host_mem_percent", round1(s.MemPercent),
		"host_disk_percent", round1(s.DiskPercent),
		"host_load_1", round1(s.LoadAvg1),
		"host_load_5", round1(s.LoadAvg5),
	}
}

// HostCollector collects host statistics. CPU usage is measured between
// consecutive calls; the first call reports usage since boot.
type HostCollector struct {
	mu           sync.Mutex
	diskPath     string
	lastCPUTotal float64
	lastCPUIdle  float64

	infoCollected bool
	cpuModel      string
	cpuThreads    int
}

// NewHostCollector creates a collector reporting disk usage for diskPath,
// or for the root filesystem when diskPath is empty.
func NewHostCollector(diskPath string) *HostCollector {
	if diskPath == "" {
		diskPath = rootDiskPath()
	}
	return &HostCollector{diskPath: diskPath}
}

// Collect gathers current host statistics. Unavailable values stay zero.
func (c *HostCollector) Collect() HostSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := HostSnapshot{DiskPath: c.diskPath}
	c.collectHardwareInfo(&stats)
	c.collectMemoryInfo(&stats)
	c.collectCPUInfo(&stats)
	c.collectDiskInfo(&stats)
	c.collectLoadAvg(&stats)
	return stats
}

func (c *HostCollector) collectMemoryInfo(stats *HostSnapshot) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	stats.MemTotalMB = float64(vm.Total) / 1024 / 1024
	stats.MemUsedMB = float64(vm.Used) / 1024 / 1024
	stats.MemPercent = vm.UsedPercent
}

func (c *HostCollector) collectCPUInfo(stats *HostSnapshot) {
	times, err := cpu.Times(false)
	if err != nil || len(times) == 0 {
		return
	}

	t := times[0]
	total := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
	idleTime := t.Idle + t.Iowait

	totalDelta := total - c.lastCPUTotal
	idleDelta := idleTime - c.lastCPUIdle
	if totalDelta > 0 {
		stats.CPUPercent = (1 - idleDelta/totalDelta) * 100
	}

	c.lastCPUTotal = total
	c.lastCPUIdle = idleTime
}

func (c *HostCollector) collectDiskInfo(stats *HostSnapshot) {
	usage, err := disk.Usage(c.diskPath)
	if err != nil {
		return
	}
	stats.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
	stats.DiskPercent = usage.UsedPercent
}

func (c *HostCollector) collectLoadAvg(stats *HostSnapshot) {
	avg, err := load.Avg()
	if err != nil {
		return
	}
	stats.LoadAvg1 = avg.Load1
	stats.LoadAvg5 = avg.Load5
	stats.LoadAvg15 = avg.Load15
}

func (c *HostCollector) collectHardwareInfo(stats *HostSnapshot) {
	if !c.infoCollected {
		if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
			c.cpuModel = strings.TrimSpace(infos[0].ModelName)
		}
		if threads, err := cpu.Counts(true); err == nil && threads > 0 {
			c.cpuThreads = threads
		}
		c.infoCollected = true
	}
	stats.CPUModel = c.cpuModel
	stats.CPUThreads = c.cpuThreads
}

func rootDiskPath() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + "\\"
	}
	return "/"
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

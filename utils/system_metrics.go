package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// SystemStats is reported by the health endpoint.
type SystemStats struct {
	HostCPUPercent    float64 `json:"host_cpu_percent"`
	ProcessCPUPercent float64 `json:"process_cpu_percent"`
	ProcessRSSBytes   uint64  `json:"process_rss_bytes"`
}

// GetCPUUsage returns the host CPU usage sampled over the given window
func GetCPUUsage(window time.Duration) float64 {
	percentage, err := cpu.Percent(window, false)
	if err != nil {
		log.Debug().Err(err).Msg("reading host cpu usage")
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

// GetSystemStats collects host and process figures. Failures leave fields at zero.
func GetSystemStats(window time.Duration) SystemStats {
	stats := SystemStats{HostCPUPercent: GetCPUUsage(window)}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug().Err(err).Msg("opening own process")
		return stats
	}
	if pct, err := proc.CPUPercent(); err == nil {
		stats.ProcessCPUPercent = pct
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		stats.ProcessRSSBytes = mem.RSS
	}
	return stats
}

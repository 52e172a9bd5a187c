package metrics

import (
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemInfo struct {
	ChipName     string `json:"chip_name"`
	CoreCount    int    `json:"core_count"`
	GPUCoreCount int    `json:"gpu_core_count"`
}

var (
	sysInfoOnce   sync.Once
	sysInfoCached SystemInfo
)

// GetSystemInfo reads static hardware identity once per process: the
// chip never changes while we run.
func GetSystemInfo() SystemInfo {
	sysInfoOnce.Do(func() {
		sysInfoCached = readSystemInfo()
	})
	return sysInfoCached
}

func readSystemInfo() SystemInfo {
	var info SystemInfo
	if out, err := exec.Command("sysctl", "machdep.cpu").Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.Contains(line, "machdep.cpu.brand_string") {
				if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
					info.ChipName = strings.TrimSpace(parts[1])
				}
			}
			if strings.Contains(line, "machdep.cpu.core_count") {
				if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
					info.CoreCount, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
				}
			}
		}
	}
	if out, err := exec.Command("system_profiler", "-detailLevel", "basic", "SPDisplaysDataType").Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.Contains(line, "Total Number of Cores") {
				if parts := strings.Split(line, ": "); len(parts) > 1 {
					info.GPUCoreCount, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
				}
				break
			}
		}
	}
	return info
}

// GetUptime returns how long the machine has been up.
func GetUptime() time.Duration {
	seconds, err := host.Uptime()
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// GetLoadAverages returns the 1/5/15 minute load averages, or zeros
// when the kernel refuses.
func GetLoadAverages() (float64, float64, float64) {
	avg, err := load.Avg()
	if err != nil {
		return 0, 0, 0
	}
	return avg.Load1, avg.Load5, avg.Load15
}

// GetSwapStats reads swap usage. macOS grows swap on demand, so a zero
// total just means nothing has been swapped yet.
func GetSwapStats() SwapStats {
	swap, err := mem.SwapMemory()
	if err != nil {
		return SwapStats{}
	}
	return SwapStats{
		Total:   swap.Total,
		Used:    swap.Used,
		Percent: swap.UsedPercent,
	}
}

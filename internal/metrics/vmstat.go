package metrics

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"
)

var (
	vmStatPageSizeRegex = regexp.MustCompile(`page size of (\d+) bytes`)
	vmStatLineRegex     = regexp.MustCompile(`^(.+?):\s+([\d,]+)\.`)
)

// parseVMStat extracts the page size and the per-counter page counts
// from vm_stat output. Counter names keep vm_stat's own labels, e.g.
// "Pages free" and "File-backed pages".
func parseVMStat(output string) (pageSize uint64, stats map[string]uint64) {
	pageSize = 4096
	stats = make(map[string]uint64)
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "page size of") {
			if m := vmStatPageSizeRegex.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseUint(m[1], 10, 64); err == nil {
					pageSize = v
				}
			}
			continue
		}
		m := vmStatLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value, err := strconv.ParseUint(strings.ReplaceAll(m[2], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		stats[strings.TrimSpace(m[1])] = value
	}
	return pageSize, stats
}

// memoryFromVMStat derives used/available the way Activity Monitor
// does: available is file-backed + free + speculative pages, used is
// whatever remains of the total.
func memoryFromVMStat(total, pageSize uint64, stats map[string]uint64) MemoryStats {
	available := (stats["File-backed pages"] + stats["Pages free"] + stats["Pages speculative"]) * pageSize
	if available > total {
		available = total
	}
	used := total - available
	percent := 0.0
	if total > 0 {
		percent = float64(used) / float64(total) * 100.0
	}
	return MemoryStats{
		Total:     total,
		Used:      used,
		Available: available,
		Percent:   percent,
	}
}

// GetMemoryStats reads current memory pressure, preferring vm_stat and
// falling back to gopsutil's accounting when vm_stat is unavailable.
func GetMemoryStats() (MemoryStats, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, fmt.Errorf("failed to read virtual memory: %w", err)
	}

	out, err := exec.Command("/usr/bin/vm_stat").Output()
	if err == nil {
		pageSize, stats := parseVMStat(string(out))
		if len(stats) > 0 {
			return memoryFromVMStat(vm.Total, pageSize, stats), nil
		}
	}

	used := vm.Total - vm.Available
	percent := vm.UsedPercent
	if vm.Total > 0 {
		percent = float64(used) / float64(vm.Total) * 100.0
	}
	return MemoryStats{
		Total:     vm.Total,
		Used:      used,
		Available: vm.Available,
		Percent:   percent,
	}, nil
}

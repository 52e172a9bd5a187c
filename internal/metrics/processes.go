package metrics

import (
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ListProcesses snapshots per-process CPU and memory via ps.
func ListProcesses() ([]ProcessUsage, error) {
	// -c keeps just the executable name; comm goes last so names with
	// spaces ("Google Chrome") survive field splitting.
	cmd := exec.Command("ps", "-c", "-Ao", "pid,%cpu,rss,comm")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parsePSOutput(string(output)), nil
}

func parsePSOutput(output string) []ProcessUsage {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	var processes []ProcessUsage
	now := time.Now()
	for _, line := range lines {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		cpu, _ := strconv.ParseFloat(fields[1], 64)
		rssKB, _ := strconv.ParseUint(fields[2], 10, 64)
		name := strings.Join(fields[3:], " ")
		processes = append(processes, ProcessUsage{
			PID:     pid,
			Name:    name,
			CPU:     cpu,
			RSS:     rssKB * 1024,
			Updated: now,
		})
	}
	return processes
}

// TopCPUProcesses returns the heaviest CPU consumers, largest first.
func TopCPUProcesses(processes []ProcessUsage, limit int) []ProcessUsage {
	sorted := make([]ProcessUsage, len(processes))
	copy(sorted, processes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CPU > sorted[j].CPU
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// TopRAMProcesses returns the largest resident-memory consumers.
func TopRAMProcesses(processes []ProcessUsage, limit int) []ProcessUsage {
	sorted := make([]ProcessUsage, len(processes))
	copy(sorted, processes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RSS > sorted[j].RSS
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

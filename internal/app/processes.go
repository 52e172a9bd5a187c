package app

import (
	"fmt"

	"github.com/context-labs/macbar/internal/metrics"
)

const processListLimit = 10

func formatProcessCPURow(p metrics.ProcessUsage) string {
	return fmt.Sprintf("%5.1f%%  %s", p.CPU, p.Name)
}

func formatProcessRAMRow(p metrics.ProcessUsage) string {
	return fmt.Sprintf("%9s  %s", metrics.FormatBytes(float64(p.RSS)), p.Name)
}

func updateProcessLists(processes []metrics.ProcessUsage) {
	topCPU := metrics.TopCPUProcesses(processes, processListLimit)
	rows := make([]string, 0, len(topCPU))
	for _, p := range topCPU {
		rows = append(rows, formatProcessCPURow(p))
	}
	cpuProcessList.Rows = rows

	topRAM := metrics.TopRAMProcesses(processes, processListLimit)
	rows = make([]string, 0, len(topRAM))
	for _, p := range topRAM {
		rows = append(rows, formatProcessRAMRow(p))
	}
	ramProcessList.Rows = rows
}

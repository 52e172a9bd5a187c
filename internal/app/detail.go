package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/context-labs/macbar/internal/metrics"
	"github.com/context-labs/macbar/internal/smart"
)

// slowStats covers everything too expensive to poll on the sample
// interval: SMART health, powermetrics output, battery and uptime.
type slowStats struct {
	Health    smart.HealthInfo
	DiskUsage smart.DiskUsage
	HasUsage  bool
	Battery   metrics.BatteryStatus
	Thermal   metrics.ThermalStats
	Fan       metrics.FanStatus
	Power     metrics.PowerStats
	GPUPower  metrics.GPUPowerStats
	Swap      metrics.SwapStats
	Load1     float64
	Load5     float64
	Load15    float64
	Uptime    time.Duration
}

func collectSlowStats() slowStats {
	stats := slowStats{
		Health:   smart.GetDiskHealth(),
		Battery:  metrics.GetBatteryStatus(),
		Thermal:  metrics.GetThermalStats(),
		Fan:      metrics.GetFanStatus(),
		Power:    metrics.GetPowerStats(),
		GPUPower: metrics.GetGPUPowerStats(),
		Swap:     metrics.GetSwapStats(),
		Uptime:   metrics.GetUptime(),
	}
	stats.Load1, stats.Load5, stats.Load15 = metrics.GetLoadAverages()
	if usage, err := smart.GetRootDiskUsage(); err == nil {
		stats.DiskUsage = usage
		stats.HasUsage = true
	}
	return stats
}

func renderDetailText(stats slowStats) string {
	var b strings.Builder

	if stats.Health.VolumeName != "" {
		fmt.Fprintf(&b, "Volume: %s\n", stats.Health.VolumeName)
	}
	if stats.HasUsage {
		fmt.Fprintf(&b, "Disk: %s free of %s (%.0f%% used)\n",
			metrics.FormatBytes(float64(stats.DiskUsage.Free)),
			metrics.FormatBytes(float64(stats.DiskUsage.Total)),
			stats.DiskUsage.UsedPercent)
	}
	if stats.Health.Health != "" {
		fmt.Fprintf(&b, "SSD Health: %s\n", stats.Health.Health)
	}
	if stats.Health.Temperature != "" {
		fmt.Fprintf(&b, "SSD Temp: %s\n", stats.Health.Temperature)
	}
	if stats.Health.TotalRead != "" {
		fmt.Fprintf(&b, "Total Read: %s  Written: %s\n", stats.Health.TotalRead, stats.Health.TotalWritten)
	}
	if stats.Health.PowerOnHours != "" {
		fmt.Fprintf(&b, "Power On: %sh  Cycles: %s\n", stats.Health.PowerOnHours, stats.Health.PowerCycles)
	}
	if stats.Thermal.CPUTempC != nil {
		fmt.Fprintf(&b, "CPU Temp: %.0f°C", *stats.Thermal.CPUTempC)
		if stats.Thermal.GPUTempC != nil {
			fmt.Fprintf(&b, "  GPU Temp: %.0f°C", *stats.Thermal.GPUTempC)
		}
		b.WriteString("\n")
	}
	if cpuWatts, gpuWatts := powerReadings(stats); cpuWatts != nil || gpuWatts != nil {
		var parts []string
		if cpuWatts != nil {
			parts = append(parts, fmt.Sprintf("CPU Power: %s", metrics.FormatPowerWatts(*cpuWatts)))
		}
		if gpuWatts != nil {
			parts = append(parts, fmt.Sprintf("GPU Power: %s", metrics.FormatPowerWatts(*gpuWatts)))
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteString("\n")
	}
	if stats.GPUPower.FreqMHz != nil {
		fmt.Fprintf(&b, "GPU Freq: %.0f MHz\n", *stats.GPUPower.FreqMHz)
	}
	if stats.Fan.RPM != nil {
		fmt.Fprintf(&b, "Fan: %.0f rpm", *stats.Fan.RPM)
		if stats.Fan.Percent != nil {
			fmt.Fprintf(&b, " (%.0f%%)", *stats.Fan.Percent)
		}
		b.WriteString("\n")
	}
	if stats.Swap.Used > 0 {
		fmt.Fprintf(&b, "Swap: %s of %s\n",
			metrics.FormatBytes(float64(stats.Swap.Used)),
			metrics.FormatBytes(float64(stats.Swap.Total)))
	}
	if stats.Load1 > 0 {
		fmt.Fprintf(&b, "Load: %.2f %.2f %.2f\n", stats.Load1, stats.Load5, stats.Load15)
	}
	if stats.Battery.Percent != nil {
		fmt.Fprintf(&b, "Battery: %.0f%%", *stats.Battery.Percent)
		if stats.Battery.State != "" {
			fmt.Fprintf(&b, " (%s)", stats.Battery.State)
		}
		b.WriteString("\n")
	}
	if stats.Uptime > 0 {
		fmt.Fprintf(&b, "Uptime: %s\n", metrics.FormatUptime(uint64(stats.Uptime.Seconds())))
	}
	if stats.Health.Err != "" {
		fmt.Fprintf(&b, "SMART: %s\n", stats.Health.Err)
	}

	if b.Len() == 0 {
		return "Collecting system details..."
	}
	return strings.TrimRight(b.String(), "\n")
}

// powerReadings merges the cpu_power/gpu_power watt lines with the
// gpu_power sampler's milliwatt counter, which some machines report
// when the combined line is absent.
func powerReadings(stats slowStats) (cpuWatts, gpuWatts *float64) {
	cpuWatts = stats.Power.CPUWatts
	gpuWatts = stats.Power.GPUWatts
	if gpuWatts == nil && stats.GPUPower.PowerMW != nil {
		w := *stats.GPUPower.PowerMW / 1000.0
		gpuWatts = &w
	}
	return cpuWatts, gpuWatts
}

func updateDetailText(stats slowStats) {
	detailText.Text = renderDetailText(stats)
	if stats.HasUsage {
		diskGauge.Percent = int(stats.DiskUsage.UsedPercent)
		diskUsedGauge.Set(stats.DiskUsage.UsedPercent)
	}
	if stats.Battery.Percent != nil {
		batteryGauge.Set(*stats.Battery.Percent)
	}
	if stats.Thermal.CPUTempC != nil {
		tempGauge.WithLabelValues("cpu").Set(*stats.Thermal.CPUTempC)
	}
	if stats.Thermal.GPUTempC != nil {
		tempGauge.WithLabelValues("gpu").Set(*stats.Thermal.GPUTempC)
	}
	if stats.Fan.RPM != nil {
		fanRPMGauge.Set(*stats.Fan.RPM)
	}
	swapUsedGauge.Set(float64(stats.Swap.Used))
	smartHealthyGauge.Set(smartHealthValue(stats.Health))
	if cpuWatts, gpuWatts := powerReadings(stats); cpuWatts != nil || gpuWatts != nil {
		if cpuWatts != nil {
			powerGauge.WithLabelValues("cpu").Set(*cpuWatts)
		}
		if gpuWatts != nil {
			powerGauge.WithLabelValues("gpu").Set(*gpuWatts)
		}
	}
	if stats.GPUPower.FreqMHz != nil {
		gpuFreqGauge.Set(*stats.GPUPower.FreqMHz)
	}
}

// smartHealthValue reduces the health report to a binary exporter
// signal. Unreadable SMART counts as 0 so alerts fire either way.
func smartHealthValue(health smart.HealthInfo) float64 {
	if health.Err != "" {
		return 0
	}
	switch health.Health {
	case "", "ERR", "FAIL", "Not Supported":
		return 0
	}
	return 1
}

package app

import (
	"fmt"
	"strings"

	"github.com/context-labs/macbar/internal/config"
	"github.com/context-labs/macbar/internal/metrics"
	"github.com/context-labs/macbar/internal/smart"
)

// diskPercentFunc is swapped out in tests to avoid shelling out.
var diskPercentFunc = func() (float64, bool) {
	usage, err := smart.GetRootDiskUsage()
	if err != nil {
		return 0, false
	}
	return usage.UsedPercent, true
}

// renderStatusLine builds the one-line metric readout. Hidden metrics
// are skipped entirely rather than shown as blanks.
func renderStatusLine(sample metrics.Sample, cfg *config.Config) string {
	var parts []string

	if cfg.Visible("cpu") {
		parts = append(parts, fmt.Sprintf("CPU %.0f%%", sample.CPUPercent))
	}
	if cfg.Visible("gpu") {
		gpu := sample.GPUDevicePercent
		if gpu == nil {
			gpu = sample.GPURenderPercent
		}
		if gpu != nil {
			parts = append(parts, fmt.Sprintf("GPU %.0f%%", *gpu))
		} else {
			parts = append(parts, "GPU N/A")
		}
	}
	if cfg.Visible("ram") {
		parts = append(parts, fmt.Sprintf("RAM %.0f%%", sample.RAMPercent))
	}
	if cfg.Visible("disk") {
		if percent, ok := diskPercentFunc(); ok {
			parts = append(parts, fmt.Sprintf("SSD %.0f%%", percent))
		} else {
			parts = append(parts, fmt.Sprintf("SSD %s/%s",
				metrics.FormatRateShort(sample.DiskReadBPS),
				metrics.FormatRateShort(sample.DiskWriteBPS)))
		}
	}
	if cfg.Visible("net") {
		parts = append(parts, fmt.Sprintf("↑%s ↓%s",
			metrics.FormatRateShort(sample.NetUpBPS),
			metrics.FormatRateShort(sample.NetDownBPS)))
	}

	return strings.Join(parts, "  |  ")
}

func updateStatusLine(sample metrics.Sample) {
	statusLine.Text = renderStatusLine(sample, currentConfig)
}

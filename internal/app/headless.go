package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/context-labs/macbar/internal/metrics"
	"github.com/context-labs/macbar/internal/smart"
)

func runHeadless(count int) {
	if prometheusPort != "" {
		startPrometheusServer(prometheusPort)
	}

	ticker := time.NewTicker(time.Duration(updateInterval) * time.Millisecond)
	defer ticker.Stop()

	type HeadlessOutput struct {
		Timestamp  string                 `json:"timestamp"`
		StatusLine string                 `json:"status_line"`
		Sample     metrics.Sample         `json:"sample"`
		Battery    *metrics.BatteryStatus `json:"battery,omitempty"`
		DiskHealth *smart.HealthInfo      `json:"disk_health,omitempty"`
		UptimeSecs uint64                 `json:"uptime_seconds"`
	}

	encoder := json.NewEncoder(os.Stdout)

	samplesCollected := 0
	for range ticker.C {
		sample, err := collector.Sample()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sampling metrics: %v\n", err)
			continue
		}
		updatePrometheusMetrics(sample)

		output := HeadlessOutput{
			Timestamp:  time.Now().Format(time.RFC3339),
			StatusLine: renderStatusLine(sample, currentConfig),
			Sample:     sample,
			UptimeSecs: uint64(metrics.GetUptime().Seconds()),
		}
		battery := metrics.GetBatteryStatus()
		if battery.Percent != nil || battery.State != "" {
			output.Battery = &battery
		}
		health := smart.GetDiskHealth()
		if health.Health != "" || health.Err != "" {
			output.DiskHealth = &health
		}

		if err := encoder.Encode(output); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		}

		samplesCollected++
		if count > 0 && samplesCollected >= count {
			return
		}
	}
}

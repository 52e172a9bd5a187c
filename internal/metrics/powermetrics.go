package metrics

import (
	"context"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const powermetricsPath = "/usr/bin/powermetrics"

type powermetricsEntry struct {
	ts   time.Time
	text string
}

var (
	powermetricsMutex sync.Mutex
	powermetricsCache = make(map[string]powermetricsEntry)
)

func runPowermetrics(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n" + stderr.String()
	}
	return output, err
}

// readPowermetrics runs one powermetrics sample for the given sampler
// set and caches the text for ttl. It tries passwordless sudo first,
// since several samplers report nothing for unprivileged callers, and
// falls back to a plain invocation.
func readPowermetrics(samplers string, ttl time.Duration) string {
	now := time.Now()
	powermetricsMutex.Lock()
	if entry, ok := powermetricsCache[samplers]; ok && now.Sub(entry.ts) < ttl {
		powermetricsMutex.Unlock()
		return entry.text
	}
	powermetricsMutex.Unlock()

	text := ""
	if _, err := os.Stat(powermetricsPath); err == nil {
		sampleArgs := []string{"--samplers", samplers, "-n", "1", "-i", "1000"}
		// Each attempt gets its own budget so a slow sudo run cannot
		// starve the unprivileged fallback into a cached empty result.
		run := func(argv ...string) (string, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
			defer cancel()
			return runPowermetrics(ctx, argv...)
		}
		output, err := run(append([]string{"sudo", "-n", powermetricsPath}, sampleArgs...)...)
		if err != nil || strings.TrimSpace(output) == "" {
			output, err = run(append([]string{powermetricsPath}, sampleArgs...)...)
		}
		if err == nil {
			text = output
		}
	}

	powermetricsMutex.Lock()
	powermetricsCache[samplers] = powermetricsEntry{ts: now, text: text}
	powermetricsMutex.Unlock()
	return text
}

// CanRunPowermetrics reports whether passwordless sudo access to
// powermetrics has been configured.
func CanRunPowermetrics() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "sudo", "-n", powermetricsPath,
		"--samplers", "gpu_power", "-n", "1", "-i", "1000")
	return cmd.Run() == nil
}

var (
	fanLineRegex    = regexp.MustCompile(`(?i)fan`)
	fanRPMRegex     = regexp.MustCompile(`(?i)([0-9.]+)\s*rpm`)
	fanMaxRPMRegex  = regexp.MustCompile(`(?i)max[^0-9]*([0-9.]+)\s*rpm`)
	tempValueRegex  = regexp.MustCompile(`([0-9.]+)\s*(?:°?C|c)`)
	powerValueRegex = regexp.MustCompile(`(?i)([0-9.]+)\s*(mW|W)`)
	powerWordRegex  = regexp.MustCompile(`(?i)power`)
)

func parseFanStatus(output string) FanStatus {
	var status FanStatus
	for _, line := range strings.Split(output, "\n") {
		if !fanLineRegex.MatchString(line) {
			continue
		}
		if status.RPM == nil {
			if m := fanRPMRegex.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					status.RPM = &v
				}
			}
		}
		if status.Percent == nil {
			if m := fanMaxRPMRegex.FindStringSubmatch(line); m != nil {
				if maxRPM, err := strconv.ParseFloat(m[1], 64); err == nil && maxRPM > 0 && status.RPM != nil {
					pct := *status.RPM / maxRPM * 100.0
					if pct < 0 {
						pct = 0
					}
					if pct > 100 {
						pct = 100
					}
					status.Percent = &pct
				}
			}
		}
	}
	return status
}

// GetFanStatus reads fan speed from the smc sampler. Fanless machines
// return an empty status.
func GetFanStatus() FanStatus {
	return parseFanStatus(readPowermetrics("smc", time.Second))
}

func findTemp(output string, patterns []string) *float64 {
	for _, line := range strings.Split(output, "\n") {
		for _, pattern := range patterns {
			if !strings.Contains(strings.ToLower(line), strings.ToLower(pattern)) {
				continue
			}
			if m := tempValueRegex.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					return &v
				}
			}
		}
	}
	return nil
}

func parseThermalStats(output string) ThermalStats {
	return ThermalStats{
		CPUTempC: findTemp(output, []string{"CPU die temperature", "CPU temperature", "CPU Temp"}),
		GPUTempC: findTemp(output, []string{"GPU die temperature", "GPU temperature", "GPU Temp"}),
	}
}

func GetThermalStats() ThermalStats {
	return parseThermalStats(readPowermetrics("smc", time.Second))
}

func findPower(output, label string) *float64 {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(strings.ToLower(line), strings.ToLower(label)) {
			continue
		}
		if !powerWordRegex.MatchString(line) {
			continue
		}
		m := powerValueRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if strings.EqualFold(m[2], "mW") {
			value /= 1000.0
		}
		return &value
	}
	return nil
}

func parsePowerStats(output string) PowerStats {
	return PowerStats{
		CPUWatts: findPower(output, "CPU"),
		GPUWatts: findPower(output, "GPU"),
	}
}

func GetPowerStats() PowerStats {
	return parsePowerStats(readPowermetrics("cpu_power,gpu_power", time.Second))
}

var (
	gpuActiveResidencyRegex = regexp.MustCompile(`(?i)gpu.*active\s*residency`)
	gpuIdleResidencyRegex   = regexp.MustCompile(`(?i)gpu.*idle\s*residency`)
	gpuActiveFreqRegex      = regexp.MustCompile(`(?i)gpu.*active\s*frequency`)
	gpuPowerLineRegex       = regexp.MustCompile(`(?i)gpu.*power`)
	percentRegex            = regexp.MustCompile(`([0-9.]+)\s*%`)
	mhzRegex                = regexp.MustCompile(`(?i)([0-9.]+)\s*MHz`)
)

// parseGPUPower extracts GPU activity from the gpu_power sampler. When
// active residency is missing, idle residency is inverted instead.
func parseGPUPower(output string) GPUPowerStats {
	var stats GPUPowerStats
	lines := strings.Split(output, "\n")

	for _, line := range lines {
		if !gpuActiveResidencyRegex.MatchString(line) {
			continue
		}
		if m := percentRegex.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				stats.ActivePercent = &v
				break
			}
		}
	}
	if stats.ActivePercent == nil {
		for _, line := range lines {
			if !gpuIdleResidencyRegex.MatchString(line) {
				continue
			}
			if m := percentRegex.FindStringSubmatch(line); m != nil {
				if idle, err := strconv.ParseFloat(m[1], 64); err == nil {
					active := 100.0 - idle
					if active < 0 {
						active = 0
					}
					if active > 100 {
						active = 100
					}
					stats.ActivePercent = &active
					break
				}
			}
		}
	}
	for _, line := range lines {
		if !gpuActiveFreqRegex.MatchString(line) {
			continue
		}
		if m := mhzRegex.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				stats.FreqMHz = &v
				break
			}
		}
	}
	for _, line := range lines {
		if !gpuPowerLineRegex.MatchString(line) {
			continue
		}
		m := powerValueRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if strings.EqualFold(m[2], "W") {
			value *= 1000.0
		}
		stats.PowerMW = &value
		break
	}
	return stats
}

// GetGPUPowerStats is the powermetrics fallback for machines where the
// IORegistry publishes no accelerator counters.
func GetGPUPowerStats() GPUPowerStats {
	return parseGPUPower(readPowermetrics("gpu_power", time.Second))
}

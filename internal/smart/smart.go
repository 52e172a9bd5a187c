package smart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/context-labs/macbar/internal/metrics"
)

// ErrSmartctlNotFound means smartmontools is not installed; --setup
// can fix that.
var ErrSmartctlNotFound = errors.New("smartctl not found")

// HealthInfo is the drive health summary shown on the disk panel.
// String fields stay empty when the underlying attribute is missing.
type HealthInfo struct {
	VolumeName   string `json:"volume_name"`
	Health       string `json:"health"`
	Temperature  string `json:"temperature"`
	TotalRead    string `json:"total_read"`
	TotalWritten string `json:"total_written"`
	PowerCycles  string `json:"power_cycles"`
	PowerOnHours string `json:"power_on_hours"`
	Err          string `json:"error,omitempty"`
}

// nvmeHealthLog mirrors smartctl's NVMe health information log. Data
// units are raw counters of 512,000-byte blocks per the NVMe spec.
type nvmeHealthLog struct {
	DataUnitsRead    *int64 `json:"data_units_read"`
	DataUnitsWritten *int64 `json:"data_units_written"`
	Temperature      *int64 `json:"temperature"`
	PowerCycles      *int64 `json:"power_cycles"`
	PowerOnHours     *int64 `json:"power_on_hours"`
	PercentageUsed   *int64 `json:"percentage_used"`
	AvailableSpare   *int64 `json:"available_spare"`
}

type smartctlReport struct {
	NVMeLog     nvmeHealthLog `json:"nvme_smart_health_information_log"`
	Temperature struct {
		Current *int64 `json:"current"`
	} `json:"temperature"`
	PowerCycleCount *int64 `json:"power_cycle_count"`
	PowerOnTime     struct {
		Hours *int64 `json:"hours"`
	} `json:"power_on_time"`
	EnduranceUsed struct {
		CurrentPercent *int64 `json:"current_percent"`
	} `json:"endurance_used"`
	SpareAvailable struct {
		CurrentPercent *int64 `json:"current_percent"`
	} `json:"spare_available"`
	SmartStatus struct {
		Passed *bool `json:"passed"`
	} `json:"smart_status"`
}

// FindSmartctl locates smartctl, preferring the active Homebrew prefix
// over the fixed install paths.
func FindSmartctl() string {
	if brew := FindBrew(); brew != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if out, err := exec.CommandContext(ctx, brew, "--prefix").Output(); err == nil {
			prefix := strings.TrimSpace(string(out))
			if prefix != "" {
				candidate := filepath.Join(prefix, "sbin", "smartctl")
				if _, err := os.Stat(candidate); err == nil {
					return candidate
				}
			}
		}
	}
	if path, err := exec.LookPath("smartctl"); err == nil {
		return path
	}
	for _, candidate := range []string{
		"/opt/homebrew/sbin/smartctl",
		"/opt/homebrew/bin/smartctl",
		"/usr/local/sbin/smartctl",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// extractJSONBlock recovers the JSON object from smartctl output that
// may carry sudo noise before or after it.
func extractJSONBlock(output string) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return ""
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ""
	}
	block := trimmed[start : end+1]
	if !json.Valid([]byte(block)) {
		return ""
	}
	return block
}

func runSmartctl(smartctlPath, device string, nvme bool) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	args := []string{"-n", smartctlPath, "-a", "-j"}
	if nvme {
		args = append(args, "-d", "nvme")
	}
	args = append(args, device)
	out, err := exec.CommandContext(ctx, "sudo", args...).CombinedOutput()
	return string(out), err
}

// queryDevice runs smartctl against the device, retrying without the
// explicit nvme transport for SATA drives.
func queryDevice(device string) (*smartctlReport, error) {
	smartctlPath := FindSmartctl()
	if smartctlPath == "" {
		return nil, ErrSmartctlNotFound
	}

	var lastErr error
	for _, nvme := range []bool{true, false} {
		output, err := runSmartctl(smartctlPath, device, nvme)
		block := extractJSONBlock(output)
		if block == "" {
			if err != nil {
				lastErr = fmt.Errorf("smartctl failed: %w", err)
			} else {
				lastErr = fmt.Errorf("smartctl output not JSON")
			}
			continue
		}
		var report smartctlReport
		if err := json.Unmarshal([]byte(block), &report); err != nil {
			lastErr = fmt.Errorf("smartctl parse failed: %w", err)
			continue
		}
		return &report, nil
	}
	return nil, lastErr
}

func firstInt(candidates ...*int64) *int64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// healthFromReport maps a smartctl report onto the panel fields.
// Health percent prefers NVMe percentage_used inverted, then available
// spare, then the binary SMART verdict.
func healthFromReport(report *smartctlReport) HealthInfo {
	var info HealthInfo
	log := report.NVMeLog

	if log.DataUnitsRead != nil {
		info.TotalRead = metrics.FormatBytes(float64(*log.DataUnitsRead) * 512000)
	}
	if log.DataUnitsWritten != nil {
		info.TotalWritten = metrics.FormatBytes(float64(*log.DataUnitsWritten) * 512000)
	}
	if temp := firstInt(log.Temperature, report.Temperature.Current); temp != nil {
		info.Temperature = fmt.Sprintf("%d°C", *temp)
	}
	if cycles := firstInt(log.PowerCycles, report.PowerCycleCount); cycles != nil {
		info.PowerCycles = fmt.Sprintf("%d", *cycles)
	}
	if hours := firstInt(log.PowerOnHours, report.PowerOnTime.Hours); hours != nil {
		info.PowerOnHours = fmt.Sprintf("%d", *hours)
	}

	if used := firstInt(log.PercentageUsed, report.EnduranceUsed.CurrentPercent); used != nil {
		health := 100 - *used
		if health < 0 {
			health = 0
		}
		info.Health = fmt.Sprintf("%d%%", health)
	} else if spare := firstInt(log.AvailableSpare, report.SpareAvailable.CurrentPercent); spare != nil {
		info.Health = fmt.Sprintf("%d%%", *spare)
	} else if report.SmartStatus.Passed != nil {
		if *report.SmartStatus.Passed {
			info.Health = "OK"
		} else {
			info.Health = "FAIL"
		}
	}
	return info
}

var (
	healthMutex   sync.Mutex
	healthCached  HealthInfo
	healthCacheTS time.Time
)

// GetDiskHealth reads SMART health for the root disk. smartctl spins
// the drive's admin queue, so results are cached for 60s.
func GetDiskHealth() HealthInfo {
	now := time.Now()
	healthMutex.Lock()
	if !healthCacheTS.IsZero() && now.Sub(healthCacheTS) < 60*time.Second {
		cached := healthCached
		healthMutex.Unlock()
		return cached
	}
	healthMutex.Unlock()

	info := readDiskHealth()

	healthMutex.Lock()
	healthCached = info
	healthCacheTS = now
	healthMutex.Unlock()
	return info
}

func readDiskHealth() HealthInfo {
	var info HealthInfo
	rootInfo, err := diskutilInfoPlist("/")
	if err == nil {
		info.VolumeName = rootInfo.VolumeName
		info.Health = rootInfo.SmartStatus
	}

	report, err := queryDevice(RootDiskDevice())
	if err != nil {
		info.Err = err.Error()
		if info.Health == "" {
			info.Health = "ERR"
		}
		return info
	}

	health := healthFromReport(report)
	health.VolumeName = info.VolumeName
	if health.Health == "" {
		health.Health = info.Health
	}
	return health
}

package metrics

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	batteryMutex   sync.Mutex
	batteryCached  BatteryStatus
	batteryCacheTS time.Time

	batteryPercentRegex = regexp.MustCompile(`(\d+)%`)
)

func parsePmsetBatt(text string) BatteryStatus {
	var status BatteryStatus
	lower := strings.ToLower(text)
	if m := batteryPercentRegex.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			status.Percent = &v
		}
	}
	switch {
	case strings.Contains(lower, "charged"):
		status.State = "Charged"
	case strings.Contains(lower, "discharging"), strings.Contains(lower, "battery power"):
		status.State = "On battery"
	case strings.Contains(lower, "charging"), strings.Contains(lower, "ac power"):
		status.State = "Charging"
	}
	return status
}

// GetBatteryStatus reads battery charge via pmset, cached for 5s since
// battery state moves slowly.
func GetBatteryStatus() BatteryStatus {
	now := time.Now()
	batteryMutex.Lock()
	if !batteryCacheTS.IsZero() && now.Sub(batteryCacheTS) < 5*time.Second {
		cached := batteryCached
		batteryMutex.Unlock()
		return cached
	}
	batteryMutex.Unlock()

	var status BatteryStatus
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "/usr/bin/pmset", "-g", "batt").CombinedOutput()
	if err == nil {
		status = parsePmsetBatt(string(out))
	}

	batteryMutex.Lock()
	batteryCached = status
	batteryCacheTS = now
	batteryMutex.Unlock()
	return status
}

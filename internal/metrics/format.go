package metrics

import "fmt"

// FormatRateShort renders a transfer rate for the status line, where
// horizontal space is scarce. No unit suffix beyond the magnitude.
func FormatRateShort(bytesPerSec float64) string {
	if bytesPerSec >= 1024*1024 {
		return fmt.Sprintf("%.1fMB", bytesPerSec/1024/1024)
	}
	if bytesPerSec >= 1024 {
		return fmt.Sprintf("%.0fKB", bytesPerSec/1024)
	}
	return fmt.Sprintf("%.0fB", bytesPerSec)
}

// FormatRate renders a transfer rate with a /s suffix for panels.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec >= 1024*1024 {
		return fmt.Sprintf("%.2f MB/s", bytesPerSec/1024/1024)
	}
	if bytesPerSec >= 1024 {
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1024)
	}
	return fmt.Sprintf("%.0f B/s", bytesPerSec)
}

// FormatBytes renders an absolute byte count with a binary unit.
func FormatBytes(value float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := value
	for _, unit := range units {
		if size < 1024 {
			if unit == "B" {
				return fmt.Sprintf("%.0f %s", size, unit)
			}
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f PB", size)
}

// FormatPowerWatts renders watts, dropping to mW below 1 W.
func FormatPowerWatts(watts float64) string {
	if watts >= 1.0 {
		return fmt.Sprintf("%.2f W", watts)
	}
	return fmt.Sprintf("%.0f mW", watts*1000.0)
}

func FormatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

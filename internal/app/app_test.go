package app

import (
	"strings"
	"testing"
	"time"

	"github.com/context-labs/macbar/internal/config"
	"github.com/context-labs/macbar/internal/metrics"
	"github.com/context-labs/macbar/internal/smart"
)

func stubDiskPercent(t *testing.T, percent float64, ok bool) {
	t.Helper()
	orig := diskPercentFunc
	diskPercentFunc = func() (float64, bool) { return percent, ok }
	t.Cleanup(func() { diskPercentFunc = orig })
}

func floatPtr(v float64) *float64 { return &v }

func TestRenderStatusLineAllVisible(t *testing.T) {
	stubDiskPercent(t, 48, true)

	sample := metrics.Sample{
		CPUPercent:       12.4,
		GPUDevicePercent: floatPtr(33.6),
		RAMPercent:       56.2,
		NetUpBPS:         12 * 1024,
		NetDownBPS:       1.4 * 1024 * 1024,
	}
	line := renderStatusLine(sample, config.Default())

	for _, want := range []string{"CPU 12%", "GPU 34%", "RAM 56%", "SSD 48%", "↑12KB", "↓1.4MB"} {
		if !strings.Contains(line, want) {
			t.Errorf("Status line missing %q: %s", want, line)
		}
	}
}

func TestRenderStatusLineHiddenMetrics(t *testing.T) {
	stubDiskPercent(t, 48, true)

	cfg := config.Default()
	cfg.Toggle("gpu")
	cfg.Toggle("net")

	line := renderStatusLine(metrics.Sample{CPUPercent: 50}, cfg)

	if strings.Contains(line, "GPU") {
		t.Errorf("Hidden GPU still present: %s", line)
	}
	if strings.Contains(line, "↑") {
		t.Errorf("Hidden net still present: %s", line)
	}
	if !strings.Contains(line, "CPU 50%") {
		t.Errorf("CPU missing: %s", line)
	}
}

func TestRenderStatusLineGPUFallbacks(t *testing.T) {
	stubDiskPercent(t, 48, true)

	sample := metrics.Sample{GPURenderPercent: floatPtr(20)}
	line := renderStatusLine(sample, config.Default())
	if !strings.Contains(line, "GPU 20%") {
		t.Errorf("Render percent should back up device percent: %s", line)
	}

	line = renderStatusLine(metrics.Sample{}, config.Default())
	if !strings.Contains(line, "GPU N/A") {
		t.Errorf("Missing GPU counters should read N/A: %s", line)
	}
}

func TestRenderStatusLineDiskRateFallback(t *testing.T) {
	stubDiskPercent(t, 0, false)

	sample := metrics.Sample{
		DiskReadBPS:  2 * 1024 * 1024,
		DiskWriteBPS: 300 * 1024,
	}
	line := renderStatusLine(sample, config.Default())
	if !strings.Contains(line, "SSD 2.0MB/300KB") {
		t.Errorf("Expected read/write rate fallback: %s", line)
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"In range", 42.7, 42},
		{"Negative", -5, 0},
		{"Above hundred", 150, 100},
		{"Zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampPercent(tt.value); got != tt.want {
				t.Errorf("clampPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    bool
		wantErr bool
	}{
		{"On", "on", true, false},
		{"Off", "off", false, false},
		{"True", "true", true, false},
		{"False", "false", false, false},
		{"Uppercase", "ON", true, false},
		{"Numeric off", "0", false, false},
		{"Garbage", "offf", false, true},
		{"Empty", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOnOff(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseOnOff(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseOnOff(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestClampInterval(t *testing.T) {
	tests := []struct {
		name string
		ms   int
		want int
	}{
		{"Too fast", 50, 100},
		{"Minimum", 100, 100},
		{"Normal", 500, 500},
		{"Too slow", 9000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampInterval(tt.ms); got != tt.want {
				t.Errorf("clampInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPushValue(t *testing.T) {
	values := []float64{1, 2, 3}
	pushValue(values, 4)
	if values[0] != 2 || values[1] != 3 || values[2] != 4 {
		t.Errorf("Expected [2 3 4], got %v", values)
	}
}

func TestRenderDetailText(t *testing.T) {
	stats := slowStats{}
	stats.Health.VolumeName = "Macintosh HD"
	stats.Health.Health = "97%"
	stats.Health.Temperature = "38°C"
	stats.DiskUsage.Total = 1000 * 1024 * 1024 * 1024
	stats.DiskUsage.Free = 400 * 1024 * 1024 * 1024
	stats.DiskUsage.UsedPercent = 60
	stats.HasUsage = true
	stats.Battery.Percent = floatPtr(82)
	stats.Battery.State = "Charging"
	stats.Swap.Used = 2 * 1024 * 1024 * 1024
	stats.Swap.Total = 4 * 1024 * 1024 * 1024
	stats.Load1, stats.Load5, stats.Load15 = 1.52, 1.48, 1.4
	stats.Uptime = 3*24*time.Hour + 2*time.Hour

	text := renderDetailText(stats)

	for _, want := range []string{"Macintosh HD", "97%", "38°C", "60% used", "Battery: 82% (Charging)", "Swap: 2.0 GB of 4.0 GB", "Load: 1.52 1.48 1.40", "3d 2h 0m"} {
		if !strings.Contains(text, want) {
			t.Errorf("Detail text missing %q:\n%s", want, text)
		}
	}
}

func TestRenderDetailTextGPUPowerFallback(t *testing.T) {
	stats := slowStats{}
	stats.Power.CPUWatts = floatPtr(1.25)
	stats.GPUPower.PowerMW = floatPtr(430)
	stats.GPUPower.FreqMHz = floatPtr(712)

	text := renderDetailText(stats)

	for _, want := range []string{"CPU Power: 1.25 W", "GPU Power: 430 mW", "GPU Freq: 712 MHz"} {
		if !strings.Contains(text, want) {
			t.Errorf("Detail text missing %q:\n%s", want, text)
		}
	}
}

func TestPowerReadings(t *testing.T) {
	stats := slowStats{}
	stats.Power.GPUWatts = floatPtr(2.5)
	stats.GPUPower.PowerMW = floatPtr(9000)
	if _, gpu := powerReadings(stats); gpu == nil || *gpu != 2.5 {
		t.Errorf("Combined gpu_power line should win over the milliwatt counter, got %v", gpu)
	}

	stats.Power.GPUWatts = nil
	if _, gpu := powerReadings(stats); gpu == nil || *gpu != 9.0 {
		t.Errorf("Milliwatt counter should convert to 9 W, got %v", gpu)
	}
}

func TestRenderDetailTextEmpty(t *testing.T) {
	text := renderDetailText(slowStats{})
	if text != "Collecting system details..." {
		t.Errorf("Empty stats should show placeholder, got %q", text)
	}
}

func TestFormatProcessRows(t *testing.T) {
	p := metrics.ProcessUsage{PID: 42, Name: "WindowServer", CPU: 12.3, RSS: 512 * 1024 * 1024}
	cpuRow := formatProcessCPURow(p)
	if !strings.Contains(cpuRow, "12.3%") || !strings.Contains(cpuRow, "WindowServer") {
		t.Errorf("Bad CPU row: %q", cpuRow)
	}
	ramRow := formatProcessRAMRow(p)
	if !strings.Contains(ramRow, "512.0 MB") || !strings.Contains(ramRow, "WindowServer") {
		t.Errorf("Bad RAM row: %q", ramRow)
	}
}

func TestBackgroundIsLight(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		want    bool
		wantErr bool
	}{
		{"White background", "\033]11;rgb:ffff/ffff/ffff\a", true, false},
		{"Black background", "\033]11;rgb:0000/0000/0000\a", false, false},
		{"Dark gray", "\033]11;rgb:1e1e/1e1e/1e1e\a", false, false},
		{"Missing rgb", "\033]11;?", false, true},
		{"Truncated", "\033]11;rgb:ffff", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backgroundIsLight(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("backgroundIsLight() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("backgroundIsLight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHexPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Clean hex", "ffff", "ffff"},
		{"Trailing BEL", "ffff\a", "ffff"},
		{"Trailing ST", "1e1e\x1b\\", "1e1e"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hexPrefix(tt.input); got != tt.want {
				t.Errorf("hexPrefix(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEventThrottler(t *testing.T) {
	throttler := NewEventThrottler(50 * time.Millisecond)

	start := time.Now()
	throttler.Notify()
	throttler.Notify()
	throttler.Notify()

	select {
	case <-throttler.C:
		elapsed := time.Since(start)
		if elapsed < 50*time.Millisecond {
			t.Errorf("Throttler fired too early: %v", elapsed)
		}
	case <-time.After(200 * time.Millisecond):
		t.Error("Throttler failed to fire")
	}

	select {
	case <-throttler.C:
		t.Error("Coalesced notifications fired an extra event")
	default:
	}
}

func TestSmartHealthValue(t *testing.T) {
	tests := []struct {
		name   string
		health smart.HealthInfo
		want   float64
	}{
		{"Percent health", smart.HealthInfo{Health: "97%"}, 1},
		{"Verdict pass", smart.HealthInfo{Health: "OK"}, 1},
		{"Verdict fail", smart.HealthInfo{Health: "FAIL"}, 0},
		{"Unreadable", smart.HealthInfo{Health: "ERR", Err: "smartctl not found"}, 0},
		{"Empty report", smart.HealthInfo{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := smartHealthValue(tt.health); got != tt.want {
				t.Errorf("smartHealthValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetThemeColor(t *testing.T) {
	if GetThemeColor("unknown") != colorMap["green"] {
		t.Error("Unknown theme should fall back to green")
	}
	if GetThemeColor("cyan") != colorMap["cyan"] {
		t.Error("Known theme should resolve")
	}
}

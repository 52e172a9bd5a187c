package smart

import (
	"encoding/json"
	"testing"
)

const smartctlFixture = `{
  "json_format_version": [1, 0],
  "smartctl": {"version": [7, 4]},
  "device": {"name": "/dev/disk0", "type": "nvme"},
  "nvme_smart_health_information_log": {
    "critical_warning": 0,
    "temperature": 38,
    "available_spare": 100,
    "available_spare_threshold": 99,
    "percentage_used": 3,
    "data_units_read": 120000000,
    "data_units_written": 95000000,
    "power_cycles": 321,
    "power_on_hours": 1543
  },
  "temperature": {"current": 38},
  "power_cycle_count": 321,
  "power_on_time": {"hours": 1543},
  "smart_status": {"passed": true}
}`

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{"Raw JSON", `{"a": 1}`, true},
		{"Leading sudo noise", "sudo: a password is required\n{\"a\": 1}", true},
		{"Trailing noise", "{\"a\": 1}\nwarning: something", true},
		{"No JSON", "sudo: a password is required", false},
		{"Empty", "", false},
		{"Broken JSON", "{\"a\": ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := extractJSONBlock(tt.input)
			if tt.wantOK && block == "" {
				t.Error("Expected a JSON block, got none")
			}
			if !tt.wantOK && block != "" {
				t.Errorf("Expected no block, got %q", block)
			}
		})
	}
}

func TestHealthFromReport(t *testing.T) {
	var report smartctlReport
	if err := json.Unmarshal([]byte(smartctlFixture), &report); err != nil {
		t.Fatalf("fixture unmarshal failed: %v", err)
	}

	info := healthFromReport(&report)

	if info.Health != "97%" {
		t.Errorf("Expected health 97%%, got %q", info.Health)
	}
	if info.Temperature != "38°C" {
		t.Errorf("Expected 38°C, got %q", info.Temperature)
	}
	if info.PowerCycles != "321" {
		t.Errorf("Expected 321 power cycles, got %q", info.PowerCycles)
	}
	if info.PowerOnHours != "1543" {
		t.Errorf("Expected 1543 hours, got %q", info.PowerOnHours)
	}
	if info.TotalRead == "" || info.TotalWritten == "" {
		t.Error("Expected data unit totals to be formatted")
	}
	// 120000000 units * 512000 bytes = 55.9 TB
	if info.TotalRead != "55.9 TB" {
		t.Errorf("Expected 55.9 TB read, got %q", info.TotalRead)
	}
}

func TestHealthFromReportSpareFallback(t *testing.T) {
	fixture := `{
  "nvme_smart_health_information_log": {"available_spare": 98},
  "smart_status": {"passed": true}
}`
	var report smartctlReport
	if err := json.Unmarshal([]byte(fixture), &report); err != nil {
		t.Fatalf("fixture unmarshal failed: %v", err)
	}
	info := healthFromReport(&report)
	if info.Health != "98%" {
		t.Errorf("Expected spare fallback 98%%, got %q", info.Health)
	}
}

func TestHealthFromReportVerdictFallback(t *testing.T) {
	fixture := `{"smart_status": {"passed": false}}`
	var report smartctlReport
	if err := json.Unmarshal([]byte(fixture), &report); err != nil {
		t.Fatalf("fixture unmarshal failed: %v", err)
	}
	info := healthFromReport(&report)
	if info.Health != "FAIL" {
		t.Errorf("Expected FAIL verdict, got %q", info.Health)
	}
}

func TestWholeDisk(t *testing.T) {
	tests := []struct {
		name string
		dev  string
		want string
	}{
		{"Slice", "disk3s1", "disk3"},
		{"Nested slice", "disk3s1s1", "disk3"},
		{"Whole disk", "disk0", "disk0"},
		{"With dev prefix", "/dev/disk1s2", "disk1"},
		{"Unrecognized", "nvme0n1", "nvme0n1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WholeDisk(tt.dev); got != tt.want {
				t.Errorf("WholeDisk(%q) = %q, want %q", tt.dev, got, tt.want)
			}
		})
	}
}

func TestUsageFromDF(t *testing.T) {
	fixture := `Filesystem   1024-blocks      Used Available Capacity iused      ifree %iused  Mounted on
/dev/disk3s1s1   971350180 450000000 500000000    48%  404755 4293562524    0%   /
`
	usage, ok := usageFromDF(fixture)
	if !ok {
		t.Fatal("Expected df parse to succeed")
	}
	if usage.Total != 971350180*1024 {
		t.Errorf("Expected total %d, got %d", uint64(971350180)*1024, usage.Total)
	}
	if usage.Free != 500000000*1024 {
		t.Errorf("Expected free %d, got %d", uint64(500000000)*1024, usage.Free)
	}
	if usage.UsedPercent <= 0 || usage.UsedPercent >= 100 {
		t.Errorf("Percent out of range: %v", usage.UsedPercent)
	}
}

func TestUsageFromDFGarbage(t *testing.T) {
	if _, ok := usageFromDF("not df output"); ok {
		t.Error("Garbage should not parse")
	}
}

func TestUsageFromInfo(t *testing.T) {
	info := diskutilInfo{
		TotalSize:          1000,
		FreeSpace:          200,
		ContainerFreeSpace: 250,
	}
	usage, ok := usageFromInfo(info)
	if !ok {
		t.Fatal("Expected usage from plist info")
	}
	if usage.Free != 250 {
		t.Errorf("Expected the largest free-space candidate, got %d", usage.Free)
	}
	if usage.UsedPercent != 75.0 {
		t.Errorf("Expected 75%% used, got %v", usage.UsedPercent)
	}
}

func TestUsageFromInfoRejectsNonsense(t *testing.T) {
	if _, ok := usageFromInfo(diskutilInfo{TotalSize: 100, FreeSpace: 500}); ok {
		t.Error("Free larger than total should be rejected")
	}
	if _, ok := usageFromInfo(diskutilInfo{}); ok {
		t.Error("Empty info should be rejected")
	}
}

package metrics

import "time"

// Sample is one snapshot of every live metric the status line and
// charts consume. Rates are bytes per second over the elapsed window
// since the previous sample.
type Sample struct {
	CPUPercent       float64  `json:"cpu_percent"`
	GPUDevicePercent *float64 `json:"gpu_device_percent"`
	GPURenderPercent *float64 `json:"gpu_render_percent"`
	GPUTilerPercent  *float64 `json:"gpu_tiler_percent"`
	RAMPercent       float64  `json:"ram_percent"`
	RAMUsed          uint64   `json:"ram_used"`
	RAMAvailable     uint64   `json:"ram_available"`
	RAMTotal         uint64   `json:"ram_total"`
	DiskReadBPS      float64  `json:"disk_read_bps"`
	DiskWriteBPS     float64  `json:"disk_write_bps"`
	NetUpBPS         float64  `json:"net_up_bps"`
	NetDownBPS       float64  `json:"net_down_bps"`
}

type SwapStats struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Percent float64 `json:"percent"`
}

type MemoryStats struct {
	Total     uint64  `json:"total"`
	Used      uint64  `json:"used"`
	Available uint64  `json:"available"`
	Percent   float64 `json:"percent"`
}

// GPUUtilization holds the IORegistry accelerator counters. Nil fields
// mean the key was absent from the ioreg dump.
type GPUUtilization struct {
	Device *float64
	Render *float64
	Tiler  *float64
}

// GPUPowerStats comes from the powermetrics gpu_power sampler.
type GPUPowerStats struct {
	ActivePercent *float64
	FreqMHz       *float64
	PowerMW       *float64
}

type FanStatus struct {
	RPM     *float64
	Percent *float64
}

type ThermalStats struct {
	CPUTempC *float64
	GPUTempC *float64
}

type PowerStats struct {
	CPUWatts *float64
	GPUWatts *float64
}

type BatteryStatus struct {
	Percent *float64 `json:"percent"`
	State   string   `json:"state"`
}

type ProcessUsage struct {
	PID     int
	Name    string
	CPU     float64
	RSS     uint64
	Updated time.Time
}

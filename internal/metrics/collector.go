package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/net"
)

// Virtual and point-to-point interfaces that never carry the traffic
// a user cares about on the status line.
var noiseIfacePrefixes = []string{"lo", "awdl", "llw", "utun", "bridge", "p2p", "gif", "stf", "ap"}

// Collector turns cumulative kernel counters into per-second rates by
// diffing against the previous poll. A mutex guards the baselines, so
// Sample may be called from any goroutine.
type Collector struct {
	gpu *GPUSampler

	mutex        sync.Mutex
	lastTime     time.Time
	lastDisk     disk.IOCountersStat
	lastNet      map[string]net.IOCountersStat
	netIface     string
	lastMemStats MemoryStats
}

func NewCollector(gpu *GPUSampler) *Collector {
	c := &Collector{gpu: gpu, lastNet: make(map[string]net.IOCountersStat)}
	c.prime()
	return c
}

// prime seeds the counter baselines so the first real sample reports
// rates over a sane window instead of since boot.
func (c *Collector) prime() {
	c.lastTime = time.Now()
	if counters, err := disk.IOCounters(); err == nil {
		c.lastDisk = sumDiskCounters(counters)
	}
	if pernic, err := net.IOCounters(true); err == nil {
		for _, stat := range pernic {
			c.lastNet[stat.Name] = stat
		}
	}
	// First cpu.Percent call establishes the measurement baseline.
	cpu.Percent(0, false)
}

func sumDiskCounters(counters map[string]disk.IOCountersStat) disk.IOCountersStat {
	var total disk.IOCountersStat
	for _, stat := range counters {
		total.ReadBytes += stat.ReadBytes
		total.WriteBytes += stat.WriteBytes
		total.ReadCount += stat.ReadCount
		total.WriteCount += stat.WriteCount
	}
	return total
}

func isNoiseIface(name string) bool {
	for _, prefix := range noiseIfacePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// pickNetIface chooses the interface with the most lifetime traffic,
// skipping loopback and the various Apple virtual interfaces.
func pickNetIface(pernic map[string]net.IOCountersStat) string {
	best := ""
	var bestBytes uint64
	for name, stat := range pernic {
		if isNoiseIface(name) {
			continue
		}
		total := stat.BytesRecv + stat.BytesSent
		if best == "" || total > bestBytes {
			best = name
			bestBytes = total
		}
	}
	return best
}

// Sample polls every subsystem once and returns the snapshot.
func (c *Collector) Sample() (Sample, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastTime).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-6
	}

	var sample Sample

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read CPU usage: %w", err)
	}
	if len(percents) > 0 {
		sample.CPUPercent = percents[0]
	}

	if c.gpu != nil {
		util := c.gpu.Latest()
		sample.GPUDevicePercent = util.Device
		sample.GPURenderPercent = util.Render
		sample.GPUTilerPercent = util.Tiler
	}

	memStats, err := GetMemoryStats()
	if err != nil {
		memStats = c.lastMemStats
	}
	c.lastMemStats = memStats
	sample.RAMTotal = memStats.Total
	sample.RAMUsed = memStats.Used
	sample.RAMAvailable = memStats.Available
	sample.RAMPercent = memStats.Percent

	if counters, err := disk.IOCounters(); err == nil {
		total := sumDiskCounters(counters)
		sample.DiskReadBPS = float64(total.ReadBytes-c.lastDisk.ReadBytes) / elapsed
		sample.DiskWriteBPS = float64(total.WriteBytes-c.lastDisk.WriteBytes) / elapsed
		c.lastDisk = total
	}

	if pernic, err := net.IOCounters(true); err == nil {
		current := make(map[string]net.IOCountersStat, len(pernic))
		for _, stat := range pernic {
			current[stat.Name] = stat
		}
		if _, ok := current[c.netIface]; c.netIface == "" || !ok {
			c.netIface = pickNetIface(current)
		}
		if stat, ok := current[c.netIface]; ok {
			last, seen := c.lastNet[c.netIface]
			if !seen {
				last = stat
			}
			sample.NetUpBPS = float64(stat.BytesSent-last.BytesSent) / elapsed
			sample.NetDownBPS = float64(stat.BytesRecv-last.BytesRecv) / elapsed
		}
		c.lastNet = current
	}

	c.lastTime = now
	return sample, nil
}

// NetIface returns the interface rates are currently measured on.
func (c *Collector) NetIface() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.netIface
}

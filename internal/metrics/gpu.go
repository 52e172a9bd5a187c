package metrics

import (
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"
)

var (
	gpuDeviceRegex   = regexp.MustCompile(`"Device Utilization %"\s*=\s*([0-9.]+)`)
	gpuRenderRegex   = regexp.MustCompile(`"Renderer Utilization %"\s*=\s*([0-9.]+)`)
	gpuTilerRegex    = regexp.MustCompile(`"Tiler Utilization %"\s*=\s*([0-9.]+)`)
	gpuFallbackRegex = regexp.MustCompile(`"GPU Utilization %"\s*=\s*([0-9.]+)`)
)

// parseIoregAccelerator pulls the utilization counters out of an
// `ioreg -r -c IOAccelerator` dump. Some systems only publish the
// aggregate "GPU Utilization %" key, which maps onto Device.
func parseIoregAccelerator(text string) GPUUtilization {
	grab := func(re *regexp.Regexp) *float64 {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return &v
	}

	util := GPUUtilization{
		Device: grab(gpuDeviceRegex),
		Render: grab(gpuRenderRegex),
		Tiler:  grab(gpuTilerRegex),
	}
	if util.Device == nil {
		util.Device = grab(gpuFallbackRegex)
	}
	return util
}

func readGPUIoreg() GPUUtilization {
	cmd := exec.Command("/usr/sbin/ioreg", "-l", "-w", "0", "-r", "-c", "IOAccelerator")
	out, err := cmd.Output()
	if err != nil {
		return GPUUtilization{}
	}
	return parseIoregAccelerator(string(out))
}

// CanReadGPUIoreg reports whether the IORegistry exposes any GPU
// utilization counters on this machine.
func CanReadGPUIoreg() bool {
	util := readGPUIoreg()
	return util.Device != nil || util.Render != nil || util.Tiler != nil
}

// GPUSampler polls the IORegistry on its own cadence. The ioreg dump
// is large, so a 2s loop keeps the cost off the main sample path while
// staying fresh enough for a status line.
type GPUSampler struct {
	mutex  sync.Mutex
	latest GPUUtilization
}

func NewGPUSampler() *GPUSampler {
	return &GPUSampler{}
}

func (g *GPUSampler) Start(done chan struct{}) {
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		g.poll()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				g.poll()
			}
		}
	}()
}

func (g *GPUSampler) poll() {
	util := readGPUIoreg()
	if util.Device == nil && util.Render == nil && util.Tiler == nil {
		// No accelerator counters in the IORegistry on this machine;
		// fall back to the powermetrics gpu_power sampler.
		if power := GetGPUPowerStats(); power.ActivePercent != nil {
			util.Device = power.ActivePercent
		}
	}
	g.mutex.Lock()
	g.latest = util
	g.mutex.Unlock()
}

func (g *GPUSampler) Latest() GPUUtilization {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.latest
}

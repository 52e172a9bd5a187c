package metrics

import "testing"

const ioregFixture = `+-o AGXAcceleratorG14X  <class AGXAcceleratorG14X, id 0x100000302, registered, matched, active, busy 0 (4 ms), retain 44>
    {
      "PerformanceStatistics" = {"recoveryCount"=0,"Device Utilization %"=37.5,"Renderer Utilization %"=41.2,"Tiler Utilization %"=12,"Alloc system memory"=1234567}
      "IOClass" = "AGXAcceleratorG14X"
    }
`

const ioregAggregateFixture = `+-o IOAccelerator
    {
      "PerformanceStatistics" = {"GPU Utilization %"=55.5}
    }
`

func TestParseIoregAccelerator(t *testing.T) {
	util := parseIoregAccelerator(ioregFixture)

	if util.Device == nil || *util.Device != 37.5 {
		t.Errorf("Expected device 37.5, got %v", util.Device)
	}
	if util.Render == nil || *util.Render != 41.2 {
		t.Errorf("Expected render 41.2, got %v", util.Render)
	}
	if util.Tiler == nil || *util.Tiler != 12 {
		t.Errorf("Expected tiler 12, got %v", util.Tiler)
	}
}

func TestParseIoregAcceleratorAggregateFallback(t *testing.T) {
	util := parseIoregAccelerator(ioregAggregateFixture)

	if util.Device == nil || *util.Device != 55.5 {
		t.Errorf("Expected aggregate key to map onto device, got %v", util.Device)
	}
	if util.Render != nil {
		t.Errorf("Render should be nil, got %v", *util.Render)
	}
	if util.Tiler != nil {
		t.Errorf("Tiler should be nil, got %v", *util.Tiler)
	}
}

func TestParseIoregAcceleratorEmpty(t *testing.T) {
	util := parseIoregAccelerator("")
	if util.Device != nil || util.Render != nil || util.Tiler != nil {
		t.Error("Empty dump should yield all-nil utilization")
	}
}

func TestGPUSamplerLatestBeforePoll(t *testing.T) {
	sampler := NewGPUSampler()
	util := sampler.Latest()
	if util.Device != nil {
		t.Error("Fresh sampler should report no device utilization")
	}
}

package metrics

import (
	"sync"
	"testing"

	"github.com/shirou/gopsutil/v4/net"
)

func TestIsNoiseIface(t *testing.T) {
	tests := []struct {
		name  string
		iface string
		want  bool
	}{
		{"Loopback", "lo0", true},
		{"AWDL", "awdl0", true},
		{"Tunnel", "utun3", true},
		{"Bridge", "bridge0", true},
		{"Personal Hotspot", "ap1", true},
		{"WiFi", "en0", false},
		{"Thunderbolt", "en5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNoiseIface(tt.iface); got != tt.want {
				t.Errorf("isNoiseIface(%q) = %v, want %v", tt.iface, got, tt.want)
			}
		})
	}
}

func TestPickNetIface(t *testing.T) {
	pernic := map[string]net.IOCountersStat{
		"lo0":   {Name: "lo0", BytesRecv: 1 << 40, BytesSent: 1 << 40},
		"utun2": {Name: "utun2", BytesRecv: 1 << 30, BytesSent: 1 << 30},
		"en0":   {Name: "en0", BytesRecv: 5000, BytesSent: 3000},
		"en5":   {Name: "en5", BytesRecv: 100, BytesSent: 50},
	}

	if got := pickNetIface(pernic); got != "en0" {
		t.Errorf("Expected en0, got %q", got)
	}
}

func TestPickNetIfaceAllNoise(t *testing.T) {
	pernic := map[string]net.IOCountersStat{
		"lo0":   {Name: "lo0", BytesRecv: 100},
		"utun0": {Name: "utun0", BytesRecv: 100},
	}
	if got := pickNetIface(pernic); got != "" {
		t.Errorf("Expected no interface, got %q", got)
	}
}

func TestPickNetIfaceIdleCandidate(t *testing.T) {
	// An idle real interface still beats nothing.
	pernic := map[string]net.IOCountersStat{
		"en0": {Name: "en0"},
	}
	if got := pickNetIface(pernic); got != "en0" {
		t.Errorf("Expected en0 despite zero traffic, got %q", got)
	}
}

func TestCollectorConcurrentSample(t *testing.T) {
	collector := NewCollector(nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.Sample()
			collector.NetIface()
		}()
	}
	wg.Wait()
}

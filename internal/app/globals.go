package app

import (
	"log"
	"net/http"
	"os"
	"time"

	ui "github.com/gizak/termui/v3"
	w "github.com/gizak/termui/v3/widgets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/context-labs/macbar/internal/config"
	"github.com/context-labs/macbar/internal/metrics"
)

var (
	version = "v0.1.0"

	statusLine, detailText, helpText *w.Paragraph
	cpuGauge, gpuGauge, ramGauge     *w.Gauge
	diskGauge                        *w.Gauge
	cpuProcessList, ramProcessList   *w.List
	grid                             *ui.Grid

	cpuSparkline, gpuSparkline, ramSparkline *w.Sparkline
	netUpSparkline, netDownSparkline         *w.Sparkline
	chartGroup, netChartGroup                *w.SparklineGroup

	cpuValues     = make([]float64, 100)
	gpuValues     = make([]float64, 100)
	ramValues     = make([]float64, 100)
	netUpValues   = make([]float64, 100)
	netDownValues = make([]float64, 100)

	currentConfig  *config.Config
	updateInterval = 500
	showHelp       = false

	stderrLogger = log.New(os.Stderr, "", 0)

	done          = make(chan struct{})
	interruptChan = make(chan struct{}, 10)

	collector  *metrics.Collector
	gpuSampler *metrics.GPUSampler

	prometheusPort string
	headless       bool
	headlessCount  int

	lastSample     metrics.Sample
	lastUpdateTime time.Time
)

var (
	cpuUsageGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_cpu_usage_percent",
			Help: "Current total CPU usage percentage",
		},
	)

	gpuUsageGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macbar_gpu_usage_percent",
			Help: "Current GPU utilization percentage",
		},
		[]string{"counter"},
	)

	ramUsageGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_ram_usage_percent",
			Help: "Current memory usage percentage",
		},
	)

	ramBytesGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macbar_ram_bytes",
			Help: "Memory usage in bytes",
		},
		[]string{"type"},
	)

	diskRateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macbar_disk_bytes_per_sec",
			Help: "Disk throughput in bytes per second",
		},
		[]string{"operation"},
	)

	netRateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macbar_network_bytes_per_sec",
			Help: "Network throughput in bytes per second",
		},
		[]string{"direction"},
	)

	diskUsedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_disk_used_percent",
			Help: "Root volume space used percentage",
		},
	)

	batteryGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_battery_percent",
			Help: "Battery charge percentage",
		},
	)

	tempGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macbar_temp_celsius",
			Help: "Die temperature in degrees Celsius",
		},
		[]string{"sensor"},
	)

	fanRPMGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_fan_rpm",
			Help: "Fan speed in revolutions per minute",
		},
	)

	swapUsedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_swap_used_bytes",
			Help: "Swap space in use",
		},
	)

	smartHealthyGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_smart_healthy",
			Help: "1 when SMART reports the root disk healthy, 0 otherwise",
		},
	)

	gpuFreqGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "macbar_gpu_freq_mhz",
			Help: "GPU active frequency in MHz",
		},
	)

	powerGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macbar_power_watts",
			Help: "Package power draw in watts",
		},
		[]string{"component"},
	)
)

func startPrometheusServer(port string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(cpuUsageGauge)
	registry.MustRegister(gpuUsageGauge)
	registry.MustRegister(ramUsageGauge)
	registry.MustRegister(ramBytesGauge)
	registry.MustRegister(diskRateGauge)
	registry.MustRegister(netRateGauge)
	registry.MustRegister(diskUsedGauge)
	registry.MustRegister(batteryGauge)
	registry.MustRegister(tempGauge)
	registry.MustRegister(fanRPMGauge)
	registry.MustRegister(swapUsedGauge)
	registry.MustRegister(smartHealthyGauge)
	registry.MustRegister(gpuFreqGauge)
	registry.MustRegister(powerGauge)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	http.Handle("/metrics", handler)
	go func() {
		err := http.ListenAndServe(":"+port, nil)
		if err != nil {
			stderrLogger.Printf("Failed to start Prometheus metrics server: %v\n", err)
		}
	}()
}

func updatePrometheusMetrics(sample metrics.Sample) {
	cpuUsageGauge.Set(sample.CPUPercent)
	if sample.GPUDevicePercent != nil {
		gpuUsageGauge.WithLabelValues("device").Set(*sample.GPUDevicePercent)
	}
	if sample.GPURenderPercent != nil {
		gpuUsageGauge.WithLabelValues("render").Set(*sample.GPURenderPercent)
	}
	if sample.GPUTilerPercent != nil {
		gpuUsageGauge.WithLabelValues("tiler").Set(*sample.GPUTilerPercent)
	}
	ramUsageGauge.Set(sample.RAMPercent)
	ramBytesGauge.WithLabelValues("used").Set(float64(sample.RAMUsed))
	ramBytesGauge.WithLabelValues("available").Set(float64(sample.RAMAvailable))
	ramBytesGauge.WithLabelValues("total").Set(float64(sample.RAMTotal))
	diskRateGauge.WithLabelValues("read").Set(sample.DiskReadBPS)
	diskRateGauge.WithLabelValues("write").Set(sample.DiskWriteBPS)
	netRateGauge.WithLabelValues("up").Set(sample.NetUpBPS)
	netRateGauge.WithLabelValues("down").Set(sample.NetDownBPS)
}

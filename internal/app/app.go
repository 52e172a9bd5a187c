// Copyright (c) 2024-2026 Carsen Klock under MIT License
// macbar is a live status line system monitor for Apple Silicon Macs! github.com/context-labs/macbar
package app

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	ui "github.com/gizak/termui/v3"
	w "github.com/gizak/termui/v3/widgets"

	"github.com/context-labs/macbar/internal/config"
	"github.com/context-labs/macbar/internal/metrics"
	"github.com/context-labs/macbar/internal/smart"
)

func setupUI() {
	info := metrics.GetSystemInfo()
	chipName := info.ChipName
	if chipName == "" {
		chipName = "Unknown Model"
	}
	stderrLogger.Printf("Model: %s\nCore Count: %d\nGPU Core Count: %d", chipName, info.CoreCount, info.GPUCoreCount)

	statusLine = w.NewParagraph()
	statusLine.Title = fmt.Sprintf("macbar - %s", chipName)

	detailText = w.NewParagraph()
	detailText.Title = "System"
	detailText.Text = "Collecting system details..."

	helpText = w.NewParagraph()
	helpText.Title = "macbar help menu"
	updateHelpText()

	cpuGauge, gpuGauge, ramGauge, diskGauge = w.NewGauge(), w.NewGauge(), w.NewGauge(), w.NewGauge()
	cpuGauge.Title = "CPU Usage"
	gpuGauge.Title = "GPU Usage"
	ramGauge.Title = "Memory Usage"
	diskGauge.Title = "Disk Usage"

	cpuProcessList = w.NewList()
	cpuProcessList.Title = "Top CPU"
	cpuProcessList.WrapText = false
	cpuProcessList.Rows = []string{}

	ramProcessList = w.NewList()
	ramProcessList.Title = "Top Memory"
	ramProcessList.WrapText = false
	ramProcessList.Rows = []string{}

	termWidth, _ := ui.TerminalDimensions()
	numPoints := termWidth / 2
	if numPoints < 10 {
		numPoints = 10
	}
	cpuValues = make([]float64, numPoints)
	gpuValues = make([]float64, numPoints)
	ramValues = make([]float64, numPoints)
	netUpValues = make([]float64, numPoints)
	netDownValues = make([]float64, numPoints)

	cpuSparkline = w.NewSparkline()
	cpuSparkline.MaxHeight = 100
	cpuSparkline.Title = "CPU %"
	cpuSparkline.Data = cpuValues

	gpuSparkline = w.NewSparkline()
	gpuSparkline.MaxHeight = 100
	gpuSparkline.Title = "GPU %"
	gpuSparkline.Data = gpuValues

	ramSparkline = w.NewSparkline()
	ramSparkline.MaxHeight = 100
	ramSparkline.Title = "RAM %"
	ramSparkline.Data = ramValues

	chartGroup = w.NewSparklineGroup(cpuSparkline, gpuSparkline, ramSparkline)
	chartGroup.Title = "Usage History"

	netUpSparkline = w.NewSparkline()
	netUpSparkline.Title = "Up"
	netDownSparkline = w.NewSparkline()
	netDownSparkline.Title = "Down"

	netChartGroup = w.NewSparklineGroup(netUpSparkline, netDownSparkline)
	netChartGroup.Title = "Network History"
}

func updateHelpText() {
	prometheusStatus := "Disabled"
	if prometheusPort != "" {
		prometheusStatus = fmt.Sprintf("Enabled (Port: %s)", prometheusPort)
	}
	helpText.Text = fmt.Sprintf(
		"macbar is an open source live system monitor for Apple Silicon written in Go!\n\n"+
			"Repo: github.com/context-labs/macbar\n\n"+
			"Prometheus Metrics: %s\n\n"+
			"Controls:\n"+
			"- 1..6: Toggle cpu/gpu/ram/disk/net/chart on the status line\n"+
			"- r: Refresh the UI data manually\n"+
			"- c: Cycle through UI color themes\n"+
			"- l: Cycle through the available layouts\n"+
			"- + or -: Adjust update interval (faster/slower)\n"+
			"- h or ?: Toggle this help menu\n"+
			"- q or <C-c>: Quit the application\n\n"+
			"Start Flags:\n"+
			"--help, -h: Show this help menu\n"+
			"--version, -v: Show the version of macbar\n"+
			"--interval, -i: Set the update interval in milliseconds. Default is 500.\n"+
			"--prometheus, -p: Set and enable a Prometheus metrics port. Default is none. (e.g. --prometheus=9090)\n"+
			"--color, -c: Set the UI color. Options are 'green', 'red', 'blue', 'cyan', 'magenta', 'yellow', and 'white'.\n"+
			"--headless: Emit JSON samples to stdout instead of the UI\n"+
			"--setup: Install smartmontools and grant passwordless powermetrics/smartctl\n"+
			"--start-at-login: Install or remove the login launch agent (on|off)\n\n"+
			"Version: %s\n\n"+
			"Current Settings:\n"+
			"Layout: %s\n"+
			"Theme: %s\n"+
			"Update Interval: %dms",
		prometheusStatus,
		version,
		currentConfig.DefaultLayout,
		currentConfig.Theme,
		updateInterval,
	)
}

func toggleHelpMenu() {
	updateHelpText()
	showHelp = !showHelp
	if showHelp {
		newGrid := ui.NewGrid()
		newGrid.Set(
			ui.NewRow(1.0,
				ui.NewCol(1.0, helpText),
			),
		)
		termWidth, termHeight := ui.TerminalDimensions()
		newGrid.SetRect(0, 0, termWidth, termHeight)
		grid = newGrid
	} else {
		applyLayout(currentConfig.DefaultLayout)
	}
	ui.Clear()
	renderUI()
}

func StderrToLogfile(logfile *os.File) {
	syscall.Dup2(int(logfile.Fd()), 2)
}

func setupLogfile() (*os.File, error) {
	logDir := config.Dir()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to make the log directory: %v", err)
	}
	logPath := filepath.Join(logDir, "macbar.log")
	logfile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0660)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}
	return logfile, nil
}

func pollKeyboardInput(tty *os.File) <-chan string {
	ch := make(chan string)
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := tty.Read(buf)
			if err != nil {
				close(ch)
				return
			}
			if n == 0 {
				continue
			}
			if n >= 3 && buf[0] == 27 && (buf[1] == 91 || buf[1] == 79) {
				switch buf[2] {
				case 65:
					ch <- "<Up>"
				case 66:
					ch <- "<Down>"
				case 67:
					ch <- "<Right>"
				case 68:
					ch <- "<Left>"
				default:
					ch <- "<Escape>"
				}
			} else if n == 1 {
				b := buf[0]
				switch b {
				case 3:
					ch <- "<C-c>"
				case 27:
					ch <- "<Escape>"
				case 13, 10:
					ch <- "<Enter>"
				case 32:
					ch <- "<Space>"
				default:
					ch <- string(b)
				}
			} else if n == 2 && buf[0] == 27 {
				ch <- "<Escape>"
			}
		}
	}()
	return ch
}

func updateSampleUI(sample metrics.Sample) {
	lastSample = sample
	updateStatusLine(sample)

	cpuGauge.Percent = clampPercent(sample.CPUPercent)
	if gpu := sample.GPUDevicePercent; gpu != nil {
		gpuGauge.Percent = clampPercent(*gpu)
		gpuGauge.Label = fmt.Sprintf("%d%%", gpuGauge.Percent)
	} else {
		gpuGauge.Percent = 0
		gpuGauge.Label = "N/A"
	}
	ramGauge.Percent = clampPercent(sample.RAMPercent)
	ramGauge.Label = fmt.Sprintf("%d%% (%s used of %s)",
		ramGauge.Percent,
		metrics.FormatBytes(float64(sample.RAMUsed)),
		metrics.FormatBytes(float64(sample.RAMTotal)))

	pushValue(cpuValues, sample.CPUPercent)
	if sample.GPUDevicePercent != nil {
		pushValue(gpuValues, *sample.GPUDevicePercent)
	} else {
		pushValue(gpuValues, 0)
	}
	pushValue(ramValues, sample.RAMPercent)
	pushValue(netUpValues, sample.NetUpBPS)
	pushValue(netDownValues, sample.NetDownBPS)

	netUpSparkline.Title = fmt.Sprintf("Up %s", metrics.FormatRate(sample.NetUpBPS))
	netDownSparkline.Title = fmt.Sprintf("Down %s", metrics.FormatRate(sample.NetDownBPS))
	if iface := collector.NetIface(); iface != "" {
		netChartGroup.Title = fmt.Sprintf("Network History (%s)", iface)
	}

	updatePrometheusMetrics(sample)
	lastUpdateTime = time.Now()
}

func clampPercent(value float64) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return int(value)
}

func pushValue(values []float64, value float64) {
	copy(values, values[1:])
	values[len(values)-1] = value
}

func renderUI() {
	ui.Render(grid)
}

func collectSamples(done chan struct{}, sampleChan chan metrics.Sample) {
	time.Sleep(time.Duration(updateInterval) * time.Millisecond)

	for {
		start := time.Now()

		select {
		case <-done:
			return
		default:
			if sample, err := collector.Sample(); err == nil {
				select {
				case sampleChan <- sample:
				default:
				}
			} else {
				stderrLogger.Printf("Error sampling metrics: %v\n", err)
			}
		}

		elapsed := time.Since(start)
		sleepTime := time.Duration(updateInterval)*time.Millisecond - elapsed
		if sleepTime > 0 {
			select {
			case <-time.After(sleepTime):
			case <-interruptChan:
			}
		}
	}
}

func collectProcessMetrics(done chan struct{}, processChan chan []metrics.ProcessUsage) {
	time.Sleep(2 * time.Second)

	for {
		start := time.Now()

		select {
		case <-done:
			return
		default:
			if processes, err := metrics.ListProcesses(); err == nil {
				select {
				case processChan <- processes:
				default:
				}
			} else {
				stderrLogger.Printf("Error getting process list: %v\n", err)
			}
		}

		elapsed := time.Since(start)
		sleepTime := 2*time.Second - elapsed
		if sleepTime > 0 {
			time.Sleep(sleepTime)
		}
	}
}

func collectSlowMetrics(done chan struct{}, slowChan chan slowStats) {
	// First pass immediately so the detail panel fills in early.
	select {
	case slowChan <- collectSlowStats():
	default:
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			select {
			case slowChan <- collectSlowStats():
			default:
			}
		}
	}
}

func Run() {
	var (
		colorName             string
		interval              int
		err                   error
		setColor, setInterval bool
	)
	for i := 1; i < len(os.Args); i++ {
		if rest, ok := strings.CutPrefix(os.Args[i], "--start-at-login"); ok && (rest == "" || strings.HasPrefix(rest, "=")) {
			raw := strings.TrimPrefix(rest, "=")
			if rest == "" && i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				raw = os.Args[i+1]
				i++
			}
			enabled := true
			if raw != "" {
				v, err := parseOnOff(raw)
				if err != nil {
					fmt.Println("Invalid --start-at-login value:", err)
					os.Exit(1)
				}
				enabled = v
			}
			if err := config.SetStartAtLogin(enabled); err != nil {
				fmt.Println("Failed to update launch agent:", err)
				os.Exit(1)
			}
			cfg := config.Load()
			cfg.StartAtLogin = enabled
			cfg.Save()
			if enabled {
				fmt.Println("macbar will start at login.")
			} else {
				fmt.Println("macbar login item removed.")
			}
			os.Exit(0)
		}
		switch os.Args[i] {
		case "--help", "-h":
			fmt.Print("Usage: macbar [--help] [--version] [--interval] [--color] [--prometheus] [--headless] [--setup] [--start-at-login]\n--help: Show this help message\n--version: Show the version of macbar\n--interval: Set the update interval in milliseconds. Default is 500.\n--color: Set the UI color. Options are 'green', 'red', 'blue', 'cyan', 'magenta', 'yellow', and 'white'. (-c green)\n--prometheus: Set and enable a Prometheus metrics port. (e.g. -p 9090)\n--headless: Emit JSON samples to stdout instead of the UI\n--setup: Install smartmontools and grant passwordless powermetrics/smartctl access\n--start-at-login: Install or remove the login launch agent (on|off)\n\nFor more information, see https://github.com/context-labs/macbar\n")
			os.Exit(0)
		case "--version", "-v":
			fmt.Println("macbar version:", version)
			os.Exit(0)
		case "--setup":
			fmt.Println("Setting up privileged access for powermetrics and smartctl...")
			if err := smart.Setup(); err != nil {
				fmt.Println("Setup failed:", err)
				os.Exit(1)
			}
			if metrics.CanRunPowermetrics() {
				fmt.Println("powermetrics: passwordless access OK")
			} else {
				fmt.Println("powermetrics: passwordless access NOT working")
			}
			if smart.CanRunSmartctl() {
				fmt.Println("smartctl: passwordless access OK")
			} else {
				fmt.Println("smartctl: passwordless access NOT working")
			}
			fmt.Println("Setup complete.")
			os.Exit(0)
		case "--color", "-c":
			if i+1 < len(os.Args) {
				colorName = strings.ToLower(os.Args[i+1])
				setColor = true
				i++
			} else {
				fmt.Println("Error: --color flag requires a color value")
				os.Exit(1)
			}
		case "--prometheus", "-p":
			if i+1 < len(os.Args) {
				prometheusPort = os.Args[i+1]
				i++
			} else {
				fmt.Println("Error: --prometheus flag requires a port number")
				os.Exit(1)
			}
		case "--interval", "-i":
			if i+1 < len(os.Args) {
				interval, err = strconv.Atoi(os.Args[i+1])
				if err != nil {
					fmt.Println("Invalid interval:", err)
					os.Exit(1)
				}
				setInterval = true
				i++
			} else {
				fmt.Println("Error: --interval flag requires an interval value")
				os.Exit(1)
			}
		}
	}

	logfile, err := setupLogfile()
	if err != nil {
		stderrLogger.Fatalf("failed to setup log file: %v", err)
	}
	defer logfile.Close()

	flag.StringVar(&prometheusPort, "prometheus", prometheusPort, "Port to run Prometheus metrics server on (e.g. 9090)")
	flag.BoolVar(&headless, "headless", false, "Run in headless mode (no TUI, output JSON to stdout)")
	flag.IntVar(&headlessCount, "count", 0, "Number of samples to collect in headless mode (0 = infinite)")
	flag.IntVar(&updateInterval, "interval", 500, "Update interval in milliseconds")
	flag.StringVar(&colorName, "color", colorName, "Set the UI color. Options are 'green', 'red', 'blue', 'cyan', 'magenta', 'yellow', and 'white'.")
	flag.Parse()

	currentConfig = config.Load()
	if prometheusPort == "" {
		prometheusPort = currentConfig.PrometheusPort
	} else if prometheusPort != currentConfig.PrometheusPort {
		// Remember the port so the login agent serves the exporter too.
		currentConfig.PrometheusPort = prometheusPort
		currentConfig.Save()
	}
	if !setInterval && currentConfig.UpdateMS > 0 {
		updateInterval = currentConfig.UpdateMS
	} else if setInterval {
		updateInterval = interval
	}
	updateInterval = clampInterval(updateInterval)

	gpuSampler = metrics.NewGPUSampler()
	collector = metrics.NewCollector(gpuSampler)

	if headless {
		gpuSampler.Start(done)
		runHeadless(headlessCount)
		return
	}

	// TUI mode
	if err := ui.Init(); err != nil {
		stderrLogger.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()

	StderrToLogfile(logfile)

	if !metrics.CanReadGPUIoreg() {
		stderrLogger.Println("No IOAccelerator counters in the IORegistry; GPU usage falls back to powermetrics")
	}

	ttyFile, err := os.Open("/dev/tty")
	if err != nil {
		ui.Close()
		stderrLogger.Fatalf("failed to open /dev/tty: %v", err)
	}
	defer ttyFile.Close()

	if prometheusPort != "" {
		startPrometheusServer(prometheusPort)
		stderrLogger.Printf("Prometheus metrics available at http://localhost:%s/metrics\n", prometheusPort)
	}

	IsLightMode = detectLightMode()
	setupUI()
	if setColor {
		applyTheme(colorName, IsLightMode)
	} else {
		applyTheme(currentConfig.Theme, IsLightMode)
	}
	setupGrid()
	termWidth, termHeight := ui.TerminalDimensions()
	grid.SetRect(0, 0, termWidth, termHeight)

	gpuSampler.Start(done)

	sampleChan := make(chan metrics.Sample, 1)
	processChan := make(chan []metrics.ProcessUsage, 1)
	slowChan := make(chan slowStats, 1)

	if sample, err := collector.Sample(); err == nil {
		updateSampleUI(sample)
	}
	renderUI()

	go collectSamples(done, sampleChan)
	go collectProcessMetrics(done, processChan)
	go collectSlowMetrics(done, slowChan)

	uiEvents := ui.PollEvents()
	ticker := time.NewTicker(time.Duration(updateInterval) * time.Millisecond)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case sample := <-sampleChan:
					updateSampleUI(sample)
					renderUI()
				default:
				}
				select {
				case processes := <-processChan:
					updateProcessLists(processes)
					renderUI()
				default:
				}
				select {
				case stats := <-slowChan:
					updateDetailText(stats)
					renderUI()
				default:
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		close(done)
	}()

	lastUpdateTime = time.Now()
	keyboardInput := pollKeyboardInput(ttyFile)
	resizeThrottler := NewEventThrottler(50 * time.Millisecond)
	for {
		select {
		case key := <-keyboardInput:
			switch key {
			case "q", "<C-c>":
				currentConfig.Save()
				close(done)
				ui.Close()
				os.Exit(0)
				return
			case "r":
				termWidth, termHeight := ui.TerminalDimensions()
				grid.SetRect(0, 0, termWidth, termHeight)
				ui.Clear()
				renderUI()
			case "c":
				termWidth, termHeight := ui.TerminalDimensions()
				grid.SetRect(0, 0, termWidth, termHeight)
				cycleTheme()
				currentConfig.Save()
				ui.Clear()
				renderUI()
			case "l":
				cycleLayout()
				currentConfig.Save()
				ui.Clear()
				renderUI()
			case "h", "?":
				toggleHelpMenu()
			case "1", "2", "3", "4", "5", "6":
				idx := int(key[0] - '1')
				if idx < len(config.MetricKeys) {
					currentConfig.Toggle(config.MetricKeys[idx])
					currentConfig.Save()
					updateStatusLine(lastSample)
					applyLayout(currentConfig.DefaultLayout)
					ui.Clear()
					renderUI()
				}
			case "-", "_":
				updateInterval = clampInterval(updateInterval + 100)
				applyNewInterval(ticker)
			case "+", "=":
				updateInterval = clampInterval(updateInterval - 100)
				applyNewInterval(ticker)
			}
		case e := <-uiEvents:
			if e.ID == "<Resize>" {
				resizeThrottler.Notify()
			}
		case <-resizeThrottler.C:
			termWidth, termHeight := ui.TerminalDimensions()
			grid.SetRect(0, 0, termWidth, termHeight)
			ui.Clear()
			renderUI()
		case <-done:
			ui.Close()
			os.Exit(0)
			return
		}
	}
}

// parseOnOff maps a --start-at-login value onto a boolean. Anything
// outside the on/off vocabulary is an error, never a default.
func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", value)
}

func clampInterval(ms int) int {
	if ms < 100 {
		return 100
	}
	if ms > 5000 {
		return 5000
	}
	return ms
}

func applyNewInterval(ticker *time.Ticker) {
	currentConfig.UpdateMS = updateInterval
	currentConfig.Save()
	ticker.Reset(time.Duration(updateInterval) * time.Millisecond)
	updateHelpText()
	// Wake the samplers so the new cadence takes effect now.
	select {
	case interruptChan <- struct{}{}:
	default:
	}
	renderUI()
}

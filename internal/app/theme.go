package app

import (
	ui "github.com/gizak/termui/v3"
	w "github.com/gizak/termui/v3/widgets"
)

var colorMap = map[string]ui.Color{
	"green":   ui.ColorGreen,
	"red":     ui.ColorRed,
	"blue":    ui.ColorBlue,
	"cyan":    ui.ColorCyan,
	"magenta": ui.ColorMagenta,
	"yellow":  ui.ColorYellow,
	"white":   ui.ColorWhite,
}

var colorNames = []string{"green", "red", "blue", "cyan", "magenta", "yellow", "white"}

var (
	SecondaryTextColor ui.Color = 245
	IsLightMode                 = false
)

func applyTheme(colorName string, lightMode bool) {
	color, ok := colorMap[colorName]
	if !ok {
		color = ui.ColorGreen
		colorName = "green"
	}

	currentConfig.Theme = colorName

	if lightMode {
		SecondaryTextColor = ui.ColorBlack
		// White on a light terminal is invisible.
		if color == ui.ColorWhite {
			color = ui.ColorBlack
		}
	} else {
		SecondaryTextColor = 245
	}

	ui.Theme.Block.Title.Fg = color
	ui.Theme.Block.Border.Fg = color
	ui.Theme.Paragraph.Text.Fg = color
	ui.Theme.Gauge.Label.Fg = color
	ui.Theme.Gauge.Bar = color

	for _, gauge := range []*w.Gauge{cpuGauge, gpuGauge, ramGauge, diskGauge} {
		if gauge == nil {
			continue
		}
		gauge.BarColor = color
		gauge.BorderStyle.Fg = color
		gauge.TitleStyle.Fg = color
		gauge.LabelStyle = ui.NewStyle(SecondaryTextColor)
	}

	for _, list := range []*w.List{cpuProcessList, ramProcessList} {
		if list == nil {
			continue
		}
		list.TextStyle = ui.NewStyle(color)
		list.BorderStyle.Fg = color
		list.TitleStyle.Fg = color
	}

	for _, paragraph := range []*w.Paragraph{statusLine, detailText, helpText} {
		if paragraph == nil {
			continue
		}
		paragraph.TextStyle = ui.NewStyle(color)
		paragraph.BorderStyle.Fg = color
		paragraph.TitleStyle.Fg = color
	}

	for _, line := range []*w.Sparkline{cpuSparkline, gpuSparkline, ramSparkline, netUpSparkline, netDownSparkline} {
		if line == nil {
			continue
		}
		line.LineColor = color
		line.TitleStyle = ui.NewStyle(SecondaryTextColor)
	}

	for _, group := range []*w.SparklineGroup{chartGroup, netChartGroup} {
		if group == nil {
			continue
		}
		group.BorderStyle.Fg = color
		group.TitleStyle.Fg = color
	}
}

func GetThemeColor(colorName string) ui.Color {
	color, ok := colorMap[colorName]
	if !ok {
		return ui.ColorGreen
	}
	return color
}

func cycleTheme() {
	currentIndex := 0
	for i, name := range colorNames {
		if name == currentConfig.Theme {
			currentIndex = i
			break
		}
	}
	nextIndex := (currentIndex + 1) % len(colorNames)
	applyTheme(colorNames[nextIndex], IsLightMode)
}

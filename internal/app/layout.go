package app

import (
	ui "github.com/gizak/termui/v3"
)

const (
	LayoutDefault = "default"
	LayoutChart   = "chart"
	LayoutCompact = "compact"
)

var layoutOrder = []string{LayoutDefault, LayoutChart, LayoutCompact}

func setupGrid() {
	applyLayout(currentConfig.DefaultLayout)
}

func cycleLayout() {
	currentIndex := 0
	for i, layout := range layoutOrder {
		if layout == currentConfig.DefaultLayout {
			currentIndex = i
			break
		}
	}
	nextIndex := (currentIndex + 1) % len(layoutOrder)
	currentConfig.DefaultLayout = layoutOrder[nextIndex]
	applyLayout(currentConfig.DefaultLayout)
	updateHelpText()
}

func applyLayout(layoutName string) {
	termWidth, termHeight := ui.TerminalDimensions()
	grid = ui.NewGrid()

	showChart := currentConfig.Visible("chart")

	switch layoutName {
	case LayoutChart:
		if showChart {
			grid.Set(
				ui.NewRow(1.0/8,
					ui.NewCol(1.0, statusLine),
				),
				ui.NewRow(4.0/8,
					ui.NewCol(1.0, chartGroup),
				),
				ui.NewRow(3.0/8,
					ui.NewCol(1.0, netChartGroup),
				),
			)
		} else {
			grid.Set(
				ui.NewRow(1.0/4,
					ui.NewCol(1.0, statusLine),
				),
				ui.NewRow(3.0/4,
					ui.NewCol(1.0, detailText),
				),
			)
		}
	case LayoutCompact:
		grid.Set(
			ui.NewRow(1.0/3,
				ui.NewCol(1.0, statusLine),
			),
			ui.NewRow(1.0/3,
				ui.NewCol(1.0/2, cpuGauge),
				ui.NewCol(1.0/2, gpuGauge),
			),
			ui.NewRow(1.0/3,
				ui.NewCol(1.0/2, ramGauge),
				ui.NewCol(1.0/2, diskGauge),
			),
		)
	default: // LayoutDefault
		if showChart {
			grid.Set(
				ui.NewRow(1.0/8,
					ui.NewCol(1.0, statusLine),
				),
				ui.NewRow(2.0/8,
					ui.NewCol(1.0/4, cpuGauge),
					ui.NewCol(1.0/4, gpuGauge),
					ui.NewCol(1.0/4, ramGauge),
					ui.NewCol(1.0/4, diskGauge),
				),
				ui.NewRow(3.0/8,
					ui.NewCol(1.0/2, chartGroup),
					ui.NewCol(1.0/2, netChartGroup),
				),
				ui.NewRow(2.0/8,
					ui.NewCol(1.0/2, detailText),
					ui.NewCol(1.0/4, cpuProcessList),
					ui.NewCol(1.0/4, ramProcessList),
				),
			)
		} else {
			grid.Set(
				ui.NewRow(1.0/6,
					ui.NewCol(1.0, statusLine),
				),
				ui.NewRow(2.0/6,
					ui.NewCol(1.0/4, cpuGauge),
					ui.NewCol(1.0/4, gpuGauge),
					ui.NewCol(1.0/4, ramGauge),
					ui.NewCol(1.0/4, diskGauge),
				),
				ui.NewRow(3.0/6,
					ui.NewCol(1.0/2, detailText),
					ui.NewCol(1.0/4, cpuProcessList),
					ui.NewCol(1.0/4, ramProcessList),
				),
			)
		}
	}
	grid.SetRect(0, 0, termWidth, termHeight)
}

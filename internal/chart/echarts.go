package chart

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// the echarts formatters below run in the browser
const (
	echartsDateLabel     = "{MMM} {dd}"
	echartsDistanceLabel = "{value}m"
	echartsTooltip       = `function (p) { var d = new Date(p.value[0]).toISOString().split('T')[0]; return '<div class="date">' + d + '</div><div class="distance">' + p.value[1] + 'm</div>'; }`
)

// ECharts builds the live chart for a frame: same domains, colors, tick counts and
// label formats as the SVG, with an axis pointer crossing at the hovered point
// standing in for the guide lines.
func ECharts(frame Frame, chartID string) *charts.Line {
	cfg := frame.Config

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: chartID,
			Width:   fmt.Sprintf("%dpx", int(cfg.Width)),
			Height:  fmt.Sprintf("%dpx", int(cfg.Height)),
			Theme:   types.ThemeChalk,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: frame.Activity,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: opts.FuncOpts(echartsTooltip),
			AxisPointer: &opts.AxisPointer{
				Type: "cross",
				Snap: opts.Bool(true),
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:        "time",
			SplitNumber: cfg.TickCount,
			AxisLabel: &opts.AxisLabel{
				Show:      opts.Bool(true),
				Rotate:    -cfg.XLabelRotation,
				Formatter: echartsDateLabel,
				Color:     cfg.AxisTextColor,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:        "value",
			Min:         0,
			SplitNumber: cfg.TickCount,
			AxisLabel: &opts.AxisLabel{
				Show:      opts.Bool(true),
				Formatter: echartsDistanceLabel,
				Color:     cfg.AxisTextColor,
			},
		}),
		charts.WithGridOpts(opts.Grid{
			Top:    fmt.Sprintf("%dpx", int(cfg.Margin.Top)),
			Right:  fmt.Sprintf("%dpx", int(cfg.Margin.Right)),
			Bottom: fmt.Sprintf("%dpx", int(cfg.Margin.Bottom)),
			Left:   fmt.Sprintf("%dpx", int(cfg.Margin.Left)),
		}),
	)

	data := make([]opts.LineData, 0, len(frame.Marks))
	for _, m := range frame.Marks {
		data = append(data, opts.LineData{
			Name:  m.ID,
			Value: []interface{}{m.Date.UnixMilli(), m.Distance},
		})
	}

	line.AddSeries(frame.Activity, data).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(true),
				SymbolSize: cfg.PointRadius * 2,
			}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Color: cfg.LineColor,
				Width: float32(cfg.LineWidth),
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color: cfg.PointFill,
			}),
		)
	line.Validate()
	return line
}

package chart

import (
	"errors"
	"fmt"
	"io"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrEmptyFrame = errors.New("frame has no marks")

// WritePNG renders a static image of the frame, using the frame's own ticks.
func WritePNG(w io.Writer, frame Frame) error {
	if len(frame.Marks) == 0 {
		return ErrEmptyFrame
	}

	cfg := frame.Config
	xValues := make([]time.Time, 0, len(frame.Marks))
	yValues := make([]float64, 0, len(frame.Marks))
	for _, m := range frame.Marks {
		xValues = append(xValues, m.Date)
		yValues = append(yValues, float64(m.Distance))
	}

	xMin, xMax := frame.XDomain[0], frame.XDomain[1]
	if !xMax.After(xMin) {
		// a single instant still needs some width to be drawn
		xMin, xMax = xMin.Add(-12*time.Hour), xMax.Add(12*time.Hour)
	}
	yMax := frame.YDomain[1]
	if yMax <= 0 {
		yMax = 1
	}

	var xTicks []gochart.Tick
	for _, t := range frame.XAxis.Ticks {
		xTicks = append(xTicks, gochart.Tick{
			Value: gochart.TimeToFloat64(time.UnixMilli(int64(t.Value))),
			Label: t.Label,
		})
	}
	var yTicks []gochart.Tick
	for _, t := range frame.YAxis.Ticks {
		yTicks = append(yTicks, gochart.Tick{Value: t.Value, Label: t.Label})
	}

	graph := gochart.Chart{
		Width:  int(cfg.Width),
		Height: int(cfg.Height),
		Background: gochart.Style{
			Padding: gochart.Box{
				Top:    int(cfg.Margin.Top),
				Left:   int(cfg.Margin.Left),
				Right:  int(cfg.Margin.Right),
				Bottom: int(cfg.Margin.Bottom),
			},
		},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{
				Min: gochart.TimeToFloat64(xMin),
				Max: gochart.TimeToFloat64(xMax),
			},
			Ticks: xTicks,
			TickStyle: gochart.Style{
				TextRotationDegrees: -frame.XAxis.LabelRotation,
			},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{
				Min: 0,
				Max: yMax,
			},
			Ticks: yTicks,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name: frame.Activity,
				Style: gochart.Style{
					StrokeColor: drawing.ColorFromHex(cfg.LineColor),
					StrokeWidth: cfg.LineWidth,
					DotColor:    drawing.ColorFromHex(cfg.PointFill),
					DotWidth:    cfg.PointRadius,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

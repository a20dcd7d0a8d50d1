package chart

import (
	"strconv"
	"time"
)

type Orientation string

const (
	Bottom Orientation = "bottom"
	Left   Orientation = "left"
)

// Tick is one labelled axis position, Pos is in plot coordinates along the axis.
type Tick struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

type Axis struct {
	Orientation Orientation `json:"orientation"`
	Ticks       []Tick      `json:"ticks"`
	// LabelRotation is applied to every tick label, in degrees.
	LabelRotation float64 `json:"labelRotation"`
	// LabelAnchor is the SVG text-anchor of the tick labels.
	LabelAnchor string `json:"labelAnchor"`
	TextColor   string `json:"textColor"`
	// Length of the axis line in pixels.
	Length float64 `json:"length"`
}

// DateTickFormat renders time ticks as month and day, e.g. "Jan 02".
const DateTickFormat = "Jan 02"

// TooltipDateFormat is the date shown inside a mark's tooltip.
const TooltipDateFormat = "2006-01-02"

func FormatDateTick(t time.Time) string {
	return t.UTC().Format(DateTickFormat)
}

// FormatDistance renders a distance tick value in meters, e.g. "500m" or "2.5m".
func FormatDistance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "m"
}

func timeAxis(scale *TimeScale, count int, cfg Config) Axis {
	r0, r1 := scale.Range()
	axis := Axis{
		Orientation:   Bottom,
		LabelRotation: cfg.XLabelRotation,
		LabelAnchor:   "end",
		TextColor:     cfg.AxisTextColor,
		Length:        r1 - r0,
	}

	for _, t := range scale.Ticks(count) {
		axis.Ticks = append(axis.Ticks, Tick{
			Value: timeToFloat(t),
			Pos:   roundCoord(scale.Scale(t)),
			Label: FormatDateTick(t),
		})
	}
	return axis
}

func distanceAxis(scale *LinearScale, count int, cfg Config) Axis {
	r0, r1 := scale.Range()
	axis := Axis{
		Orientation: Left,
		LabelAnchor: "end",
		TextColor:   cfg.AxisTextColor,
		Length:      r0 - r1,
	}

	for _, v := range scale.Ticks(count) {
		axis.Ticks = append(axis.Ticks, Tick{
			Value: v,
			Pos:   roundCoord(scale.Scale(v)),
			Label: FormatDistance(v),
		})
	}
	return axis
}

package chart

import (
	"strconv"
	"time"
)

type MarkState string

const (
	// MarkEntered is a mark drawn for the first time, it grows in with the enter animation.
	MarkEntered MarkState = "entered"
	// MarkUpdated is a mark that existed in the previous frame and was repositioned.
	MarkUpdated MarkState = "updated"
	// MarkExited is a mark whose record left the visible set, it is removed.
	MarkExited MarkState = "exited"
)

type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type Tooltip struct {
	Date     string `json:"date"`
	Distance string `json:"distance"`
}

// Mark is the point drawn for one record.
type Mark struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Distance int       `json:"distance"`
	CX       float64   `json:"cx"`
	CY       float64   `json:"cy"`
	State    MarkState `json:"state"`
	Tooltip  Tooltip   `json:"tooltip"`
	// XGuide drops from the point to the time axis, YGuide runs from the point to the distance axis.
	XGuide Line `json:"xGuide"`
	YGuide Line `json:"yGuide"`
}

// Appearance is what a mark looks like for a given pointer state.
type Appearance struct {
	Radius         float64 `json:"radius"`
	Fill           string  `json:"fill"`
	ShowTooltip    bool    `json:"showTooltip"`
	ShowGuideLines bool    `json:"showGuideLines"`
}

// Appearance returns the resting look of the mark, or the highlighted one while the pointer is over it.
func (m Mark) Appearance(cfg Config, hovered bool) Appearance {
	if hovered {
		return Appearance{
			Radius:         cfg.HoverRadius,
			Fill:           cfg.HoverFill,
			ShowTooltip:    true,
			ShowGuideLines: true,
		}
	}
	return Appearance{
		Radius: cfg.PointRadius,
		Fill:   cfg.PointFill,
	}
}

// Join is the result of reconciling the marks of a new frame with the previous one.
type Join struct {
	Enter  []Mark
	Update []Mark
	Exit   []Mark
}

// joinMarks keys marks by record id: ids unknown to prev enter, ids present in both
// update, ids only in prev exit. next keeps its order, exits follow prev's order.
func joinMarks(prevOrder []string, prev map[string]Mark, next []Mark) Join {
	var join Join
	seen := make(map[string]struct{}, len(next))
	for i := range next {
		m := &next[i]
		seen[m.ID] = struct{}{}
		if _, ok := prev[m.ID]; ok {
			m.State = MarkUpdated
			join.Update = append(join.Update, *m)
		} else {
			m.State = MarkEntered
			join.Enter = append(join.Enter, *m)
		}
	}

	for _, id := range prevOrder {
		if _, ok := seen[id]; ok {
			continue
		}
		gone := prev[id]
		gone.State = MarkExited
		join.Exit = append(join.Exit, gone)
	}
	return join
}

func newMark(id string, date time.Time, distance int, cx, cy, plotHeight float64) Mark {
	cx, cy = roundCoord(cx), roundCoord(cy)
	return Mark{
		ID:       id,
		Date:     date,
		Distance: distance,
		CX:       cx,
		CY:       cy,
		Tooltip: Tooltip{
			Date:     date.UTC().Format(TooltipDateFormat),
			Distance: strconv.Itoa(distance) + "m",
		},
		XGuide: Line{X1: cx, Y1: cy, X2: cx, Y2: plotHeight},
		YGuide: Line{X1: cx, Y1: cy, X2: 0, Y2: cy},
	}
}

// Package chart draws the distance-over-time line chart of one activity: scales, axes,
// the connecting line and one mark per record, reconciled between renders by record id.
package chart

import (
	"sort"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
)

type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

type Config struct {
	Width  float64
	Height float64
	Margin Margin

	TickCount      int
	XLabelRotation float64

	LineColor     string
	LineWidth     float64
	PointRadius   float64
	PointFill     string
	HoverRadius   float64
	HoverFill     string
	AxisTextColor string
	GuideColor    string
	GuideDash     string

	EnterDuration time.Duration
	HoverDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		Width:  560,
		Height: 400,
		Margin: Margin{Top: 40, Right: 20, Bottom: 50, Left: 100},

		TickCount:      5,
		XLabelRotation: -40,

		LineColor:     "#00bfa5",
		LineWidth:     2,
		PointRadius:   5,
		PointFill:     "#ccc",
		HoverRadius:   10,
		HoverFill:     "#fff",
		AxisTextColor: "#fff",
		GuideColor:    "#aaa",
		GuideDash:     "4",

		EnterDuration: 100 * time.Millisecond,
		HoverDuration: 100 * time.Millisecond,
	}
}

func (c Config) PlotWidth() float64 {
	return c.Width - c.Margin.Left - c.Margin.Right
}

func (c Config) PlotHeight() float64 {
	return c.Height - c.Margin.Top - c.Margin.Bottom
}

// Frame is everything on screen after one render.
type Frame struct {
	Activity string
	Config   Config

	XDomain [2]time.Time
	YDomain [2]float64
	XAxis   Axis
	YAxis   Axis

	// Path is the SVG path data of the line through Marks.
	Path string
	// Marks are the visible marks, sorted by date.
	Marks []Mark
	// Exited are the marks removed by this render.
	Exited []Mark
}

func (f Frame) Entered() []Mark {
	return f.marksIn(MarkEntered)
}

func (f Frame) Updated() []Mark {
	return f.marksIn(MarkUpdated)
}

func (f Frame) marksIn(state MarkState) []Mark {
	var marks []Mark
	for _, m := range f.Marks {
		if m.State == state {
			marks = append(marks, m)
		}
	}
	return marks
}

// Renderer keeps the scales and the marks of the last frame, so consecutive renders
// can tell entering, moving and leaving marks apart. Not safe for concurrent use.
type Renderer struct {
	cfg       Config
	x         *TimeScale
	y         *LinearScale
	marks     map[string]Mark
	markOrder []string
}

func NewRenderer(cfg Config) *Renderer {
	return &Renderer{
		cfg:   cfg,
		x:     NewTimeScale(0, cfg.PlotWidth()),
		y:     NewLinearScale(cfg.PlotHeight(), 0),
		marks: make(map[string]Mark),
	}
}

func (r *Renderer) Config() Config {
	return r.cfg
}

// Visible returns the records of the given activity, sorted by date ascending.
// Records sharing a date keep their relative order.
func Visible(records []activities.Activity, activity string) []activities.Activity {
	var visible []activities.Activity
	for _, rec := range records {
		if rec.Activity == activity {
			visible = append(visible, rec)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Date.Before(visible[j].Date)
	})
	return visible
}

// Render draws the full record set for one activity and reconciles the marks with the previous frame.
func (r *Renderer) Render(records []activities.Activity, activity string) Frame {
	visible := Visible(records, activity)

	var xMin, xMax time.Time
	var yMax float64
	for i, rec := range visible {
		if i == 0 || rec.Date.Before(xMin) {
			xMin = rec.Date
		}
		if i == 0 || rec.Date.After(xMax) {
			xMax = rec.Date
		}
		if d := float64(rec.Distance); d > yMax {
			yMax = d
		}
	}
	r.x.SetDomain(xMin, xMax)
	r.y.SetDomain(0, yMax)

	plotHeight := r.cfg.PlotHeight()
	marks := make([]Mark, 0, len(visible))
	points := make([]Point, 0, len(visible))
	for _, rec := range visible {
		m := newMark(rec.ID, rec.Date, rec.Distance, r.x.Scale(rec.Date), r.y.Scale(float64(rec.Distance)), plotHeight)
		marks = append(marks, m)
		points = append(points, Point{X: m.CX, Y: m.CY})
	}

	join := joinMarks(r.markOrder, r.marks, marks)

	r.marks = make(map[string]Mark, len(marks))
	r.markOrder = r.markOrder[:0]
	for _, m := range marks {
		r.marks[m.ID] = m
		r.markOrder = append(r.markOrder, m.ID)
	}

	frame := Frame{
		Activity: activity,
		Config:   r.cfg,
		XDomain:  [2]time.Time{xMin, xMax},
		YDomain:  [2]float64{0, yMax},
		Path:     LinePath(points),
		Marks:    marks,
		Exited:   join.Exit,
	}
	if len(visible) > 0 {
		frame.XAxis = timeAxis(r.x, r.cfg.TickCount, r.cfg)
		frame.YAxis = distanceAxis(r.y, r.cfg.TickCount, r.cfg)
	} else {
		frame.XAxis = Axis{Orientation: Bottom, LabelRotation: r.cfg.XLabelRotation, LabelAnchor: "end", TextColor: r.cfg.AxisTextColor, Length: r.cfg.PlotWidth()}
		frame.YAxis = distanceAxis(r.y, r.cfg.TickCount, r.cfg)
	}
	return frame
}

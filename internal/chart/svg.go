package chart

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
)

// WriteSVG writes the frame as a standalone SVG document. Hovering a mark enlarges and
// highlights it and reveals its tooltip and guide lines; it is declared in CSS, so the
// document needs no script.
func WriteSVG(w io.Writer, frame Frame) error {
	if err := svgTemplate.Execute(w, newSVGView(frame)); err != nil {
		return fmt.Errorf("execute svg template: %w", err)
	}
	return nil
}

type svgView struct {
	Frame      Frame
	Cfg        Config
	Style      template.CSS
	Transform  string
	XAxisShift string
	EnterDur   string
	Marks      []svgMark
}

type svgMark struct {
	Mark
	Entering  bool
	TipX      float64
	TipY      float64
	TipAnchor string
}

func newSVGView(frame Frame) svgView {
	cfg := frame.Config
	view := svgView{
		Frame:      frame,
		Cfg:        cfg,
		Style:      template.CSS(svgStyle(cfg)),
		Transform:  fmt.Sprintf("translate(%s, %s)", formatCoord(cfg.Margin.Left), formatCoord(cfg.Margin.Top)),
		XAxisShift: fmt.Sprintf("translate(0, %s)", formatCoord(cfg.PlotHeight())),
		EnterDur:   seconds(cfg.EnterDuration.Seconds()),
	}

	for _, m := range frame.Marks {
		sm := svgMark{
			Mark:      m,
			Entering:  m.State == MarkEntered,
			TipX:      m.CX + cfg.HoverRadius + 4,
			TipY:      m.CY - cfg.HoverRadius - 4,
			TipAnchor: "start",
		}
		// keep the tooltip inside the plot on the right edge
		if m.CX > cfg.PlotWidth()*0.7 {
			sm.TipX = m.CX - cfg.HoverRadius - 4
			sm.TipAnchor = "end"
		}
		view.Marks = append(view.Marks, sm)
	}
	return view
}

func svgStyle(cfg Config) string {
	hover := seconds(cfg.HoverDuration.Seconds())
	return fmt.Sprintf(`
.mark circle { transition: r %[1]s, fill %[1]s; cursor: pointer; }
.mark:hover circle { r: %[2]spx; fill: %[3]s; }
.mark .hover { visibility: hidden; pointer-events: none; }
.mark:hover .hover { visibility: visible; }
.tip { font: 12px sans-serif; }
.axis text { font: 10px sans-serif; }
`, hover, formatCoord(cfg.HoverRadius), cfg.HoverFill)
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64) + "s"
}

var svgTemplate = template.Must(template.New("chart").Funcs(template.FuncMap{
	"coord": formatCoord,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{coord .Cfg.Width}}" height="{{coord .Cfg.Height}}" class="activity-chart" data-activity="{{.Frame.Activity}}">
<style>{{.Style}}</style>
<g class="graph" transform="{{.Transform}}">
<g class="x-axis axis" transform="{{.XAxisShift}}">
<line x1="0" y1="0" x2="{{coord .Frame.XAxis.Length}}" y2="0" stroke="currentColor"/>
{{- range .Frame.XAxis.Ticks}}
<g class="tick" transform="translate({{coord .Pos}}, 0)"><line y2="6" stroke="currentColor"/><text y="9" dy="0.71em" fill="{{$.Frame.XAxis.TextColor}}" text-anchor="{{$.Frame.XAxis.LabelAnchor}}" transform="rotate({{coord $.Frame.XAxis.LabelRotation}})">{{.Label}}</text></g>
{{- end}}
</g>
<g class="y-axis axis">
<line x1="0" y1="0" x2="0" y2="{{coord .Frame.YAxis.Length}}" stroke="currentColor"/>
{{- range .Frame.YAxis.Ticks}}
<g class="tick" transform="translate(0, {{coord .Pos}})"><line x2="-6" stroke="currentColor"/><text x="-9" dy="0.32em" fill="{{$.Frame.YAxis.TextColor}}" text-anchor="{{$.Frame.YAxis.LabelAnchor}}">{{.Label}}</text></g>
{{- end}}
</g>
<path class="line" d="{{.Frame.Path}}" fill="none" stroke="{{.Cfg.LineColor}}" stroke-width="{{coord .Cfg.LineWidth}}"/>
{{- range .Marks}}
<g class="mark" data-id="{{.ID}}" data-state="{{.State}}">
<line class="hover guide" x1="{{coord .XGuide.X1}}" y1="{{coord .XGuide.Y1}}" x2="{{coord .XGuide.X2}}" y2="{{coord .XGuide.Y2}}" stroke="{{$.Cfg.GuideColor}}" stroke-dasharray="{{$.Cfg.GuideDash}}"/>
<line class="hover guide" x1="{{coord .YGuide.X1}}" y1="{{coord .YGuide.Y1}}" x2="{{coord .YGuide.X2}}" y2="{{coord .YGuide.Y2}}" stroke="{{$.Cfg.GuideColor}}" stroke-dasharray="{{$.Cfg.GuideDash}}"/>
<circle cx="{{coord .CX}}" cy="{{coord .CY}}" r="{{coord $.Cfg.PointRadius}}" fill="{{$.Cfg.PointFill}}">
{{- if .Entering}}<animate attributeName="r" from="0" to="{{coord $.Cfg.PointRadius}}" dur="{{$.EnterDur}}" fill="freeze"/>{{end -}}
</circle>
<text class="hover tip" x="{{coord .TipX}}" y="{{coord .TipY}}" text-anchor="{{.TipAnchor}}" fill="{{$.Cfg.AxisTextColor}}"><tspan class="date">{{.Tooltip.Date}}</tspan> <tspan class="distance">{{.Tooltip.Distance}}</tspan></text>
</g>
{{- end}}
</g>
</svg>
`))

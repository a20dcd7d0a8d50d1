package chart

import (
	"math"
	"strconv"
	"strings"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LinePath returns SVG path data for straight segments through the points, in order.
func LinePath(points []Point) string {
	if len(points) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, p := range points {
		if i == 0 {
			sb.WriteByte('M')
		} else {
			sb.WriteByte('L')
		}
		sb.WriteString(formatCoord(p.X))
		sb.WriteByte(',')
		sb.WriteString(formatCoord(p.Y))
	}
	return sb.String()
}

func roundCoord(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(roundCoord(v), 'f', -1, 64)
}

package chart

import (
	"math"
	"time"
)

// LinearScale maps a numeric domain onto a pixel range.
type LinearScale struct {
	d0, d1 float64
	r0, r1 float64
}

func NewLinearScale(r0, r1 float64) *LinearScale {
	return &LinearScale{r0: r0, r1: r1}
}

func (s *LinearScale) SetDomain(d0, d1 float64) {
	s.d0, s.d1 = d0, d1
}

func (s *LinearScale) Domain() (float64, float64) {
	return s.d0, s.d1
}

func (s *LinearScale) Range() (float64, float64) {
	return s.r0, s.r1
}

// Scale maps v into the range. A zero-width domain maps every value to the middle of the range.
func (s *LinearScale) Scale(v float64) float64 {
	span := s.d1 - s.d0
	if span == 0 {
		return s.r0 + (s.r1-s.r0)/2
	}
	return s.r0 + (v-s.d0)/span*(s.r1-s.r0)
}

// Ticks returns roughly count evenly spaced round values (1, 2 or 5 times a power of ten) inside the domain.
func (s *LinearScale) Ticks(count int) []float64 {
	start, stop := s.d0, s.d1
	if start == stop {
		return []float64{start}
	}
	if count <= 0 {
		return nil
	}

	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	step := tickStep(start, stop, count)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return nil
	}

	first := math.Ceil(start / step)
	last := math.Floor(stop / step)
	var ticks []float64
	for i := first; i <= last; i++ {
		// multiply instead of accumulating, so 0.1 steps do not drift
		ticks = append(ticks, roundFloat(i*step))
	}

	if reverse {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func tickStep(start, stop float64, count int) float64 {
	raw := (stop - start) / float64(count)
	power := math.Floor(math.Log10(raw))
	step := math.Pow(10, power)
	ratio := raw / step
	switch {
	case ratio >= e10:
		step *= 10
	case ratio >= e5:
		step *= 5
	case ratio >= e2:
		step *= 2
	}
	return step
}

func roundFloat(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// TimeScale maps a time domain onto a pixel range.
type TimeScale struct {
	linear *LinearScale
	d0, d1 time.Time
}

func NewTimeScale(r0, r1 float64) *TimeScale {
	return &TimeScale{linear: NewLinearScale(r0, r1)}
}

func (s *TimeScale) SetDomain(d0, d1 time.Time) {
	s.d0, s.d1 = d0, d1
	s.linear.SetDomain(timeToFloat(d0), timeToFloat(d1))
}

func (s *TimeScale) Domain() (time.Time, time.Time) {
	return s.d0, s.d1
}

func (s *TimeScale) Range() (float64, float64) {
	return s.linear.Range()
}

func (s *TimeScale) Scale(t time.Time) float64 {
	return s.linear.Scale(timeToFloat(t))
}

func timeToFloat(t time.Time) float64 {
	return float64(t.UnixMilli())
}

type timeInterval struct {
	unit  timeUnit
	step  int
	width time.Duration
}

type timeUnit int

const (
	unitHour timeUnit = iota
	unitDay
	unitWeek
	unitMonth
	unitYear
)

const day = 24 * time.Hour

// calendar-aligned tick intervals, the approximate widths are used to pick one
var timeIntervals = []timeInterval{
	{unitHour, 1, time.Hour},
	{unitHour, 3, 3 * time.Hour},
	{unitHour, 6, 6 * time.Hour},
	{unitHour, 12, 12 * time.Hour},
	{unitDay, 1, day},
	{unitDay, 2, 2 * day},
	{unitWeek, 1, 7 * day},
	{unitMonth, 1, 30 * day},
	{unitMonth, 3, 90 * day},
	{unitYear, 1, 365 * day},
}

// Ticks returns calendar-aligned instants (UTC) inside the domain, aiming at roughly count of them.
func (s *TimeScale) Ticks(count int) []time.Time {
	start, stop := s.d0.UTC(), s.d1.UTC()
	if stop.Before(start) {
		start, stop = stop, start
	}
	if start.Equal(stop) {
		return []time.Time{start}
	}
	if count <= 0 {
		return nil
	}

	interval := pickTimeInterval(stop.Sub(start) / time.Duration(count))

	var ticks []time.Time
	for t := ceilTime(start, interval); !t.After(stop); t = nextTime(t, interval) {
		ticks = append(ticks, t)
	}
	return ticks
}

func pickTimeInterval(target time.Duration) timeInterval {
	best := timeIntervals[0]
	for _, interval := range timeIntervals {
		if interval.width > target {
			// pick the closer of the two neighbours
			if interval.width-target < target-best.width {
				best = interval
			}
			return best
		}
		best = interval
	}
	return best
}

func ceilTime(t time.Time, interval timeInterval) time.Time {
	var floor time.Time
	switch interval.unit {
	case unitHour:
		floor = t.Truncate(time.Hour)
		for floor.Hour()%interval.step != 0 {
			floor = floor.Add(-time.Hour)
		}
	case unitDay:
		floor = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		for (floor.Day()-1)%interval.step != 0 {
			floor = floor.AddDate(0, 0, -1)
		}
	case unitWeek:
		floor = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		floor = floor.AddDate(0, 0, -int(floor.Weekday()))
	case unitMonth:
		floor = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		for (int(floor.Month())-1)%interval.step != 0 {
			floor = floor.AddDate(0, -1, 0)
		}
	case unitYear:
		floor = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	if floor.Before(t) {
		return nextTime(floor, interval)
	}
	return floor
}

func nextTime(t time.Time, interval timeInterval) time.Time {
	switch interval.unit {
	case unitHour:
		return t.Add(time.Duration(interval.step) * time.Hour)
	case unitDay:
		next := t.AddDate(0, 0, interval.step)
		// every-n-days ticks restart at the first of each month
		if interval.step > 1 && next.Month() != t.Month() {
			return time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		return next
	case unitWeek:
		return t.AddDate(0, 0, 7*interval.step)
	case unitMonth:
		return t.AddDate(0, interval.step, 0)
	default:
		return t.AddDate(interval.step, 0, 0)
	}
}

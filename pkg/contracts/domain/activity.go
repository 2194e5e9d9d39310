package domain

import (
	"fmt"
	"time"
)

// ActivityPoint is one month of a MonthlyActivitySeries.
type ActivityPoint struct {
	Month       time.Time `json:"month"`
	Established int       `json:"established_count"`
	Closed      int       `json:"closed_count"`
	NetActive   float64   `json:"net_active"`
}

// MonthlyActivitySeries holds cumulative as-of counts of established and
// closed institutions at the first of every month. The slices are parallel
// and owned by the series; accessors return copies.
type MonthlyActivitySeries struct {
	months      []time.Time
	established []int
	closed      []int
	netActive   []float64
}

// NewMonthlyActivitySeries builds a series from parallel slices and derives
// the net-active column as established minus closed, widened to float64.
func NewMonthlyActivitySeries(months []time.Time, established, closed []int) (MonthlyActivitySeries, error) {
	if len(established) != len(months) || len(closed) != len(months) {
		return MonthlyActivitySeries{}, fmt.Errorf("series length mismatch: months=%d established=%d closed=%d",
			len(months), len(established), len(closed))
	}

	s := MonthlyActivitySeries{
		months:      append([]time.Time(nil), months...),
		established: append([]int(nil), established...),
		closed:      append([]int(nil), closed...),
		netActive:   make([]float64, len(months)),
	}
	for i := range months {
		s.netActive[i] = float64(established[i]) - float64(closed[i])
	}
	return s, nil
}

// Len returns the number of months in the series.
func (s MonthlyActivitySeries) Len() int { return len(s.months) }

// Months returns the month grid.
func (s MonthlyActivitySeries) Months() []time.Time {
	return append([]time.Time(nil), s.months...)
}

// EstablishedCounts returns the cumulative established counts.
func (s MonthlyActivitySeries) EstablishedCounts() []int {
	return append([]int(nil), s.established...)
}

// ClosedCounts returns the cumulative closed counts.
func (s MonthlyActivitySeries) ClosedCounts() []int {
	return append([]int(nil), s.closed...)
}

// NetActive returns established minus closed for every month.
func (s MonthlyActivitySeries) NetActive() []float64 {
	return append([]float64(nil), s.netActive...)
}

// Point returns the i-th month.
func (s MonthlyActivitySeries) Point(i int) ActivityPoint {
	return ActivityPoint{
		Month:       s.months[i],
		Established: s.established[i],
		Closed:      s.closed[i],
		NetActive:   s.netActive[i],
	}
}

// Points returns every month as an ActivityPoint.
func (s MonthlyActivitySeries) Points() []ActivityPoint {
	points := make([]ActivityPoint, len(s.months))
	for i := range s.months {
		points[i] = s.Point(i)
	}
	return points
}

// At looks up the point for the month starting at t.
func (s MonthlyActivitySeries) At(t time.Time) (ActivityPoint, bool) {
	for i, m := range s.months {
		if m.Equal(t) {
			return s.Point(i), true
		}
	}
	return ActivityPoint{}, false
}

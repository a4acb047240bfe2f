// Package temporal spreads event effects over time.
//
// An effect grows after a lag and saturates after a window. Forward
// projections evaluate that growth in whole calendar years; historical
// reconstruction evaluates it continuously by month. Both are the same Ramp
// read through a different Shape.
package temporal

import (
	"math"
	"time"

	"eventcast/domain/core"
)

// Ramp is one effect growing from zero to Target, starting LagMonths after Origin.
type Ramp struct {
	Origin    time.Time
	LagMonths int
	Target    float64
}

// Shape evaluates how much of a ramp has built up at a given time, in [0, 1].
type Shape interface {
	Fraction(r Ramp, at time.Time) float64
}

// At returns the part of the target reached at the given time
func (r Ramp) At(shape Shape, at time.Time) float64 {
	f := shape.Fraction(r, at)
	if f == 0 {
		return 0
	}
	return r.Target * f
}

// YearlyStep grows a ramp in equal yearly steps over Years calendar years.
// The start year is the origin year plus whole years of lag; the months of
// the lag that do not complete a year are ignored.
type YearlyStep struct {
	Years int
}

// StartYear returns the first year the ramp contributes
func (s YearlyStep) StartYear(r Ramp) int {
	return r.Origin.Year() + r.LagMonths/12
}

// Fraction returns min(year - start + 1, Years) / Years from the start year on.
func (s YearlyStep) Fraction(r Ramp, at time.Time) float64 {
	if s.Years < 1 {
		return 0
	}
	since := at.Year() - s.StartYear(r)
	if since < 0 {
		return 0
	}
	steps := since + 1
	if steps > s.Years {
		steps = s.Years
	}
	return float64(steps) / float64(s.Years)
}

// MonthlyLinear grows a ramp linearly over DurationMonths average months of
// DaysPerMonth days, starting LagMonths calendar months after the origin.
type MonthlyLinear struct {
	DurationMonths int
	DaysPerMonth   float64
}

// Start returns the date the ramp begins
func (s MonthlyLinear) Start(r Ramp) time.Time {
	return core.AddMonths(r.Origin, r.LagMonths)
}

// ElapsedMonths is the whole days since the start divided by the average month length.
func (s MonthlyLinear) ElapsedMonths(r Ramp, at time.Time) float64 {
	return float64(core.WholeDaysBetween(s.Start(r), at)) / s.DaysPerMonth
}

// Fraction returns min(elapsed / DurationMonths, 1), or 0 before the ramp starts.
func (s MonthlyLinear) Fraction(r Ramp, at time.Time) float64 {
	if s.DurationMonths < 1 || s.DaysPerMonth <= 0 {
		return 0
	}
	if at.Before(s.Start(r)) {
		return 0
	}
	elapsed := s.ElapsedMonths(r, at)
	if elapsed <= 0 {
		return 0
	}
	return math.Min(elapsed/float64(s.DurationMonths), 1)
}

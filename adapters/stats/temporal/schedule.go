package temporal

import (
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// Spread lays an effect out as equal monthly increments over durationMonths
// month starts, beginning with the first month start on or after origin+lag.
func Spread(origin time.Time, effect float64, lagMonths, durationMonths int) []forecast.SpreadStep {
	if durationMonths < 1 {
		return nil
	}
	if lagMonths < 0 {
		lagMonths = 0
	}

	start := core.AddMonths(origin, lagMonths)
	first := core.MonthStart(start)
	if first.Before(start) {
		first = core.AddMonths(first, 1)
	}

	monthly := effect / float64(durationMonths)
	steps := make([]forecast.SpreadStep, durationMonths)
	for i := range steps {
		steps[i] = forecast.SpreadStep{Month: core.AddMonths(first, i), Effect: monthly}
	}
	return steps
}

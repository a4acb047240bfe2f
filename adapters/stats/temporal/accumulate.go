package temporal

import (
	"sort"
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// AccumulateAnnual returns, for each requested year in order, the sum of
// every resolved effect scaled by scale and ramped in yearly steps.
func AccumulateAnnual(years []int, resolved []forecast.ResolvedImpact, scale float64, shape YearlyStep) []float64 {
	out := make([]float64, len(years))
	if len(resolved) == 0 {
		return out
	}

	ramps := make([]Ramp, len(resolved))
	for i, r := range resolved {
		ramps[i] = Ramp{
			Origin:    r.PeriodStart,
			LagMonths: r.LagMonths,
			Target:    float64(r.Effect) * scale,
		}
	}

	for i, y := range years {
		at := core.Date(y, time.January, 1)
		for _, ramp := range ramps {
			out[i] += ramp.At(shape, at)
		}
	}
	return out
}

// Windows pre-aggregates resolved effects that share an origin and lag into
// one ramp each, since they ramp together. The result is ordered by origin,
// then lag.
func Windows(resolved []forecast.ResolvedImpact) []Ramp {
	type key struct {
		origin int64
		lag    int
	}
	sums := make(map[key]*Ramp)
	var order []key
	for _, r := range resolved {
		k := key{origin: r.PeriodStart.UnixNano(), lag: r.LagMonths}
		if ramp, ok := sums[k]; ok {
			ramp.Target += float64(r.Effect)
			continue
		}
		sums[k] = &Ramp{Origin: r.PeriodStart, LagMonths: r.LagMonths, Target: float64(r.Effect)}
		order = append(order, k)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].origin != order[j].origin {
			return order[i].origin < order[j].origin
		}
		return order[i].lag < order[j].lag
	})

	out := make([]Ramp, len(order))
	for i, k := range order {
		out[i] = *sums[k]
	}
	return out
}

// Reconstruct adds the cumulative monthly-ramped effect to every observation.
// Observations are returned in chronological order.
func Reconstruct(series []forecast.Observation, resolved []forecast.ResolvedImpact, shape MonthlyLinear) []forecast.AdjustedObservation {
	sorted := make([]forecast.Observation, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	windows := Windows(resolved)
	out := make([]forecast.AdjustedObservation, len(sorted))
	for i, obs := range sorted {
		var addition float64
		for _, w := range windows {
			addition += w.At(shape, obs.Date)
		}
		out[i] = forecast.AdjustedObservation{
			Observation: obs,
			Addition:    addition,
			Adjusted:    obs.Value + addition,
		}
	}
	return out
}

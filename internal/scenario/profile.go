package scenario

import (
	"eventcast/domain/forecast"
)

// Augment adds per-year event additions onto trend points: the point gets
// the full addition, the bounds the addition scaled by lowerFactor and
// upperFactor. points and additions are parallel.
func Augment(points []forecast.ForecastPoint, additions []float64, lowerFactor, upperFactor float64) []forecast.ForecastPoint {
	out := make([]forecast.ForecastPoint, len(points))
	for i, p := range points {
		a := additions[i]
		out[i] = forecast.ForecastPoint{
			Year:  p.Year,
			Point: p.Point + a,
			Lower: p.Lower + lowerFactor*a,
			Upper: p.Upper + upperFactor*a,
		}
	}
	return out
}

// ApplyProfile computes one scenario's point and bounds from a trend point
// and the event addition already scaled by the profile's EventScale.
func ApplyProfile(p forecast.ScenarioProfile, trend forecast.ForecastPoint, addition float64) (point, lower, upper float64) {
	point = p.PointTrend*trend.Point + addition
	lower = p.LowerTrend*base(p.LowerBase, trend) + p.LowerEvent*addition
	upper = p.UpperTrend*base(p.UpperBase, trend) + p.UpperEvent*addition
	return point, lower, upper
}

func base(b forecast.BoundBase, trend forecast.ForecastPoint) float64 {
	switch b {
	case forecast.BaseTrendLower:
		return trend.Lower
	case forecast.BaseTrendUpper:
		return trend.Upper
	default:
		return trend.Point
	}
}

// Package trend fits a straight line through an indicator's yearly values
// and projects it with prediction intervals.
package trend

import (
	"math"

	"eventcast/domain/forecast"
	"eventcast/internal"
	"eventcast/internal/metrics"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Fit is the fitted line and the quantities the interval needs
type Fit = forecast.TrendFit

// Estimator fits and projects linear trends. Safe for concurrent use.
type Estimator struct {
	method        CriticalMethod
	varianceFloor float64
	logger        *internal.Logger
}

// Option configures an Estimator
type Option func(*Estimator)

// WithCriticalMethod selects the critical value rule
func WithCriticalMethod(m CriticalMethod) Option {
	return func(e *Estimator) { e.method = m }
}

// WithVarianceFloor sets the lower bound of the year spread in the interval denominator
func WithVarianceFloor(floor float64) Option {
	return func(e *Estimator) { e.varianceFloor = floor }
}

// WithLogger sets the logger
func WithLogger(logger *internal.Logger) Option {
	return func(e *Estimator) { e.logger = logger }
}

// NewEstimator creates an estimator using the Student-t critical value
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		method:        CriticalStudentT,
		varianceFloor: forecast.DefaultVarianceFloor,
		logger:        internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Method returns the configured critical value rule
func (e *Estimator) Method() CriticalMethod {
	return e.method
}

// Fit regresses value on calendar year. NaN values are skipped. The series
// is expected in chronological order so that Last is the latest value.
func (e *Estimator) Fit(series []forecast.Observation) Fit {
	years := make([]float64, 0, len(series))
	values := make([]float64, 0, len(series))
	for _, o := range series {
		if math.IsNaN(o.Value) || o.Date.IsZero() {
			continue
		}
		years = append(years, float64(o.Date.Year()))
		values = append(values, o.Value)
	}

	n := len(values)
	if n < 2 {
		fit := Fit{N: n, Flat: true, Last: math.NaN()}
		if n == 1 {
			fit.Last = values[0]
		}
		return fit
	}

	meanYear, _ := stats.Mean(years)
	centered := make([]float64, n)
	copy(centered, years)
	floats.AddConst(-meanYear, centered)
	ssx := floats.Dot(centered, centered)

	var intercept, slope float64
	if ssx == 0 {
		// every observation in the same year: no slope to estimate
		intercept, _ = stats.Mean(values)
	} else {
		intercept, slope = stat.LinearRegression(years, values, nil, false)
	}

	var ssr float64
	for i := range values {
		r := values[i] - (intercept + slope*years[i])
		ssr += r * r
	}

	return Fit{
		N:         n,
		Intercept: intercept,
		Slope:     slope,
		MSE:       ssr / math.Max(float64(n-2), 1),
		MeanYear:  meanYear,
		SSX:       ssx,
		Last:      values[n-1],
	}
}

// Project evaluates the fit at each year, in the order given. Duplicated
// years produce duplicated rows.
func (e *Estimator) Project(fit Fit, years []int, confidence float64) []forecast.ForecastPoint {
	out := make([]forecast.ForecastPoint, len(years))
	if fit.Flat {
		for i, y := range years {
			out[i] = forecast.ForecastPoint{Year: y, Point: fit.Last, Lower: fit.Last, Upper: fit.Last}
		}
		return out
	}

	t := CriticalValue(e.method, fit.N, confidence)
	denom := math.Max(fit.SSX, e.varianceFloor)
	for i, y := range years {
		point := fit.Intercept + fit.Slope*float64(y)
		d := float64(y) - fit.MeanYear
		seSq := fit.MSE * (1 + 1/float64(fit.N) + d*d/denom)
		half := t * math.Sqrt(math.Max(seSq, 0))
		out[i] = forecast.ForecastPoint{Year: y, Point: point, Lower: point - half, Upper: point + half}
	}
	return out
}

// Forecast fits the series and projects it. Confidence must lie in (0, 1).
func (e *Estimator) Forecast(series []forecast.Observation, years []int, confidence float64) ([]forecast.ForecastPoint, error) {
	if err := ValidateConfidence(confidence); err != nil {
		return nil, err
	}
	fit := e.Fit(series)
	if fit.Flat {
		metrics.SparseSeries.Inc()
		e.logger.Debug("trend fit on %d observation(s), projecting flat", fit.N)
	}
	return e.Project(fit, years, confidence), nil
}

// ValidateConfidence rejects levels outside the open interval (0, 1)
func ValidateConfidence(confidence float64) error {
	return forecast.ValidateConfidence(confidence)
}

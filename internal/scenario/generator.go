// Package scenario combines the trend projection with accumulated event
// effects: event-augmented forecasts, effectiveness scenarios and the
// historical reconstruction of observed series.
package scenario

import (
	"eventcast/adapters/stats/temporal"
	"eventcast/adapters/stats/trend"
	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/internal"
	"eventcast/internal/impact"
)

// Generator produces forecasts for one indicator at a time from a set of
// input tables. It holds no per-call state and is safe for concurrent use.
type Generator struct {
	params        forecast.Params
	normalizer    *impact.Normalizer
	estimator     *trend.Estimator
	minConfidence forecast.Confidence
	logger        *internal.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithMinConfidence drops impact links below the given confidence
func WithMinConfidence(c forecast.Confidence) Option {
	return func(g *Generator) { g.minConfidence = c }
}

// WithLogger sets the logger
func WithLogger(logger *internal.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a generator. The normalizer and estimator carry their
// own configuration; params supplies the ramp and scenario constants.
func NewGenerator(params forecast.Params, normalizer *impact.Normalizer, estimator *trend.Estimator, opts ...Option) *Generator {
	g := &Generator{
		params:     params,
		normalizer: normalizer,
		estimator:  estimator,
		logger:     internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Params returns the engine parameters
func (g *Generator) Params() forecast.Params {
	return g.params
}

// CriticalMethod reports the estimator's critical value rule
func (g *Generator) CriticalMethod() trend.CriticalMethod {
	return g.estimator.Method()
}

// WithConfidenceFloor returns a copy of the generator that also drops impact
// links below c. A floor looser than the configured one has no effect. The
// receiver is unchanged.
func (g *Generator) WithConfidenceFloor(c forecast.Confidence) *Generator {
	cp := *g
	if c.Rank() > cp.minConfidence.Rank() {
		cp.minConfidence = c
	}
	return &cp
}

// MinConfidence returns the confidence floor applied to impact links
func (g *Generator) MinConfidence() forecast.Confidence {
	return g.minConfidence
}

// Resolve selects the links targeting code (all links when code is empty),
// normalizes them and joins them to their events. Links whose event is
// missing or undated are dropped here; they cannot be scheduled.
func (g *Generator) Resolve(tables *forecast.Tables, code core.IndicatorCode) []forecast.ResolvedImpact {
	links := tables.ImpactLinks
	if !code.IsEmpty() {
		links = impact.ForIndicator(links, code)
	}
	links = impact.WithMinConfidence(links, g.minConfidence)
	if len(links) == 0 {
		return nil
	}

	idx := impact.NewEventIndex(tables.Events)
	resolved, unresolved := idx.ResolveAll(g.normalizer.NormalizeAll(links))
	if len(unresolved) > 0 {
		g.logger.Debug("indicator %s: %d of %d impact links unresolved", code, len(unresolved), len(links))
	}
	return resolved
}

// Additions returns the accumulated event effect per year at the given scale.
func (g *Generator) Additions(years []int, resolved []forecast.ResolvedImpact, scale float64) []float64 {
	return temporal.AccumulateAnnual(years, resolved, scale, g.annualShape())
}

// Fit fits the indicator's linear trend without projecting it.
func (g *Generator) Fit(tables *forecast.Tables, code core.IndicatorCode) forecast.TrendFit {
	return g.estimator.Fit(tables.Series(code))
}

// Trend projects the indicator's linear trend.
func (g *Generator) Trend(tables *forecast.Tables, code core.IndicatorCode, years []int, confidence float64) ([]forecast.ForecastPoint, error) {
	return g.estimator.Forecast(tables.Series(code), years, confidence)
}

// Augmented is the trend plus accumulated event effects at the given scale.
// The bounds absorb the addition with the lower and upper band factors.
func (g *Generator) Augmented(tables *forecast.Tables, code core.IndicatorCode, years []int, scale, confidence float64) ([]forecast.ForecastPoint, error) {
	base, err := g.Trend(tables, code, years, confidence)
	if err != nil {
		return nil, err
	}
	additions := g.Additions(years, g.Resolve(tables, code), scale)
	return Augment(base, additions, g.params.LowerBandFactor, g.params.UpperBandFactor), nil
}

// Scenarios evaluates every configured profile for every year, fitting the
// trend at the scenario confidence. Rows are grouped by year, profiles in
// configured order.
func (g *Generator) Scenarios(tables *forecast.Tables, code core.IndicatorCode, years []int) ([]forecast.ScenarioForecastRow, error) {
	base, err := g.Trend(tables, code, years, g.params.ScenarioConfidence)
	if err != nil {
		return nil, err
	}

	resolved := g.Resolve(tables, code)
	additions := make([][]float64, len(g.params.Scenarios))
	for i, p := range g.params.Scenarios {
		additions[i] = g.Additions(years, resolved, p.EventScale)
	}

	rows := make([]forecast.ScenarioForecastRow, 0, len(years)*len(g.params.Scenarios))
	for yi, tp := range base {
		for pi, p := range g.params.Scenarios {
			point, lower, upper := ApplyProfile(p, tp, additions[pi][yi])
			rows = append(rows, forecast.ScenarioForecastRow{
				IndicatorCode: code,
				Year:          tp.Year,
				Scenario:      p.Scenario,
				Point:         point,
				Lower:         lower,
				Upper:         upper,
			})
		}
	}
	return rows, nil
}

// Reconstruct overlays the monthly-ramped event effects on the indicator's history.
func (g *Generator) Reconstruct(tables *forecast.Tables, code core.IndicatorCode) []forecast.AdjustedObservation {
	return temporal.Reconstruct(tables.Series(code), g.Resolve(tables, code), g.monthlyShape())
}

// Spread lays one effect out month by month over the configured ramp window.
func (g *Generator) Spread(link forecast.ImpactLink, event forecast.Event) ([]forecast.SpreadStep, error) {
	if event.PeriodStart == nil {
		return nil, core.ErrEventNotFound
	}
	imp := g.normalizer.Normalize(link)
	return temporal.Spread(*event.PeriodStart, float64(imp.Effect), imp.LagMonths, g.params.RampMonths), nil
}

func (g *Generator) annualShape() temporal.YearlyStep {
	return temporal.YearlyStep{Years: g.params.AnnualRampYears}
}

func (g *Generator) monthlyShape() temporal.MonthlyLinear {
	return temporal.MonthlyLinear{DurationMonths: g.params.RampMonths, DaysPerMonth: g.params.DaysPerMonth}
}

// Package forecast holds the tables the forecasting engine consumes and the
// rows it produces. Everything here is plain data; the algorithms live in
// internal/impact, adapters/stats and internal/scenario.
package forecast

import (
	"math"
	"sort"
	"time"

	"eventcast/domain/core"
)

// Observation is one measured value of an indicator
type Observation struct {
	IndicatorCode core.IndicatorCode `json:"indicator_code"`
	Date          time.Time          `json:"observation_date"`
	Value         float64            `json:"value_numeric"`
}

// Event is a dated policy or market occurrence. PeriodStart is nil when the
// event could not be dated; such events cannot be scheduled.
type Event struct {
	ID          core.EventID `json:"record_id"`
	Category    string       `json:"category"`
	PeriodStart *time.Time   `json:"period_start,omitempty"`
	Confidence  Confidence   `json:"confidence"`
}

// ImpactLink asserts that an event moves an indicator. It refers back to
// its event by ParentEventID only. LagMonths is nil when not annotated.
type ImpactLink struct {
	ID               core.ImpactLinkID  `json:"record_id"`
	ParentEventID    core.EventID       `json:"parent_id"`
	IndicatorCode    core.IndicatorCode `json:"indicator_code,omitempty"`
	RelatedIndicator core.IndicatorCode `json:"related_indicator,omitempty"`
	Direction        Direction          `json:"impact_direction,omitempty"`
	Magnitude        Magnitude          `json:"impact_magnitude"`
	LagMonths        *float64           `json:"lag_months,omitempty"`
	Confidence       Confidence         `json:"confidence"`
}

// Indicator returns the indicator the link targets, falling back to the
// related indicator column. ok is false when neither is set.
func (l ImpactLink) Indicator() (code core.IndicatorCode, ok bool) {
	if !l.IndicatorCode.IsEmpty() {
		return l.IndicatorCode, true
	}
	if !l.RelatedIndicator.IsEmpty() {
		return l.RelatedIndicator, true
	}
	return "", false
}

// SignedEffect is a normalized impact: magnitude with direction applied
type SignedEffect float64

// NormalizedImpact is an impact link reduced to the numbers the engine uses
type NormalizedImpact struct {
	Link      ImpactLink   `json:"link"`
	Effect    SignedEffect `json:"signed_effect"`
	LagMonths int          `json:"lag_months"`
}

// ResolvedImpact is a normalized impact whose parent event was found and dated
type ResolvedImpact struct {
	NormalizedImpact
	Event       Event     `json:"event"`
	PeriodStart time.Time `json:"period_start"`
}

// TrendFit is a fitted value-on-year line and the quantities its
// prediction interval needs
type TrendFit struct {
	N         int     `json:"n"`
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	MSE       float64 `json:"mse"`
	MeanYear  float64 `json:"mean_year"`
	SSX       float64 `json:"ssx"`
	// Flat is set when fewer than two observations were available and the
	// projection is a constant with zero width.
	Flat bool `json:"flat"`
	// Last is the latest observed value, used for flat projections.
	Last float64 `json:"last"`
}

// ValidateConfidence rejects levels outside the open interval (0, 1)
func ValidateConfidence(confidence float64) error {
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return core.ErrInvalidConfidence
	}
	return nil
}

// ForecastPoint is one projected year
type ForecastPoint struct {
	Year  int     `json:"year"`
	Point float64 `json:"forecast"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// HasValue is false for the no-data sentinel produced when an indicator has no observations.
func (p ForecastPoint) HasValue() bool {
	return !math.IsNaN(p.Point)
}

// Scenario names an effectiveness profile
type Scenario string

const (
	ScenarioPessimistic Scenario = "pessimistic"
	ScenarioBase        Scenario = "base"
	ScenarioOptimistic  Scenario = "optimistic"
)

// ScenarioForecastRow is one (year, scenario) row of the long-format scenario table
type ScenarioForecastRow struct {
	IndicatorCode core.IndicatorCode `json:"indicator"`
	Year          int                `json:"year"`
	Scenario      Scenario           `json:"scenario"`
	Point         float64            `json:"forecast"`
	Lower         float64            `json:"lower"`
	Upper         float64            `json:"upper"`
}

// AdjustedObservation is a historical observation with the cumulative event
// effect that had built up by its date
type AdjustedObservation struct {
	Observation
	Addition float64 `json:"impact_addition"`
	Adjusted float64 `json:"value_impacted"`
}

// SpreadStep is one month of an effect spread evenly over its ramp window
type SpreadStep struct {
	Month  time.Time `json:"date"`
	Effect float64   `json:"monthly_effect"`
}

// Tables is the engine's complete input
type Tables struct {
	Observations []Observation `json:"observations"`
	Events       []Event       `json:"events"`
	ImpactLinks  []ImpactLink  `json:"impact_links"`
}

// Indicators lists the distinct indicator codes that have observations, sorted.
func (t *Tables) Indicators() []core.IndicatorCode {
	seen := make(map[core.IndicatorCode]bool)
	var codes []core.IndicatorCode
	for _, o := range t.Observations {
		if o.IndicatorCode.IsEmpty() || seen[o.IndicatorCode] {
			continue
		}
		seen[o.IndicatorCode] = true
		codes = append(codes, o.IndicatorCode)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Series returns the observations of one indicator in chronological order.
// Same-date duplicates are kept in input order.
func (t *Tables) Series(code core.IndicatorCode) []Observation {
	var series []Observation
	for _, o := range t.Observations {
		if o.IndicatorCode == code {
			series = append(series, o)
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// Clone returns a deep copy, so callers may mutate the result freely
func (t *Tables) Clone() *Tables {
	out := &Tables{
		Observations: append([]Observation(nil), t.Observations...),
		Events:       make([]Event, len(t.Events)),
		ImpactLinks:  make([]ImpactLink, len(t.ImpactLinks)),
	}
	for i, e := range t.Events {
		if e.PeriodStart != nil {
			start := *e.PeriodStart
			e.PeriodStart = &start
		}
		out.Events[i] = e
	}
	for i, l := range t.ImpactLinks {
		if l.LagMonths != nil {
			lag := *l.LagMonths
			l.LagMonths = &lag
		}
		out.ImpactLinks[i] = l
	}
	return out
}

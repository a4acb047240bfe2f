package run

import (
	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// Request describes one forecast run
type Request struct {
	// Indicators to forecast; empty means every indicator with observations.
	Indicators []core.IndicatorCode `json:"indicators,omitempty"`
	Years      []int                `json:"years"`
	Confidence float64              `json:"confidence"`
	EventScale float64              `json:"event_scale"`

	Scenarios   bool `json:"scenarios"`
	Reconstruct bool `json:"reconstruct"`
	Matrix      bool `json:"matrix"`

	MinConfidence forecast.Confidence `json:"min_confidence,omitempty"`
}

// Validate checks the request can be run. Indicators are checked later,
// against the tables.
func (r Request) Validate() error {
	if len(r.Years) == 0 {
		return core.ErrNoForecastYears
	}
	if err := forecast.ValidateConfidence(r.Confidence); err != nil {
		return err
	}
	return nil
}

// IndicatorResult holds everything computed for one indicator
type IndicatorResult struct {
	Indicator core.IndicatorCode             `json:"indicator"`
	Fit       forecast.TrendFit              `json:"fit"`
	Trend     []forecast.ForecastPoint       `json:"trend"`
	Augmented []forecast.ForecastPoint       `json:"augmented"`
	Scenarios []forecast.ScenarioForecastRow `json:"scenarios,omitempty"`
	History   []forecast.AdjustedObservation `json:"history,omitempty"`
}

// Report is the complete output of a run. Results are ordered by indicator code.
type Report struct {
	Manifest *Manifest              `json:"manifest"`
	Results  []IndicatorResult      `json:"results"`
	Matrix   *forecast.ImpactMatrix `json:"matrix,omitempty"`
}

// Result returns the result for one indicator
func (r *Report) Result(code core.IndicatorCode) (*IndicatorResult, bool) {
	for i := range r.Results {
		if r.Results[i].Indicator == code {
			return &r.Results[i], true
		}
	}
	return nil, false
}

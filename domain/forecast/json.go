package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"eventcast/domain/core"
)

// encoding/json rejects NaN, which is how an indicator without observations
// projects. Those values are written as null.

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year  int      `json:"year"`
		Point *float64 `json:"forecast"`
		Lower *float64 `json:"lower"`
		Upper *float64 `json:"upper"`
	}{p.Year, finiteOrNil(p.Point), finiteOrNil(p.Lower), finiteOrNil(p.Upper)})
}

func (r ScenarioForecastRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IndicatorCode string   `json:"indicator"`
		Year          int      `json:"year"`
		Scenario      Scenario `json:"scenario"`
		Point         *float64 `json:"forecast"`
		Lower         *float64 `json:"lower"`
		Upper         *float64 `json:"upper"`
	}{string(r.IndicatorCode), r.Year, r.Scenario, finiteOrNil(r.Point), finiteOrNil(r.Lower), finiteOrNil(r.Upper)})
}

func (f TrendFit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		N         int      `json:"n"`
		Intercept float64  `json:"intercept"`
		Slope     float64  `json:"slope"`
		MSE       float64  `json:"mse"`
		MeanYear  float64  `json:"mean_year"`
		SSX       float64  `json:"ssx"`
		Flat      bool     `json:"flat"`
		Last      *float64 `json:"last"`
	}{f.N, f.Intercept, f.Slope, f.MSE, f.MeanYear, f.SSX, f.Flat, finiteOrNil(f.Last)})
}

// dateLayouts are accepted for dates in request bodies
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func parseJSONDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

type observationJSON struct {
	IndicatorCode string   `json:"indicator_code"`
	Date          string   `json:"observation_date"`
	Value         *float64 `json:"value_numeric"`
}

func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{string(o.IndicatorCode), o.Date.Format(time.RFC3339), finiteOrNil(o.Value)})
}

// UnmarshalJSON accepts RFC 3339 or YYYY-MM-DD dates; a null value is NaN.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw observationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: observation: %v", core.ErrConversion, err)
	}
	date, err := parseJSONDate(raw.Date)
	if err != nil {
		return fmt.Errorf("%w: observation_date %q: %v", core.ErrConversion, raw.Date, err)
	}
	*o = Observation{IndicatorCode: core.IndicatorCode(raw.IndicatorCode), Date: date, Value: math.NaN()}
	if raw.Value != nil {
		o.Value = *raw.Value
	}
	return nil
}

// AdjustedObservation needs its own methods; the promoted Observation ones
// would drop the adjustment fields.

func (a AdjustedObservation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		observationJSON
		Addition float64  `json:"impact_addition"`
		Adjusted *float64 `json:"value_impacted"`
	}{
		observationJSON{string(a.IndicatorCode), a.Date.Format(time.RFC3339), finiteOrNil(a.Value)},
		a.Addition,
		finiteOrNil(a.Adjusted),
	})
}

func (a *AdjustedObservation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Addition float64  `json:"impact_addition"`
		Adjusted *float64 `json:"value_impacted"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: adjusted observation: %v", core.ErrConversion, err)
	}
	if err := a.Observation.UnmarshalJSON(data); err != nil {
		return err
	}
	a.Addition = raw.Addition
	a.Adjusted = math.NaN()
	if raw.Adjusted != nil {
		a.Adjusted = *raw.Adjusted
	}
	return nil
}

// UnmarshalJSON accepts RFC 3339 or YYYY-MM-DD for period_start
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string     `json:"record_id"`
		Category    string     `json:"category"`
		PeriodStart *string    `json:"period_start"`
		Confidence  Confidence `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: event: %v", core.ErrConversion, err)
	}
	*e = Event{ID: core.EventID(raw.ID), Category: raw.Category, Confidence: ParseConfidence(string(raw.Confidence))}
	if raw.PeriodStart != nil && *raw.PeriodStart != "" {
		start, err := parseJSONDate(*raw.PeriodStart)
		if err != nil {
			return fmt.Errorf("%w: period_start %q: %v", core.ErrConversion, *raw.PeriodStart, err)
		}
		e.PeriodStart = &start
	}
	return nil
}

// MarshalJSON writes a magnitude the way it is annotated: a number, a
// label, or null when missing.
func (m Magnitude) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MagnitudeNumeric:
		return json.Marshal(finiteOrNil(m.Value))
	case MagnitudeCategorical:
		return json.Marshal(m.Label)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads a number, a string (classified like a raw cell) or null.
func (m *Magnitude) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*m = MissingMagnitude()
	case float64:
		*m = NumericMagnitude(x)
	case string:
		*m = ParseMagnitude(x)
	default:
		return fmt.Errorf("%w: impact_magnitude: unsupported value %s", core.ErrConversion, string(data))
	}
	return nil
}

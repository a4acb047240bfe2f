package forecast

import (
	"math"
	"strings"

	"eventcast/domain/core"
)

// Default engine constants
const (
	DefaultMagnitudeValue     = 0.1
	DefaultAnnualRampYears    = 3
	DefaultRampMonths         = 36
	DefaultDaysPerMonth       = 30.44
	DefaultLowerBandFactor    = 0.8
	DefaultUpperBandFactor    = 1.2
	DefaultScenarioConfidence = 0.68
	DefaultVarianceFloor      = 1e-6
)

// BoundBase selects which trend value a scenario bound is built from
type BoundBase string

const (
	BaseTrendPoint BoundBase = "point"
	BaseTrendLower BoundBase = "lower"
	BaseTrendUpper BoundBase = "upper"
)

// ScenarioProfile holds the multipliers of one scenario. With trend values
// (pt, lo, hi) and event addition a computed at EventScale:
//
//	point = PointTrend*pt + a
//	lower = LowerTrend*<LowerBase> + LowerEvent*a
//	upper = UpperTrend*<UpperBase> + UpperEvent*a
type ScenarioProfile struct {
	Scenario   Scenario  `json:"scenario" mapstructure:"scenario"`
	EventScale float64   `json:"event_scale" mapstructure:"event_scale"`
	PointTrend float64   `json:"point_trend" mapstructure:"point_trend"`
	LowerBase  BoundBase `json:"lower_base" mapstructure:"lower_base"`
	LowerTrend float64   `json:"lower_trend" mapstructure:"lower_trend"`
	LowerEvent float64   `json:"lower_event" mapstructure:"lower_event"`
	UpperBase  BoundBase `json:"upper_base" mapstructure:"upper_base"`
	UpperTrend float64   `json:"upper_trend" mapstructure:"upper_trend"`
	UpperEvent float64   `json:"upper_event" mapstructure:"upper_event"`
}

// Params are the constants the engine is parameterised by. Callers start
// from DefaultParams and override fields; tests vary them freely.
type Params struct {
	// MagnitudeScale maps categorical magnitudes (lower-case) to numbers.
	MagnitudeScale map[string]float64
	// DefaultMagnitude is used for missing, unmapped or unparseable magnitudes.
	DefaultMagnitude float64
	// NeutralAsZero gives "neutral" links a zero sign. Off by default: neutral
	// and unrecognised directions count as positive unless they read as
	// negative, which is almost certainly an upstream artefact but is what
	// existing forecasts were produced with.
	NeutralAsZero bool

	// AnnualRampYears is the number of calendar years an effect takes to
	// reach full strength in forward projections.
	AnnualRampYears int
	// RampMonths is the window over which an effect ramps in for
	// historical reconstruction.
	RampMonths int
	// DaysPerMonth converts elapsed days to months.
	DaysPerMonth float64

	// LowerBandFactor and UpperBandFactor scale the event addition applied
	// to the trend bounds in event-augmented forecasts.
	LowerBandFactor float64
	UpperBandFactor float64

	// ScenarioConfidence is the confidence the scenario trend is fitted at.
	ScenarioConfidence float64
	Scenarios          []ScenarioProfile

	// VarianceFloor guards the year-spread denominator of the prediction error.
	VarianceFloor float64
}

// DefaultMagnitudeScale returns the categorical magnitude map
func DefaultMagnitudeScale() map[string]float64 {
	return map[string]float64{
		"low":    0.5,
		"medium": 1.5,
		"high":   3.0,
	}
}

// DefaultScenarioProfiles returns the pessimistic, base and optimistic profiles
func DefaultScenarioProfiles() []ScenarioProfile {
	return []ScenarioProfile{
		{
			Scenario: ScenarioPessimistic, EventScale: 0.5, PointTrend: 0.95,
			LowerBase: BaseTrendLower, LowerTrend: 0.9, LowerEvent: 0.8,
			UpperBase: BaseTrendPoint, UpperTrend: 0.95, UpperEvent: 1.2,
		},
		{
			Scenario: ScenarioBase, EventScale: 1.0, PointTrend: 1.0,
			LowerBase: BaseTrendLower, LowerTrend: 1.0, LowerEvent: 0.9,
			UpperBase: BaseTrendUpper, UpperTrend: 1.0, UpperEvent: 1.1,
		},
		{
			Scenario: ScenarioOptimistic, EventScale: 1.5, PointTrend: 1.05,
			LowerBase: BaseTrendPoint, LowerTrend: 1.02, LowerEvent: 0.9,
			UpperBase: BaseTrendUpper, UpperTrend: 1.1, UpperEvent: 1.2,
		},
	}
}

// DefaultParams returns the engine defaults
func DefaultParams() Params {
	return Params{
		MagnitudeScale:     DefaultMagnitudeScale(),
		DefaultMagnitude:   DefaultMagnitudeValue,
		AnnualRampYears:    DefaultAnnualRampYears,
		RampMonths:         DefaultRampMonths,
		DaysPerMonth:       DefaultDaysPerMonth,
		LowerBandFactor:    DefaultLowerBandFactor,
		UpperBandFactor:    DefaultUpperBandFactor,
		ScenarioConfidence: DefaultScenarioConfidence,
		Scenarios:          DefaultScenarioProfiles(),
		VarianceFloor:      DefaultVarianceFloor,
	}
}

// MagnitudeFor looks up a category label, case-insensitively.
func (p Params) MagnitudeFor(label string) (float64, bool) {
	v, ok := p.MagnitudeScale[strings.ToLower(strings.TrimSpace(label))]
	return v, ok
}

// Validate checks that the parameters can drive the engine
func (p Params) Validate() error {
	if len(p.MagnitudeScale) == 0 {
		return core.NewParamsError("magnitude_scale", "must not be empty")
	}
	if math.IsNaN(p.DefaultMagnitude) || math.IsInf(p.DefaultMagnitude, 0) {
		return core.NewParamsError("default_magnitude", "must be finite")
	}
	if p.AnnualRampYears < 1 {
		return core.NewParamsError("annual_ramp_years", "must be at least 1")
	}
	if p.RampMonths < 1 {
		return core.NewParamsError("ramp_months", "must be at least 1")
	}
	if p.DaysPerMonth <= 0 {
		return core.NewParamsError("days_per_month", "must be positive")
	}
	if p.ScenarioConfidence <= 0 || p.ScenarioConfidence >= 1 {
		return core.NewParamsError("scenario_confidence", "must be in (0, 1)")
	}
	if p.VarianceFloor <= 0 {
		return core.NewParamsError("variance_floor", "must be positive")
	}
	seen := make(map[Scenario]bool, len(p.Scenarios))
	for _, s := range p.Scenarios {
		if s.Scenario == "" {
			return core.NewParamsError("scenarios", "profile without a name")
		}
		if seen[s.Scenario] {
			return core.NewParamsError("scenarios", "duplicate profile "+string(s.Scenario))
		}
		seen[s.Scenario] = true
		for _, b := range []BoundBase{s.LowerBase, s.UpperBase} {
			if b != BaseTrendPoint && b != BaseTrendLower && b != BaseTrendUpper {
				return core.NewParamsError("scenarios", "unknown bound base "+string(b))
			}
		}
	}
	return nil
}

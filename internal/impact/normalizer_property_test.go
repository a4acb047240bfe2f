//go:build property
// +build property

package impact

import (
	"math"
	"testing"

	"eventcast/domain/forecast"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: normalizing an already signed effect with no direction returns it unchanged
func TestRenormalizeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	n, _ := newTestNormalizer(forecast.DefaultParams())

	properties.Property("renormalize is the identity on finite effects", prop.ForAll(
		func(v float64, dir string) bool {
			effect := n.Normalize(forecast.ImpactLink{
				Magnitude: forecast.NumericMagnitude(v),
				Direction: forecast.Direction(dir),
			}).Effect
			return n.Renormalize(effect) == effect
		},
		gen.Float64Range(-1e6, 1e6),
		gen.OneConstOf("increase", "decrease", "positive", "negative", "neutral", ""),
	))

	properties.TestingRun(t)
}

// Property: the sign never changes the magnitude, only its direction
func TestSignPreservesMagnitudeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	n, _ := newTestNormalizer(forecast.DefaultParams())

	properties.Property("|effect| equals magnitude", prop.ForAll(
		func(v float64, dir string) bool {
			link := forecast.ImpactLink{Magnitude: forecast.NumericMagnitude(v), Direction: forecast.Direction(dir)}
			return math.Abs(float64(n.Normalize(link).Effect)) == math.Abs(n.Magnitude(link))
		},
		gen.Float64Range(-100, 100),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: lags are never negative
func TestLagNonNegativeProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	n, _ := newTestNormalizer(forecast.DefaultParams())

	properties.Property("lag >= 0", prop.ForAll(
		func(v float64) bool {
			return n.Normalize(forecast.ImpactLink{LagMonths: &v}).LagMonths >= 0
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

// Package impact turns hand-annotated event→indicator impact links into the
// signed numeric effects the accumulators work with, resolves them against
// their events and pivots them into the event × indicator matrix.
package impact

import (
	"math"
	"strconv"
	"strings"

	"eventcast/domain/forecast"
	"eventcast/internal"
	"eventcast/internal/metrics"
)

// Fields reported to the unrecognized-annotation hook
const (
	FieldMagnitude = "magnitude"
	FieldDirection = "direction"
	FieldLag       = "lag"
)

// UnrecognizedHook is told about every annotation that was replaced by a default
type UnrecognizedHook func(field string)

// Normalizer converts impact annotations into signed effects. It is
// stateless apart from its parameters and safe for concurrent use.
type Normalizer struct {
	params       forecast.Params
	logger       *internal.Logger
	unrecognized UnrecognizedHook
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithLogger sets the logger used for data-quality warnings
func WithLogger(logger *internal.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// WithUnrecognizedHook replaces the default metrics hook
func WithUnrecognizedHook(hook UnrecognizedHook) Option {
	return func(n *Normalizer) { n.unrecognized = hook }
}

// NewNormalizer creates a normalizer over the given parameters
func NewNormalizer(params forecast.Params, opts ...Option) *Normalizer {
	n := &Normalizer{
		params:       params,
		logger:       internal.DefaultLogger,
		unrecognized: metrics.RecordUnrecognized,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Params returns the parameters the normalizer was built with
func (n *Normalizer) Params() forecast.Params {
	return n.params
}

// Normalize reduces one link to its signed effect and lag in whole months.
func (n *Normalizer) Normalize(link forecast.ImpactLink) forecast.NormalizedImpact {
	magnitude := n.magnitude(link)
	sign := n.sign(link)
	return forecast.NormalizedImpact{
		Link:      link,
		Effect:    forecast.SignedEffect(sign * magnitude),
		LagMonths: n.lag(link),
	}
}

// NormalizeAll normalizes links in order
func (n *Normalizer) NormalizeAll(links []forecast.ImpactLink) []forecast.NormalizedImpact {
	out := make([]forecast.NormalizedImpact, len(links))
	for i, link := range links {
		out[i] = n.Normalize(link)
	}
	return out
}

// Renormalize feeds an already signed effect back through the rules as a
// bare numeric magnitude with no direction. The value comes back unchanged.
func (n *Normalizer) Renormalize(effect forecast.SignedEffect) forecast.SignedEffect {
	return n.Normalize(forecast.ImpactLink{Magnitude: forecast.NumericMagnitude(float64(effect))}).Effect
}

// Magnitude returns the numeric magnitude of a link, before direction.
func (n *Normalizer) Magnitude(link forecast.ImpactLink) float64 {
	return n.magnitude(link)
}

// Sign returns +1 or -1 (or 0 for neutral when NeutralAsZero is set).
func (n *Normalizer) Sign(link forecast.ImpactLink) float64 {
	return n.sign(link)
}

func (n *Normalizer) magnitude(link forecast.ImpactLink) float64 {
	m := link.Magnitude
	switch m.Kind {
	case forecast.MagnitudeNumeric:
		if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			n.report(FieldMagnitude, link, m.String())
			return n.params.DefaultMagnitude
		}
		return m.Value
	case forecast.MagnitudeCategorical:
		if v, ok := n.params.MagnitudeFor(m.Label); ok {
			return v
		}
		n.report(FieldMagnitude, link, m.Label)
		return n.params.DefaultMagnitude
	default:
		n.logger.Trace("impact link %s has no magnitude, using %.2f", link.ID, n.params.DefaultMagnitude)
		return n.params.DefaultMagnitude
	}
}

func (n *Normalizer) sign(link forecast.ImpactLink) float64 {
	dir := link.Direction.Normalized()
	switch forecast.Direction(dir) {
	case forecast.DirectionIncrease, forecast.DirectionPositive:
		return 1
	case forecast.DirectionDecrease, forecast.DirectionNegative:
		return -1
	case forecast.DirectionNeutral:
		if n.params.NeutralAsZero {
			return 0
		}
		return 1
	case "":
		return 1
	}

	n.report(FieldDirection, link, string(link.Direction))
	if strings.Contains(dir, "neg") || strings.Contains(dir, "dec") {
		return -1
	}
	return 1
}

func (n *Normalizer) lag(link forecast.ImpactLink) int {
	if link.LagMonths == nil {
		return 0
	}
	v := *link.LagMonths
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		n.report(FieldLag, link, strconv.FormatFloat(v, 'g', -1, 64))
		return 0
	}
	return int(math.Floor(v))
}

func (n *Normalizer) report(field string, link forecast.ImpactLink, raw string) {
	n.logger.Warn("impact link %s: unrecognized %s %q, using default", link.ID, field, raw)
	if n.unrecognized != nil {
		n.unrecognized(field)
	}
}

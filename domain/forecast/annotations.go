package forecast

import (
	"math"
	"strconv"
	"strings"
)

// MagnitudeKind says how an impact magnitude was annotated
type MagnitudeKind string

const (
	MagnitudeMissing     MagnitudeKind = "missing"
	MagnitudeNumeric     MagnitudeKind = "numeric"
	MagnitudeCategorical MagnitudeKind = "categorical"
)

// Magnitude is an impact size as annotated upstream: either a number or a
// category label such as "medium". Labels are kept verbatim; lookups are
// case-insensitive.
type Magnitude struct {
	Kind  MagnitudeKind `json:"kind"`
	Value float64       `json:"value,omitempty"`
	Label string        `json:"label,omitempty"`
}

func NumericMagnitude(v float64) Magnitude {
	return Magnitude{Kind: MagnitudeNumeric, Value: v}
}

func CategoricalMagnitude(label string) Magnitude {
	return Magnitude{Kind: MagnitudeCategorical, Label: label}
}

func MissingMagnitude() Magnitude {
	return Magnitude{Kind: MagnitudeMissing}
}

// ParseMagnitude classifies a raw cell. Numeric text becomes a numeric
// magnitude, blank text is missing, anything else is a category label.
func ParseMagnitude(raw string) Magnitude {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return MissingMagnitude()
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return NumericMagnitude(v)
	}
	return CategoricalMagnitude(s)
}

func (m Magnitude) String() string {
	switch m.Kind {
	case MagnitudeNumeric:
		return strconv.FormatFloat(m.Value, 'g', -1, 64)
	case MagnitudeCategorical:
		return m.Label
	default:
		return ""
	}
}

// Direction is the free-form direction annotation of an impact link
// ("increase", "Negative", "neutral", ...). Empty means not annotated.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionPositive Direction = "positive"
	DirectionDecrease Direction = "decrease"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// Normalized returns the trimmed, lower-cased direction text.
func (d Direction) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(d)))
}

// IsKnown reports whether the direction is one of the recognised labels.
func (d Direction) IsKnown() bool {
	switch Direction(d.Normalized()) {
	case DirectionIncrease, DirectionPositive, DirectionDecrease, DirectionNegative, DirectionNeutral:
		return true
	}
	return false
}

// Confidence is the annotator's confidence in an event or link
type Confidence string

const (
	ConfidenceUnknown Confidence = ""
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
)

// ParseConfidence maps free text onto the confidence scale; anything
// unrecognised is ConfidenceUnknown.
func ParseConfidence(raw string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfidenceLow:
		return ConfidenceLow
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceHigh:
		return ConfidenceHigh
	}
	return ConfidenceUnknown
}

// Rank orders confidences; unknown ranks lowest.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	}
	return 0
}

// AtLeast reports whether c meets the minimum. An unset minimum admits everything.
func (c Confidence) AtLeast(min Confidence) bool {
	if min == ConfidenceUnknown {
		return true
	}
	return c.Rank() >= min.Rank()
}

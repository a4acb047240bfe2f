package impact

import (
	"math"
	"testing"
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lag(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := core.Date(y, m, d)
	return &t
}

type hookRecorder struct {
	fields []string
}

func (r *hookRecorder) record(field string) { r.fields = append(r.fields, field) }

func newTestNormalizer(params forecast.Params) (*Normalizer, *hookRecorder) {
	rec := &hookRecorder{}
	n := NewNormalizer(params,
		WithLogger(internal.NewNopLogger()),
		WithUnrecognizedHook(rec.record),
	)
	return n, rec
}

func TestNormalizeMagnitude(t *testing.T) {
	n, rec := newTestNormalizer(forecast.DefaultParams())

	tests := []struct {
		name      string
		magnitude forecast.Magnitude
		direction forecast.Direction
		expected  float64
	}{
		{"categorical medium increase", forecast.CategoricalMagnitude("medium"), "increase", 1.5},
		{"categorical upper case", forecast.CategoricalMagnitude("HIGH"), "positive", 3.0},
		{"categorical low decrease", forecast.CategoricalMagnitude("low"), "decrease", -0.5},
		{"numeric negative direction", forecast.NumericMagnitude(2.5), "Negative", -2.5},
		{"missing magnitude", forecast.MissingMagnitude(), "increase", 0.1},
		{"unknown label", forecast.CategoricalMagnitude("huge"), "increase", 0.1},
		{"no direction", forecast.NumericMagnitude(4), "", 4},
		{"neutral counts positive", forecast.NumericMagnitude(2), "neutral", 2},
		{"unknown negative-looking", forecast.NumericMagnitude(2), "declining", -2},
		{"unknown other", forecast.NumericMagnitude(2), "sideways", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := n.Normalize(forecast.ImpactLink{Magnitude: tt.magnitude, Direction: tt.direction})
			assert.InDelta(t, tt.expected, float64(imp.Effect), 1e-12)
		})
	}

	assert.Equal(t, []string{FieldMagnitude, FieldDirection, FieldDirection}, rec.fields)
}

func TestNormalizeNeutralAsZero(t *testing.T) {
	params := forecast.DefaultParams()
	params.NeutralAsZero = true
	n, _ := newTestNormalizer(params)

	imp := n.Normalize(forecast.ImpactLink{Magnitude: forecast.CategoricalMagnitude("high"), Direction: "neutral"})
	assert.Equal(t, forecast.SignedEffect(0), imp.Effect)
}

func TestNormalizeLag(t *testing.T) {
	n, rec := newTestNormalizer(forecast.DefaultParams())

	tests := []struct {
		name     string
		lag      *float64
		expected int
	}{
		{"missing", nil, 0},
		{"whole", lag(6), 6},
		{"fractional floors", lag(6.9), 6},
		{"negative", lag(-3), 0},
		{"nan", lag(math.NaN()), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := n.Normalize(forecast.ImpactLink{LagMonths: tt.lag})
			assert.Equal(t, tt.expected, imp.LagMonths)
		})
	}
	assert.Equal(t, []string{FieldLag, FieldLag}, rec.fields)
}

func TestRenormalizeIsIdentity(t *testing.T) {
	n, _ := newTestNormalizer(forecast.DefaultParams())

	for _, link := range []forecast.ImpactLink{
		{Magnitude: forecast.CategoricalMagnitude("medium"), Direction: "decrease"},
		{Magnitude: forecast.NumericMagnitude(0.25), Direction: "increase"},
		{Magnitude: forecast.MissingMagnitude(), Direction: "negative"},
	} {
		once := n.Normalize(link).Effect
		assert.Equal(t, once, n.Renormalize(once))
	}
}

func TestEventIndexResolve(t *testing.T) {
	idx := NewEventIndex([]forecast.Event{
		{ID: "e1", PeriodStart: date(2021, time.May, 1)},
		{ID: "e2"},
		{ID: "e1", PeriodStart: date(1999, time.January, 1)},
	})
	assert.Equal(t, 2, idx.Len())

	imps := []forecast.NormalizedImpact{
		{Link: forecast.ImpactLink{ID: "l1", ParentEventID: "e1"}, Effect: 1},
		{Link: forecast.ImpactLink{ID: "l2", ParentEventID: "e2"}, Effect: 1},
		{Link: forecast.ImpactLink{ID: "l3", ParentEventID: "missing"}, Effect: 1},
	}
	resolved, unresolved := idx.ResolveAll(imps)

	require.Len(t, resolved, 1)
	assert.Equal(t, core.Date(2021, time.May, 1), resolved[0].PeriodStart)
	require.Len(t, unresolved, 2)
	assert.Equal(t, core.ImpactLinkID("l2"), unresolved[0].Link.ID)
	assert.Equal(t, core.ImpactLinkID("l3"), unresolved[1].Link.ID)
}

func TestForIndicatorMatchesEitherColumn(t *testing.T) {
	links := []forecast.ImpactLink{
		{ID: "a", IndicatorCode: "X"},
		{ID: "b", RelatedIndicator: "X"},
		{ID: "c", IndicatorCode: "Y", RelatedIndicator: "X"},
		{ID: "d", IndicatorCode: "Y"},
	}

	got := ForIndicator(links, "X")
	require.Len(t, got, 3)
	assert.Equal(t, core.ImpactLinkID("a"), got[0].ID)
	assert.Equal(t, core.ImpactLinkID("b"), got[1].ID)
	assert.Equal(t, core.ImpactLinkID("c"), got[2].ID)

	got = ForIndicator(links, "Y")
	require.Len(t, got, 2)
	assert.Equal(t, core.ImpactLinkID("c"), got[0].ID)
	assert.Equal(t, core.ImpactLinkID("d"), got[1].ID)
}

func TestForIndicatorHasNoFallback(t *testing.T) {
	links := []forecast.ImpactLink{{ID: "a", IndicatorCode: "X"}}
	assert.Empty(t, ForIndicator(links, "Z"))
	assert.Empty(t, ForIndicator(links, ""))
}

func TestWithMinConfidence(t *testing.T) {
	links := []forecast.ImpactLink{
		{ID: "a", Confidence: forecast.ConfidenceLow},
		{ID: "b", Confidence: forecast.ConfidenceHigh},
		{ID: "c"},
	}
	assert.Len(t, WithMinConfidence(links, forecast.ConfidenceUnknown), 3)

	got := WithMinConfidence(links, forecast.ConfidenceMedium)
	require.Len(t, got, 1)
	assert.Equal(t, core.ImpactLinkID("b"), got[0].ID)
}

func TestMatrixBuilder(t *testing.T) {
	n, _ := newTestNormalizer(forecast.DefaultParams())
	builder := NewMatrixBuilder(n)

	events := []forecast.Event{
		{ID: "e1", PeriodStart: date(2021, time.January, 1)},
		{ID: "e2", PeriodStart: date(2022, time.June, 1)},
		{ID: "undated"},
	}
	links := []forecast.ImpactLink{
		{ID: "1", ParentEventID: "e1", IndicatorCode: "X", Magnitude: forecast.CategoricalMagnitude("medium"), Direction: "increase"},
		{ID: "2", ParentEventID: "e1", IndicatorCode: "X", Magnitude: forecast.CategoricalMagnitude("low"), Direction: "decrease"},
		{ID: "3", ParentEventID: "e2", RelatedIndicator: "Y", Magnitude: forecast.NumericMagnitude(2), Direction: "positive"},
		{ID: "4", ParentEventID: "undated", IndicatorCode: "Z", Magnitude: forecast.CategoricalMagnitude("high")},
		{ID: "5", ParentEventID: "ghost", IndicatorCode: "X", Magnitude: forecast.CategoricalMagnitude("high")},
		{ID: "6", ParentEventID: "e2", Magnitude: forecast.CategoricalMagnitude("high")},
	}

	m := builder.Build(links, events)

	assert.Equal(t, []core.EventID{"e1", "e2", "ghost", "undated"}, m.Events())
	assert.Equal(t, []core.IndicatorCode{"X", "Y", "Z"}, m.Indicators())
	assert.InDelta(t, 1.0, m.Get("e1", "X"), 1e-12)
	assert.InDelta(t, 2.0, m.Get("e2", "Y"), 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, m.Row("undated"))
	assert.Equal(t, []float64{0, 0, 0}, m.Row("ghost"))
}

func TestMatrixBuilderEmpty(t *testing.T) {
	n, _ := newTestNormalizer(forecast.DefaultParams())
	m := NewMatrixBuilder(n).Build(nil, nil)
	assert.Empty(t, m.Events())
	assert.Empty(t, m.Indicators())
}

package scenario

import (
	"math"
	"testing"
	"time"

	"eventcast/adapters/stats/trend"
	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/internal"
	"eventcast/internal/impact"
	"eventcast/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func newTestGenerator(opts ...Option) *Generator {
	params := forecast.DefaultParams()
	nop := internal.NewNopLogger()
	normalizer := impact.NewNormalizer(params, impact.WithLogger(nop), impact.WithUnrecognizedHook(func(string) {}))
	estimator := trend.NewEstimator(trend.WithLogger(nop))
	return NewGenerator(params, normalizer, estimator, append([]Option{WithLogger(nop)}, opts...)...)
}

func TestResolveMatchesRelatedIndicator(t *testing.T) {
	g := newTestGenerator()
	tables := testkit.EthiopiaTables()

	resolved := g.Resolve(tables, testkit.MobileMoneyAccounts)
	require.Len(t, resolved, 2)
	for _, r := range resolved {
		assert.InDelta(t, 0.1, float64(r.Effect), tol)
		assert.Equal(t, 0, r.LagMonths)
	}

	assert.Len(t, g.Resolve(tables, testkit.BankAccounts), 1)
	assert.Empty(t, g.Resolve(tables, testkit.MobileMoneyActive))
	assert.Len(t, g.Resolve(tables, ""), 3)
}

func TestAdditionsRampIn(t *testing.T) {
	g := newTestGenerator()
	tables := testkit.EthiopiaTables()

	additions := g.Additions([]int{2019, 2020, 2021, 2026}, g.Resolve(tables, testkit.MobileMoneyAccounts), 1.0)
	assert.InDelta(t, 0, additions[0], tol)
	assert.InDelta(t, 0.1/3, additions[1], tol)
	assert.InDelta(t, 0.2/3+0.1/3, additions[2], tol)
	assert.InDelta(t, 0.2, additions[3], tol)
}

func TestAdditionsIncludeLinksRelatedToIndicator(t *testing.T) {
	g := newTestGenerator()
	start := core.Date(2021, time.January, 1)
	tables := &forecast.Tables{
		Events: []forecast.Event{{ID: "e1", PeriodStart: &start}},
		ImpactLinks: []forecast.ImpactLink{
			{ID: "l1", ParentEventID: "e1", IndicatorCode: "A", Direction: "increase", Magnitude: forecast.NumericMagnitude(3)},
			{ID: "l2", ParentEventID: "e1", IndicatorCode: "B", RelatedIndicator: "A", Direction: "increase", Magnitude: forecast.NumericMagnitude(3)},
		},
	}

	resolved := g.Resolve(tables, "A")
	require.Len(t, resolved, 2)

	additions := g.Additions([]int{2020, 2021, 2023}, resolved, 1.0)
	assert.InDelta(t, 0, additions[0], tol)
	assert.InDelta(t, 2, additions[1], tol)
	assert.InDelta(t, 6, additions[2], tol)

	assert.Len(t, g.Resolve(tables, "B"), 1)
}

func TestAugmentedForecast(t *testing.T) {
	g := newTestGenerator()
	points, err := g.Augmented(testkit.EthiopiaTables(), testkit.MobileMoneyAccounts, []int{2026}, 1.0, 0.95)
	require.NoError(t, err)
	require.Len(t, points, 1)

	trendPoint := 12.2 + 25.46*6
	assert.InDelta(t, trendPoint+0.2, points[0].Point, tol)
	assert.InDelta(t, trendPoint+0.8*0.2, points[0].Lower, tol)
	assert.InDelta(t, trendPoint+1.2*0.2, points[0].Upper, tol)
}

func TestAugmentedWithoutLinksEqualsTrend(t *testing.T) {
	g := newTestGenerator()
	tables := testkit.EthiopiaTables()
	years := []int{2026, 2027}

	base, err := g.Trend(tables, testkit.MobileMoneyActive, years, 0.95)
	require.NoError(t, err)
	augmented, err := g.Augmented(tables, testkit.MobileMoneyActive, years, 1.0, 0.95)
	require.NoError(t, err)

	assert.Equal(t, base, augmented)
	assert.Equal(t, 15.0, augmented[1].Point)
}

func TestScenarios(t *testing.T) {
	g := newTestGenerator()
	rows, err := g.Scenarios(testkit.EthiopiaTables(), testkit.MobileMoneyAccounts, []int{2026, 2027})
	require.NoError(t, err)
	require.Len(t, rows, 6)

	pt := 12.2 + 25.46*6
	expected := []struct {
		scenario            forecast.Scenario
		point, lower, upper float64
	}{
		{forecast.ScenarioPessimistic, 0.95*pt + 0.1, 0.9*pt + 0.08, 0.95*pt + 0.12},
		{forecast.ScenarioBase, pt + 0.2, pt + 0.18, pt + 0.22},
		{forecast.ScenarioOptimistic, 1.05*pt + 0.3, 1.02*pt + 0.27, 1.1*pt + 0.36},
	}
	for i, e := range expected {
		row := rows[i]
		assert.Equal(t, 2026, row.Year)
		assert.Equal(t, testkit.MobileMoneyAccounts, row.IndicatorCode)
		assert.Equal(t, e.scenario, row.Scenario)
		assert.InDelta(t, e.point, row.Point, tol, "point %s", e.scenario)
		assert.InDelta(t, e.lower, row.Lower, tol, "lower %s", e.scenario)
		assert.InDelta(t, e.upper, row.Upper, tol, "upper %s", e.scenario)
	}
	assert.Equal(t, 2027, rows[3].Year)
	assert.Equal(t, forecast.ScenarioPessimistic, rows[3].Scenario)
}

func TestScenariosDeterministic(t *testing.T) {
	g := newTestGenerator()
	tables := testkit.NewSeriesGenerator(testkit.DefaultSeriesConfig()).Generate()
	again := testkit.NewSeriesGenerator(testkit.DefaultSeriesConfig()).Generate()
	code := tables.Indicators()[0]

	rows, err := g.Scenarios(tables, code, []int{2026, 2030})
	require.NoError(t, err)
	rowsAgain, err := g.Scenarios(again, code, []int{2026, 2030})
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, rows, rowsAgain)
	assert.Equal(t, forecast.ScenarioBase, rows[1].Scenario)
}

func TestScenariosWithoutObservations(t *testing.T) {
	g := newTestGenerator()
	rows, err := g.Scenarios(testkit.EthiopiaTables(), "UNKNOWN", []int{2026})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.True(t, math.IsNaN(r.Point))
	}
}

func TestReconstructHistory(t *testing.T) {
	g := newTestGenerator()
	history := g.Reconstruct(testkit.EthiopiaTables(), testkit.MobileMoneyAccounts)
	require.Len(t, history, 2)

	// 213 days after the licensing event
	assert.InDelta(t, 0.1*(213/30.44)/36, history[0].Addition, tol)
	assert.InDelta(t, 12.2+history[0].Addition, history[0].Adjusted, tol)
	assert.InDelta(t, 0.2, history[1].Addition, tol)
	assert.InDelta(t, 139.7, history[1].Adjusted, tol)
}

func TestMinConfidenceFiltersLinks(t *testing.T) {
	g := newTestGenerator(WithMinConfidence(forecast.ConfidenceMedium))
	tables := testkit.EthiopiaTables()

	assert.Empty(t, g.Resolve(tables, testkit.MobileMoneyAccounts))

	tables.ImpactLinks[0].Confidence = forecast.ConfidenceHigh
	assert.Len(t, g.Resolve(tables, testkit.MobileMoneyAccounts), 1)
}

func TestSpread(t *testing.T) {
	g := newTestGenerator()
	tables := testkit.EthiopiaTables()

	steps, err := g.Spread(tables.ImpactLinks[1], tables.Events[0])
	require.NoError(t, err)
	require.Len(t, steps, forecast.DefaultRampMonths)
	assert.Equal(t, core.Date(2021, time.January, 1), steps[0].Month)
	assert.InDelta(t, 0.1/36, steps[0].Effect, tol)

	_, err = g.Spread(tables.ImpactLinks[1], forecast.Event{ID: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestApplyProfileBases(t *testing.T) {
	tp := forecast.ForecastPoint{Year: 2030, Point: 10, Lower: 8, Upper: 12}
	p := forecast.ScenarioProfile{
		PointTrend: 1, LowerBase: forecast.BaseTrendUpper, LowerTrend: 0.5, LowerEvent: 0,
		UpperBase: forecast.BaseTrendLower, UpperTrend: 2, UpperEvent: 1,
	}
	point, lower, upper := ApplyProfile(p, tp, 1)
	assert.Equal(t, 11.0, point)
	assert.Equal(t, 6.0, lower)
	assert.Equal(t, 17.0, upper)
}

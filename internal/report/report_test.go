package report

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *run.Report {
	matrix := forecast.NewImpactMatrix()
	matrix.Add("106", "ACC_OWNERSHIP", 1.5)
	req := run.Request{Years: []int{2026}, Confidence: 0.95, EventScale: 1}
	return &run.Report{
		Manifest: run.NewManifest("run-7", "abc", forecast.DefaultParams(), "student_t", req, "test"),
		Results: []run.IndicatorResult{
			{
				Indicator: "ACC_OWNERSHIP",
				Fit:       forecast.TrendFit{N: 4, Slope: 2.5, MSE: 0.25},
				Trend:     []forecast.ForecastPoint{{Year: 2026, Point: 50, Lower: 45, Upper: 55}},
				Augmented: []forecast.ForecastPoint{{Year: 2026, Point: 51.5, Lower: 46.2, Upper: 56.8}},
				Scenarios: []forecast.ScenarioForecastRow{{IndicatorCode: "ACC_OWNERSHIP", Year: 2026, Scenario: forecast.ScenarioBase, Point: 51.5, Lower: 46.35, Upper: 56.65}},
			},
			{
				Indicator: "USG_DIGITAL_PAYMENT",
				Trend:     []forecast.ForecastPoint{{Year: 2026, Point: math.NaN(), Lower: math.NaN(), Upper: math.NaN()}},
				Augmented: []forecast.ForecastPoint{{Year: 2026, Point: math.NaN(), Lower: math.NaN(), Upper: math.NaN()}},
			},
		},
		Matrix: matrix,
	}
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleReport()))

	assert.Contains(t, md, "## ACC_OWNERSHIP")
	assert.Contains(t, md, "slope 2.50 per year")
	assert.Contains(t, md, "| 2026 | 50.00 | 45.00 | 55.00 | 51.50 | 46.20 | 56.80 |")
	assert.Contains(t, md, "| 2026 | base | 51.50 | 46.35 | 56.65 |")
	assert.Contains(t, md, "No observations; forecasts are empty.")
	assert.Contains(t, md, "| 2026 | n/a | n/a | n/a | n/a | n/a | n/a |")
	assert.Contains(t, md, "| Event | ACC_OWNERSHIP |")
	assert.Contains(t, md, "| 106 | 1.50 |")
}

func TestHTML(t *testing.T) {
	out := string(HTML(sampleReport()))
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "ACC_OWNERSHIP")
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewFileSink(dir, internal.NewNopLogger())
	require.NoError(t, sink.WriteReport(context.Background(), sampleReport()))

	for _, name := range []string{"report_run-7.md", "report_run-7.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size())
	}
}

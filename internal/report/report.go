// Package report renders run reports as Markdown and HTML.
package report

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders a report summary: the run manifest, then one section per
// indicator with its fit, forecast table and scenarios, then the impact matrix.
func Markdown(r *run.Report) []byte {
	var b bytes.Buffer
	b.WriteString("# Event-augmented forecast\n\n")

	if m := r.Manifest; m != nil {
		b.WriteString("| Run | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| run_id | `%s` |\n", m.RunID)
		fmt.Fprintf(&b, "| input | `%s` |\n", m.InputHash)
		fmt.Fprintf(&b, "| fingerprint | `%s` |\n", m.Fingerprint)
		fmt.Fprintf(&b, "| confidence | %g |\n", m.Request.Confidence)
		fmt.Fprintf(&b, "| event scale | %g |\n", m.Request.EventScale)
		fmt.Fprintf(&b, "| critical value | %s |\n", m.CriticalMethod)
		fmt.Fprintf(&b, "| created | %s |\n\n", m.CreatedAt.Time().Format("2006-01-02 15:04 MST"))
	}

	for _, res := range r.Results {
		writeIndicator(&b, res)
	}

	if r.Matrix != nil && len(r.Matrix.Events()) > 0 {
		writeMatrix(&b, r.Matrix)
	}
	return b.Bytes()
}

func writeIndicator(b *bytes.Buffer, res run.IndicatorResult) {
	fmt.Fprintf(b, "## %s\n\n", res.Indicator)

	switch {
	case res.Fit.N == 0:
		b.WriteString("No observations; forecasts are empty.\n\n")
	case res.Fit.Flat:
		fmt.Fprintf(b, "One observation; flat projection at %s.\n\n", num(res.Fit.Last))
	default:
		fmt.Fprintf(b, "Linear trend over %d observations: slope %s per year, residual MSE %s.\n\n",
			res.Fit.N, num(res.Fit.Slope), num(res.Fit.MSE))
	}

	if len(res.Trend) > 0 {
		b.WriteString("| Year | Trend | Lower | Upper | With events | Lower | Upper |\n")
		b.WriteString("|---:|---:|---:|---:|---:|---:|---:|\n")
		for i, tp := range res.Trend {
			ap := forecast.ForecastPoint{Point: math.NaN(), Lower: math.NaN(), Upper: math.NaN()}
			if i < len(res.Augmented) {
				ap = res.Augmented[i]
			}
			fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s | %s |\n",
				tp.Year, num(tp.Point), num(tp.Lower), num(tp.Upper), num(ap.Point), num(ap.Lower), num(ap.Upper))
		}
		b.WriteString("\n")
	}

	if len(res.Scenarios) > 0 {
		b.WriteString("| Year | Scenario | Forecast | Lower | Upper |\n|---:|---|---:|---:|---:|\n")
		for _, row := range res.Scenarios {
			fmt.Fprintf(b, "| %d | %s | %s | %s | %s |\n", row.Year, row.Scenario, num(row.Point), num(row.Lower), num(row.Upper))
		}
		b.WriteString("\n")
	}

	if len(res.History) > 0 {
		b.WriteString("| Date | Observed | Event effect | Adjusted |\n|---|---:|---:|---:|\n")
		for _, h := range res.History {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", h.Date.Format("2006-01-02"), num(h.Value), num(h.Addition), num(h.Adjusted))
		}
		b.WriteString("\n")
	}
}

func writeMatrix(b *bytes.Buffer, m *forecast.ImpactMatrix) {
	b.WriteString("## Impact matrix\n\n")
	indicators := m.Indicators()
	cols := make([]string, len(indicators))
	for i, c := range indicators {
		cols[i] = string(c)
	}
	fmt.Fprintf(b, "| Event | %s |\n", strings.Join(cols, " | "))
	fmt.Fprintf(b, "|---|%s\n", strings.Repeat("---:|", len(cols)))
	for _, ev := range m.Events() {
		row := m.Row(ev)
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = num(v)
		}
		fmt.Fprintf(b, "| %s | %s |\n", ev, strings.Join(cells, " | "))
	}
	b.WriteString("\n")
}

// HTML renders the Markdown summary as a standalone HTML page
func HTML(r *run.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(Markdown(r))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Event-augmented forecast",
	})
	return markdown.Render(doc, renderer)
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// FileSink implements ResultSinkPort by writing report_<run>.md and
// report_<run>.html into a directory
type FileSink struct {
	dir    string
	logger *internal.Logger
}

// NewFileSink creates a sink writing into dir, creating it when needed
func NewFileSink(dir string, logger *internal.Logger) *FileSink {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileSink{dir: dir, logger: logger}
}

// WriteReport writes both renderings
func (s *FileSink) WriteReport(ctx context.Context, r *run.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	base := "report"
	if r.Manifest != nil {
		base = "report_" + r.Manifest.RunID.String()
	}
	mdPath := filepath.Join(s.dir, base+".md")
	if err := os.WriteFile(mdPath, Markdown(r), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mdPath, err)
	}
	htmlPath := filepath.Join(s.dir, base+".html")
	if err := os.WriteFile(htmlPath, HTML(r), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", htmlPath, err)
	}
	s.logger.Info("report written to %s", mdPath)
	return nil
}

package excel

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal"

	"github.com/xuri/excelize/v2"
)

// Output sheet names
const (
	SheetManifest  = "manifest"
	SheetForecast  = "forecast"
	SheetScenarios = "scenarios"
	SheetHistory   = "history"
	SheetMatrix    = "impact_matrix"
)

// WorkbookSink implements ResultSinkPort by writing one workbook per
// report. With a directory path, the file is named after the run ID.
type WorkbookSink struct {
	path   string
	logger *internal.Logger
}

// NewWorkbookSink creates a sink writing to path (a .xlsx file or a directory)
func NewWorkbookSink(path string, logger *internal.Logger) *WorkbookSink {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &WorkbookSink{path: path, logger: logger}
}

// WriteReport saves the report as a workbook
func (s *WorkbookSink) WriteReport(ctx context.Context, report *run.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		name := "forecast.xlsx"
		if report.Manifest != nil {
			name = fmt.Sprintf("forecast_%s.xlsx", report.Manifest.RunID)
		}
		path = filepath.Join(path, name)
	}
	if err := WriteXLSX(path, report); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	s.logger.Info("report written to %s", path)
	return nil
}

// WriteXLSX lays a report out as sheets: manifest, forecast, and where
// present scenarios, history and impact_matrix. Missing values are blank cells.
func WriteXLSX(path string, report *run.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, SheetManifest, []string{"key", "value"}, manifestRows(report.Manifest)); err != nil {
		return err
	}
	// drop the default sheet once another exists
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	forecastHeaders := []string{"indicator", "year", "trend", "trend_lower", "trend_upper", "forecast", "lower", "upper"}
	var forecastRows [][]interface{}
	var scenarioRows [][]interface{}
	var historyRows [][]interface{}
	for _, res := range report.Results {
		for i, tp := range res.Trend {
			row := []interface{}{string(res.Indicator), tp.Year, cell(tp.Point), cell(tp.Lower), cell(tp.Upper)}
			if i < len(res.Augmented) {
				ap := res.Augmented[i]
				row = append(row, cell(ap.Point), cell(ap.Lower), cell(ap.Upper))
			}
			forecastRows = append(forecastRows, row)
		}
		for _, sr := range res.Scenarios {
			scenarioRows = append(scenarioRows, []interface{}{string(sr.IndicatorCode), sr.Year, string(sr.Scenario), cell(sr.Point), cell(sr.Lower), cell(sr.Upper)})
		}
		for _, h := range res.History {
			historyRows = append(historyRows, []interface{}{string(h.IndicatorCode), h.Date.Format("2006-01-02"), cell(h.Value), h.Addition, cell(h.Adjusted)})
		}
	}

	if err := writeSheet(f, SheetForecast, forecastHeaders, forecastRows); err != nil {
		return err
	}
	if len(scenarioRows) > 0 {
		if err := writeSheet(f, SheetScenarios, []string{"indicator", "year", "scenario", "forecast", "lower", "upper"}, scenarioRows); err != nil {
			return err
		}
	}
	if len(historyRows) > 0 {
		if err := writeSheet(f, SheetHistory, []string{"indicator", "observation_date", "value_numeric", "impact_addition", "value_impacted"}, historyRows); err != nil {
			return err
		}
	}
	if report.Matrix != nil && len(report.Matrix.Events()) > 0 {
		if err := writeMatrix(f, report.Matrix); err != nil {
			return err
		}
	}

	if idx, err := f.GetSheetIndex(SheetForecast); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f.SaveAs(path)
}

func manifestRows(m *run.Manifest) [][]interface{} {
	if m == nil {
		return nil
	}
	years := make([]string, len(m.Request.Years))
	for i, y := range m.Request.Years {
		years[i] = fmt.Sprint(y)
	}
	return [][]interface{}{
		{"run_id", m.RunID.String()},
		{"input_hash", m.InputHash.String()},
		{"params_hash", m.ParamsHash.String()},
		{"fingerprint", m.Fingerprint.String()},
		{"critical_method", m.CriticalMethod},
		{"confidence", m.Request.Confidence},
		{"event_scale", m.Request.EventScale},
		{"years", strings.Join(years, ",")},
		{"code_version", m.CodeVersion},
		{"created_at", m.CreatedAt.Time().Format("2006-01-02T15:04:05Z07:00")},
	}
}

func writeMatrix(f *excelize.File, m *forecast.ImpactMatrix) error {
	indicators := m.Indicators()
	headers := make([]string, 0, len(indicators)+1)
	headers = append(headers, "event_id")
	for _, code := range indicators {
		headers = append(headers, string(code))
	}
	rows := make([][]interface{}, 0, len(m.Events()))
	for _, ev := range m.Events() {
		row := []interface{}{string(ev)}
		for _, v := range m.Row(ev) {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return writeSheet(f, SheetMatrix, headers, rows)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for i, h := range headers {
		c, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			name, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// cell maps NaN and infinities to a blank cell
func cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

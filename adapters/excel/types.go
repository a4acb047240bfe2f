package excel

// RawRowData represents a row of raw cells keyed by trimmed header
type RawRowData map[string]string

// ExcelData represents one sheet (or one CSV file) as raw text
type ExcelData struct {
	Sheet   string       // sheet name, or the file name for CSV
	Headers []string     // column headers
	Rows    []RawRowData // data rows
}

// HasColumn reports whether the header row contains name
func (d *ExcelData) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// RowNumber returns the 1-based spreadsheet row of data row i
func RowNumber(i int) int {
	return i + 2
}

// Record types of the unified layout
const (
	RecordObservation = "observation"
	RecordEvent       = "event"
	RecordImpactLink  = "impact_link"
)

// Column names of the processed dataset
const (
	ColRecordType       = "record_type"
	ColRecordID         = "record_id"
	ColParentID         = "parent_id"
	ColIndicatorCode    = "indicator_code"
	ColRelatedIndicator = "related_indicator"
	ColObservationDate  = "observation_date"
	ColValueNumeric     = "value_numeric"
	ColCategory         = "category"
	ColPeriodStart      = "period_start"
	ColConfidence       = "confidence"
	ColImpactDirection  = "impact_direction"
	ColImpactMagnitude  = "impact_magnitude"
	ColLagMonths        = "lag_months"
)

// Sheet names of the split workbook layout
const (
	SheetData        = "data"
	SheetEvents      = "events"
	SheetImpactLinks = "impact_links"
)

// requiredColumns are the columns the engine cannot do without, per record type
var requiredColumns = map[string][]string{
	RecordObservation: {ColIndicatorCode, ColObservationDate, ColValueNumeric},
	RecordEvent:       {ColRecordID, ColPeriodStart},
	RecordImpactLink:  {ColParentID},
}

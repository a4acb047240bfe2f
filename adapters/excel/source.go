package excel

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"eventcast/adapters/datareadiness/coercer"
	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/internal"
	apperrors "eventcast/internal/errors"
)

// WorkbookSource implements TableSourcePort for processed datasets. It
// accepts the split layout (sheets data, events and impact_links) or the
// unified layout (every sheet, or a CSV file, with a record_type column).
type WorkbookSource struct {
	config  ExcelConfig
	reader  *DataReader
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewWorkbookSource creates a source reading config.FilePath
func NewWorkbookSource(config ExcelConfig, logger *internal.Logger) *WorkbookSource {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &WorkbookSource{
		config:  config,
		reader:  NewDataReader(config.FilePath, logger),
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
		logger:  logger,
	}
}

// LoadTables reads and coerces the whole file
func (s *WorkbookSource) LoadTables(ctx context.Context) (*forecast.Tables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheets, err := s.reader.ReadSheets()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tables *forecast.Tables
	if split := splitSheets(sheets); split != nil {
		tables, err = s.fromSplit(split)
	} else {
		tables, err = s.fromUnified(sheets)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded %d observations, %d events, %d impact links from %s",
		len(tables.Observations), len(tables.Events), len(tables.ImpactLinks), s.config.FilePath)
	return tables, nil
}

// splitSheets returns the data/events/impact_links sheets when the data sheet
// exists, nil otherwise
func splitSheets(sheets []*ExcelData) map[string]*ExcelData {
	byName := make(map[string]*ExcelData, len(sheets))
	for _, sh := range sheets {
		byName[strings.ToLower(sh.Sheet)] = sh
	}
	if _, ok := byName[SheetData]; !ok {
		return nil
	}
	return byName
}

func (s *WorkbookSource) fromSplit(sheets map[string]*ExcelData) (*forecast.Tables, error) {
	tables := &forecast.Tables{}

	data := sheets[SheetData]
	if err := checkColumns(data, RecordObservation); err != nil {
		return nil, err
	}
	for i, row := range data.Rows {
		// the data sheet may carry targets and other record types alongside observations
		if rt := recordType(row); rt != "" && rt != RecordObservation {
			continue
		}
		if err := s.addObservation(tables, data.Sheet, i, row); err != nil {
			return nil, err
		}
	}

	if events, ok := sheets[SheetEvents]; ok {
		if err := checkColumns(events, RecordEvent); err != nil {
			return nil, err
		}
		for i, row := range events.Rows {
			if err := s.addEvent(tables, events.Sheet, i, row); err != nil {
				return nil, err
			}
		}
	}

	if links, ok := sheets[SheetImpactLinks]; ok {
		if err := checkColumns(links, RecordImpactLink); err != nil {
			return nil, err
		}
		for i, row := range links.Rows {
			if err := s.addImpactLink(tables, links.Sheet, i, row); err != nil {
				return nil, err
			}
		}
	}
	return tables, nil
}

func (s *WorkbookSource) fromUnified(sheets []*ExcelData) (*forecast.Tables, error) {
	tables := &forecast.Tables{}
	for _, sh := range sheets {
		if !sh.HasColumn(ColRecordType) {
			s.logger.Debug("skipping sheet %s: no %s column", sh.Sheet, ColRecordType)
			continue
		}
		if err := checkUnifiedColumns(sh); err != nil {
			return nil, err
		}
		for i, row := range sh.Rows {
			var err error
			switch recordType(row) {
			case RecordObservation:
				err = s.addObservation(tables, sh.Sheet, i, row)
			case RecordEvent:
				err = s.addEvent(tables, sh.Sheet, i, row)
			case RecordImpactLink:
				err = s.addImpactLink(tables, sh.Sheet, i, row)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if len(tables.Observations)+len(tables.Events)+len(tables.ImpactLinks) == 0 {
		return nil, core.NewValidationError(s.config.FilePath, "no observation, event or impact_link records found")
	}
	return tables, nil
}

func (s *WorkbookSource) addObservation(tables *forecast.Tables, sheet string, i int, row RawRowData) error {
	code := s.coercer.Text(row[ColIndicatorCode])
	if code == "" {
		s.logger.Debug("%s row %d: observation without indicator_code skipped", sheet, RowNumber(i))
		return nil
	}
	date, ok, err := s.coercer.Date(ColObservationDate, RowNumber(i), row[ColObservationDate])
	if err != nil {
		return err
	}
	if !ok {
		if s.config.SkipUndatedObservations {
			s.logger.Debug("%s row %d: undated observation of %s skipped", sheet, RowNumber(i), code)
			return nil
		}
		return apperrors.ConversionError(core.NewConversionError(ColObservationDate, RowNumber(i), row[ColObservationDate]))
	}
	value, err := s.coercer.FloatOrNaN(ColValueNumeric, RowNumber(i), row[ColValueNumeric])
	if err != nil {
		return err
	}
	tables.Observations = append(tables.Observations, forecast.Observation{
		IndicatorCode: core.IndicatorCode(code),
		Date:          date,
		Value:         value,
	})
	return nil
}

func (s *WorkbookSource) addEvent(tables *forecast.Tables, sheet string, i int, row RawRowData) error {
	id, err := core.ParseEventID(s.coercer.Text(row[ColRecordID]))
	if err != nil {
		s.logger.Debug("%s row %d: event without record_id skipped", sheet, RowNumber(i))
		return nil
	}
	ev := forecast.Event{
		ID:         id,
		Category:   s.coercer.Text(row[ColCategory]),
		Confidence: forecast.ParseConfidence(row[ColConfidence]),
	}
	start, ok, err := s.coercer.Date(ColPeriodStart, RowNumber(i), row[ColPeriodStart])
	if err != nil {
		return err
	}
	if ok {
		ev.PeriodStart = &start
	}
	tables.Events = append(tables.Events, ev)
	return nil
}

func (s *WorkbookSource) addImpactLink(tables *forecast.Tables, sheet string, i int, row RawRowData) error {
	lag, err := s.coercer.Lag(ColLagMonths, RowNumber(i), row[ColLagMonths])
	if err != nil {
		return err
	}
	// parent_id may be blank; such links are kept and later fail to resolve
	parent, _ := core.ParseEventID(s.coercer.Text(row[ColParentID]))
	id, err := core.ParseImpactLinkID(s.coercer.Text(row[ColRecordID]))
	if err != nil {
		id = core.ImpactLinkID(fmt.Sprintf("%s:%d", sheet, RowNumber(i)))
	}
	tables.ImpactLinks = append(tables.ImpactLinks, forecast.ImpactLink{
		ID:               id,
		ParentEventID:    parent,
		IndicatorCode:    core.IndicatorCode(s.coercer.Text(row[ColIndicatorCode])),
		RelatedIndicator: core.IndicatorCode(s.coercer.Text(row[ColRelatedIndicator])),
		Direction:        forecast.Direction(s.coercer.Text(row[ColImpactDirection])),
		Magnitude:        s.coercer.Magnitude(row[ColImpactMagnitude]),
		LagMonths:        lag,
		Confidence:       forecast.ParseConfidence(row[ColConfidence]),
	})
	return nil
}

func recordType(row RawRowData) string {
	return strings.ToLower(strings.TrimSpace(row[ColRecordType]))
}

func checkColumns(data *ExcelData, recordType string) error {
	var missing []string
	for _, col := range requiredColumns[recordType] {
		if !data.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return core.NewValidationError(data.Sheet, fmt.Sprintf("%s: missing columns %v", recordType, missing))
	}
	return nil
}

// checkUnifiedColumns requires the columns of every record type present in the sheet
func checkUnifiedColumns(data *ExcelData) error {
	present := make(map[string]bool)
	for _, row := range data.Rows {
		present[recordType(row)] = true
	}
	types := make([]string, 0, len(requiredColumns))
	for rt := range requiredColumns {
		types = append(types, rt)
	}
	sort.Strings(types)
	for _, rt := range types {
		if !present[rt] {
			continue
		}
		if err := checkColumns(data, rt); err != nil {
			return err
		}
	}
	return nil
}

package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eventcast/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files into raw sheets
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger}
}

// FileType returns "xlsx" or "csv"
func (r *DataReader) FileType() string {
	return r.fileType
}

// ReadSheets reads every sheet of a workbook in workbook order. A CSV file
// is a single sheet named after the file.
func (r *DataReader) ReadSheets() ([]*ExcelData, error) {
	r.logger.Debug("[DataReader] reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		data, err := r.readCSVData()
		if err != nil {
			return nil, err
		}
		return []*ExcelData{data}, nil
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads all non-empty sheets
func (r *DataReader) readExcelData() ([]*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var sheets []*ExcelData
	for _, name := range f.GetSheetList() {
		// raw values: date cells arrive as day serials, not in their display format
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, r.processRows(name, rows))
	}
	r.logger.Debug("[DataReader] %d sheet(s) read in %.2fms", len(sheets), float64(time.Since(startTime).Nanoseconds())/1e6)

	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no non-empty sheets: %s", r.filePath)
	}
	return sheets, nil
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file must have a header row")
	}

	name := strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	return r.processRows(name, rows), nil
}

// processRows converts raw string rows into ExcelData format. Short rows
// leave their trailing columns blank.
func (r *DataReader) processRows(sheet string, rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Trace("[DataReader] %s: %d columns, %d rows", sheet, len(headers), len(dataRows))

	return &ExcelData{
		Sheet:   sheet,
		Headers: headers,
		Rows:    dataRows,
	}
}

// Package coercer turns raw spreadsheet and CSV cells into the typed values
// the engine consumes. Blank cells are missing, never errors; a cell that is
// present but cannot be read as its column's type is a conversion error.
package coercer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
	apperrors "eventcast/internal/errors"
)

// TypeCoercer handles deterministic cell coercion with fixed rules
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the accepted cell formats
type CoercionConfig struct {
	DateFormats      []string `json:"date_formats"`       // tried in order
	MissingTokens    []string `json:"missing_tokens"`     // compared case-insensitively after trimming
	ExcelSerialDates bool     `json:"excel_serial_dates"` // accept 1900-system day serials such as 44197
	EuropeanDecimals bool     `json:"european_decimals"`  // read "1.234,5" and "0,15" with comma decimals
}

// DefaultCoercionConfig returns the formats seen in the processed datasets
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		DateFormats: []string{
			"2006-01-02",
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"01/02/2006",
			"2006/01/02",
			"02-Jan-2006",
			"Jan 2006",
			"2006-01",
			"2006", // year-only, before the serial fallback reads it as a 1905 day
		},
		MissingTokens:    []string{"", "nan", "na", "n/a", "null", "none", "nat", "-"},
		ExcelSerialDates: true,
		EuropeanDecimals: true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// IsMissing reports whether a raw cell stands for "no value"
func (c *TypeCoercer) IsMissing(raw string) bool {
	s := strings.TrimSpace(raw)
	for _, tok := range c.config.MissingTokens {
		if strings.EqualFold(s, tok) {
			return true
		}
	}
	return false
}

// Float reads a numeric cell. ok is false for a missing cell.
func (c *TypeCoercer) Float(column string, row int, raw string) (v float64, ok bool, err error) {
	if c.IsMissing(raw) {
		return 0, false, nil
	}
	v, parsed := c.tryParseNumeric(raw)
	if !parsed {
		return 0, false, conversionError(column, row, raw)
	}
	return v, true, nil
}

// FloatOrNaN reads a numeric cell, mapping missing to NaN
func (c *TypeCoercer) FloatOrNaN(column string, row int, raw string) (float64, error) {
	v, ok, err := c.Float(column, row, raw)
	if err != nil {
		return 0, err
	}
	if !ok {
		return math.NaN(), nil
	}
	return v, nil
}

// Date reads a date cell in UTC. ok is false for a missing cell.
func (c *TypeCoercer) Date(column string, row int, raw string) (t time.Time, ok bool, err error) {
	if c.IsMissing(raw) {
		return time.Time{}, false, nil
	}
	t, parsed := c.tryParseTimestamp(strings.TrimSpace(raw))
	if !parsed {
		return time.Time{}, false, conversionError(column, row, raw)
	}
	return t, true, nil
}

// Lag reads a lag_months cell. Missing cells give nil; negative or
// fractional values pass through for the normalizer to settle.
func (c *TypeCoercer) Lag(column string, row int, raw string) (*float64, error) {
	v, ok, err := c.Float(column, row, raw)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// Magnitude classifies an impact_magnitude cell. Magnitudes are annotations
// and never fail: text that is not a number is kept as a category label.
func (c *TypeCoercer) Magnitude(raw string) forecast.Magnitude {
	if c.IsMissing(raw) {
		return forecast.MissingMagnitude()
	}
	if v, ok := c.tryParseNumeric(raw); ok {
		return forecast.NumericMagnitude(v)
	}
	return forecast.CategoricalMagnitude(strings.TrimSpace(raw))
}

// Text trims a free-text cell, mapping missing tokens to ""
func (c *TypeCoercer) Text(raw string) string {
	if c.IsMissing(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

func conversionError(column string, row int, raw string) error {
	return apperrors.ConversionError(core.NewConversionError(column, row, raw))
}

// tryParseNumeric accepts plain and scientific notation, thousands
// separators, accounting negatives "(12.5)", currency symbols and percent
// signs. Percentages keep their face value: "12.5%" reads as 12.5.
func (c *TypeCoercer) tryParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		isNegative = true
		cleanVal = strings.TrimSpace(cleanVal[1 : len(cleanVal)-1])
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case c.config.EuropeanDecimals && hasComma && (hasPeriod || hasSpace) &&
		strings.LastIndex(cleanVal, ",") > strings.LastIndex(cleanVal, "."):
		// 1.234,56 or 1 234,56
		cleanVal = strings.ReplaceAll(cleanVal, ".", "")
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	case c.config.EuropeanDecimals && hasComma && !hasPeriod && !isThousandsGrouped(cleanVal):
		// 0,15
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// isThousandsGrouped matches "1,234" and "12,345,678": every comma followed
// by exactly three digits.
func isThousandsGrouped(s string) bool {
	s = strings.TrimPrefix(s, "-")
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for i, p := range parts {
		if strings.Trim(p, "0123456789") != "" {
			return false
		}
		if i > 0 && len(p) != 3 {
			return false
		}
	}
	return true
}

// tryParseTimestamp tries the configured layouts, then Excel day serials
func (c *TypeCoercer) tryParseTimestamp(strVal string) (time.Time, bool) {
	if strVal == "" {
		return time.Time{}, false
	}

	for _, format := range c.config.DateFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t.UTC(), true
		}
	}

	if c.config.ExcelSerialDates {
		if serial, err := strconv.ParseFloat(strVal, 64); err == nil && serial >= 1 && serial < 2958466 {
			return excelSerialToDate(serial), true
		}
	}

	return time.Time{}, false
}

// excelSerialToDate converts a 1900-system serial. The epoch is 1899-12-30
// to absorb the phantom 1900-02-29; serials before March 1900 are not
// expected in this data.
func excelSerialToDate(serial float64) time.Time {
	days := math.Floor(serial)
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return epoch.AddDate(0, 0, int(days))
}

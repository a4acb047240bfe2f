package excel

import (
	"eventcast/adapters/datareadiness/coercer"
)

// ExcelConfig holds configuration for the workbook source and sink
type ExcelConfig struct {
	FilePath       string                 `json:"file_path"`
	OutputPath     string                 `json:"output_path"`
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
	// SkipUndatedObservations drops observation rows with a blank date
	// instead of failing the load.
	SkipUndatedObservations bool `json:"skip_undated_observations"`
}

// DefaultExcelConfig returns sensible defaults for workbook processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		CoercionConfig:          coercer.DefaultCoercionConfig(),
		SkipUndatedObservations: true,
	}
}

package forecast

import (
	"encoding/json"
	"sort"

	"eventcast/domain/core"
)

// ImpactMatrix is an event × indicator table of summed signed effects.
// Cells that were never written read as zero.
type ImpactMatrix struct {
	events     []core.EventID
	indicators []core.IndicatorCode
	cells      map[core.EventID]map[core.IndicatorCode]float64
}

// NewImpactMatrix creates an empty matrix
func NewImpactMatrix() *ImpactMatrix {
	return &ImpactMatrix{cells: make(map[core.EventID]map[core.IndicatorCode]float64)}
}

// AddRow makes sure an event has a row, even if every cell stays zero.
func (m *ImpactMatrix) AddRow(event core.EventID) {
	if _, ok := m.cells[event]; ok {
		return
	}
	m.cells[event] = make(map[core.IndicatorCode]float64)
	m.events = append(m.events, event)
	sort.Slice(m.events, func(i, j int) bool { return m.events[i] < m.events[j] })
}

// AddColumn makes sure an indicator has a column.
func (m *ImpactMatrix) AddColumn(indicator core.IndicatorCode) {
	for _, c := range m.indicators {
		if c == indicator {
			return
		}
	}
	m.indicators = append(m.indicators, indicator)
	sort.Slice(m.indicators, func(i, j int) bool { return m.indicators[i] < m.indicators[j] })
}

// Add accumulates v into the (event, indicator) cell.
func (m *ImpactMatrix) Add(event core.EventID, indicator core.IndicatorCode, v float64) {
	m.AddRow(event)
	m.AddColumn(indicator)
	m.cells[event][indicator] += v
}

// Get returns the cell value; absent combinations are 0.
func (m *ImpactMatrix) Get(event core.EventID, indicator core.IndicatorCode) float64 {
	return m.cells[event][indicator]
}

// Events returns the row keys in sorted order
func (m *ImpactMatrix) Events() []core.EventID {
	return append([]core.EventID(nil), m.events...)
}

// Indicators returns the column keys in sorted order
func (m *ImpactMatrix) Indicators() []core.IndicatorCode {
	return append([]core.IndicatorCode(nil), m.indicators...)
}

// Row returns one event's cells in column order.
func (m *ImpactMatrix) Row(event core.EventID) []float64 {
	row := make([]float64, len(m.indicators))
	for i, c := range m.indicators {
		row[i] = m.cells[event][c]
	}
	return row
}

type impactMatrixJSON struct {
	Events     []core.EventID       `json:"events"`
	Indicators []core.IndicatorCode `json:"indicators"`
	Values     [][]float64          `json:"values"`
}

// MarshalJSON writes the dense form: row keys, column keys and a value grid.
func (m *ImpactMatrix) MarshalJSON() ([]byte, error) {
	out := impactMatrixJSON{
		Events:     m.Events(),
		Indicators: m.Indicators(),
		Values:     make([][]float64, len(m.events)),
	}
	for i, e := range m.events {
		out.Values[i] = m.Row(e)
	}
	return json.Marshal(out)
}

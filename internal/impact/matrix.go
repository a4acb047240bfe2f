package impact

import (
	"eventcast/domain/forecast"
)

// MatrixBuilder pivots impact links into an event × indicator matrix of
// summed signed effects.
type MatrixBuilder struct {
	normalizer *Normalizer
}

// NewMatrixBuilder creates a builder using the given normalizer
func NewMatrixBuilder(normalizer *Normalizer) *MatrixBuilder {
	return &MatrixBuilder{normalizer: normalizer}
}

// Build sums the signed effects of all links per (parent event, indicator).
// Links without an indicator or parent are skipped. Links whose event is
// missing or undated keep a row for their parent id but contribute nothing.
func (b *MatrixBuilder) Build(links []forecast.ImpactLink, events []forecast.Event) *forecast.ImpactMatrix {
	idx := NewEventIndex(events)
	m := forecast.NewImpactMatrix()
	logger := b.normalizer.logger

	for _, link := range links {
		indicator, ok := link.Indicator()
		if !ok {
			logger.Debug("impact link %s has no indicator, skipped", link.ID)
			continue
		}
		if link.ParentEventID.IsEmpty() {
			logger.Debug("impact link %s has no parent event, skipped", link.ID)
			continue
		}

		imp := b.normalizer.Normalize(link)
		if _, resolved := idx.Resolve(imp); !resolved {
			logger.Debug("impact link %s: event %s missing or undated, zero row", link.ID, link.ParentEventID)
			m.AddRow(link.ParentEventID)
			m.AddColumn(indicator)
			continue
		}
		m.Add(link.ParentEventID, indicator, float64(imp.Effect))
	}
	return m
}

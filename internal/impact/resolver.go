package impact

import (
	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// EventIndex looks events up by id. Links refer to their events by id only,
// so every join goes through here and a missing event is an explicit miss
// rather than a row of blanks.
type EventIndex struct {
	byID map[core.EventID]forecast.Event
}

// NewEventIndex indexes events by id. When an id repeats the first event wins.
func NewEventIndex(events []forecast.Event) *EventIndex {
	idx := &EventIndex{byID: make(map[core.EventID]forecast.Event, len(events))}
	for _, e := range events {
		if e.ID.IsEmpty() {
			continue
		}
		if _, dup := idx.byID[e.ID]; dup {
			continue
		}
		idx.byID[e.ID] = e
	}
	return idx
}

// Lookup returns the event with the given id
func (x *EventIndex) Lookup(id core.EventID) (forecast.Event, bool) {
	e, ok := x.byID[id]
	return e, ok
}

// Len returns the number of indexed events
func (x *EventIndex) Len() int {
	return len(x.byID)
}

// Resolve attaches the parent event to a normalized impact. ok is false when
// the event does not exist or has no period start.
func (x *EventIndex) Resolve(impact forecast.NormalizedImpact) (forecast.ResolvedImpact, bool) {
	event, found := x.byID[impact.Link.ParentEventID]
	if !found || event.PeriodStart == nil {
		return forecast.ResolvedImpact{}, false
	}
	return forecast.ResolvedImpact{
		NormalizedImpact: impact,
		Event:            event,
		PeriodStart:      *event.PeriodStart,
	}, true
}

// ResolveAll splits impacts into those that can be scheduled and those that
// cannot, preserving input order in both.
func (x *EventIndex) ResolveAll(impacts []forecast.NormalizedImpact) (resolved []forecast.ResolvedImpact, unresolved []forecast.NormalizedImpact) {
	for _, imp := range impacts {
		if r, ok := x.Resolve(imp); ok {
			resolved = append(resolved, r)
		} else {
			unresolved = append(unresolved, imp)
		}
	}
	return resolved, unresolved
}

// ForIndicator keeps the links whose indicator_code or related_indicator
// equals code. A link naming code only as its related indicator still
// counts. No links match means no links: there is no fallback to the full
// set.
func ForIndicator(links []forecast.ImpactLink, code core.IndicatorCode) []forecast.ImpactLink {
	var out []forecast.ImpactLink
	for _, l := range links {
		if l.IndicatorCode == code || l.RelatedIndicator == code {
			out = append(out, l)
		}
	}
	return out
}

// WithMinConfidence keeps links whose own confidence meets min. An unset
// minimum keeps everything.
func WithMinConfidence(links []forecast.ImpactLink, min forecast.Confidence) []forecast.ImpactLink {
	if min == forecast.ConfidenceUnknown {
		return links
	}
	var out []forecast.ImpactLink
	for _, l := range links {
		if l.Confidence.AtLeast(min) {
			out = append(out, l)
		}
	}
	return out
}

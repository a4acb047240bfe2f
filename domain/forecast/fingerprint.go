package forecast

import (
	"fmt"
	"strconv"
	"time"

	"eventcast/domain/core"
)

// Fingerprint hashes the tables into an order-independent input hash, so
// two runs over the same data can be recognised as such.
func (t *Tables) Fingerprint() core.InputHash {
	sections := map[string][]string{
		"observations": make([]string, 0, len(t.Observations)),
		"events":       make([]string, 0, len(t.Events)),
		"impact_links": make([]string, 0, len(t.ImpactLinks)),
	}
	for _, o := range t.Observations {
		sections["observations"] = append(sections["observations"],
			fmt.Sprintf("%s|%s|%s", o.IndicatorCode, o.Date.Format(time.RFC3339), formatFloat(o.Value)))
	}
	for _, e := range t.Events {
		start := ""
		if e.PeriodStart != nil {
			start = e.PeriodStart.Format(time.RFC3339)
		}
		sections["events"] = append(sections["events"],
			fmt.Sprintf("%s|%s|%s|%s", e.ID, e.Category, start, e.Confidence))
	}
	for _, l := range t.ImpactLinks {
		lag := ""
		if l.LagMonths != nil {
			lag = formatFloat(*l.LagMonths)
		}
		sections["impact_links"] = append(sections["impact_links"],
			fmt.Sprintf("%s|%s|%s|%s|%s|%s:%s|%s|%s",
				l.ID, l.ParentEventID, l.IndicatorCode, l.RelatedIndicator, l.Direction,
				l.Magnitude.Kind, l.Magnitude.String(), lag, l.Confidence))
	}
	return core.ComputeInputHash(sections)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

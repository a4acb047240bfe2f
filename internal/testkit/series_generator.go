package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// SeriesGeneratorConfig configures the synthetic indicator generator
type SeriesGeneratorConfig struct {
	IndicatorCount int          `json:"indicator_count"`
	StartYear      int          `json:"start_year"`
	Years          int          `json:"years"`
	Intercept      float64      `json:"intercept"`
	Slope          float64      `json:"slope"`
	Noise          float64      `json:"noise"`
	GapRate        float64      `json:"gap_rate"` // probability a year has no observation
	EventCount     int          `json:"event_count"`
	LinksPerEvent  int          `json:"links_per_event"`
	EventWindow    [2]time.Time `json:"event_window"`
	Seed           int64        `json:"seed"`
}

// DefaultSeriesConfig returns a small, sparse dataset shaped like survey data
func DefaultSeriesConfig() SeriesGeneratorConfig {
	return SeriesGeneratorConfig{
		IndicatorCount: 3,
		StartYear:      2011,
		Years:          14,
		Intercept:      14,
		Slope:          3.5,
		Noise:          1.5,
		GapRate:        0.5,
		EventCount:     4,
		LinksPerEvent:  2,
		EventWindow:    [2]time.Time{core.Date(2018, time.January, 1), core.Date(2025, time.December, 31)},
		Seed:           42,
	}
}

// SeriesGenerator produces reproducible tables for tests
type SeriesGenerator struct {
	config SeriesGeneratorConfig
	rng    *rand.Rand
}

// NewSeriesGenerator creates a generator seeded from the config
func NewSeriesGenerator(config SeriesGeneratorConfig) *SeriesGenerator {
	return &SeriesGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the full table set
func (g *SeriesGenerator) Generate() *forecast.Tables {
	tables := &forecast.Tables{}
	codes := make([]core.IndicatorCode, g.config.IndicatorCount)
	for i := range codes {
		codes[i] = core.IndicatorCode(fmt.Sprintf("IND_%02d", i+1))
		tables.Observations = append(tables.Observations, g.series(codes[i])...)
	}

	linkID := 0
	for i := 0; i < g.config.EventCount; i++ {
		event := forecast.Event{
			ID:         core.EventID(fmt.Sprintf("EV_%03d", i+1)),
			Category:   g.randomCategory(),
			Confidence: forecast.ConfidenceHigh,
		}
		start := g.randomTimeInRange(g.config.EventWindow[0], g.config.EventWindow[1])
		start = core.MonthStart(start)
		event.PeriodStart = &start
		tables.Events = append(tables.Events, event)

		for j := 0; j < g.config.LinksPerEvent && len(codes) > 0; j++ {
			linkID++
			lag := float64(g.rng.Intn(25))
			tables.ImpactLinks = append(tables.ImpactLinks, forecast.ImpactLink{
				ID:            core.ImpactLinkID(fmt.Sprintf("LNK_%03d", linkID)),
				ParentEventID: event.ID,
				IndicatorCode: codes[g.rng.Intn(len(codes))],
				Direction:     g.randomDirection(),
				Magnitude:     forecast.CategoricalMagnitude(g.randomMagnitude()),
				LagMonths:     &lag,
				Confidence:    forecast.ConfidenceMedium,
			})
		}
	}
	return tables
}

// series emits one observation per kept year; at least two years are always kept.
func (g *SeriesGenerator) series(code core.IndicatorCode) []forecast.Observation {
	var out []forecast.Observation
	for i := 0; i < g.config.Years; i++ {
		keep := i == 0 || i == g.config.Years-1 || g.rng.Float64() >= g.config.GapRate
		if !keep {
			continue
		}
		year := g.config.StartYear + i
		value := g.config.Intercept + g.config.Slope*float64(i) + g.rng.NormFloat64()*g.config.Noise
		out = append(out, forecast.Observation{
			IndicatorCode: code,
			Date:          core.Date(year, time.December, 31),
			Value:         value,
		})
	}
	return out
}

func (g *SeriesGenerator) randomTimeInRange(start, end time.Time) time.Time {
	if !end.After(start) {
		return start
	}
	delta := end.Sub(start)
	return start.Add(time.Duration(g.rng.Int63n(int64(delta))))
}

func (g *SeriesGenerator) randomCategory() string {
	categories := []string{"policy_launch", "product_launch", "infrastructure", "regulation"}
	return categories[g.rng.Intn(len(categories))]
}

func (g *SeriesGenerator) randomDirection() forecast.Direction {
	if g.rng.Float64() < 0.8 {
		return forecast.DirectionIncrease
	}
	return forecast.DirectionDecrease
}

func (g *SeriesGenerator) randomMagnitude() string {
	magnitudes := []string{"low", "medium", "high"}
	return magnitudes[g.rng.Intn(len(magnitudes))]
}

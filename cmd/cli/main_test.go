package main

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestFlagsFallBackToConfiguredConfidence(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{Confidence: 0.9}}
	rf := requestFlags{
		indicators:    []string{" ACC_OWNERSHIP", "USG_DIGITAL_PAYMENT"},
		years:         []int{2026},
		scale:         1,
		minConfidence: "medium",
	}

	req := rf.request(cfg)
	assert.Equal(t, 0.9, req.Confidence)
	assert.Equal(t, []core.IndicatorCode{"ACC_OWNERSHIP", "USG_DIGITAL_PAYMENT"}, req.Indicators)
	assert.Equal(t, forecast.ParseConfidence("medium"), req.MinConfidence)

	rf.confidence = 0.8
	assert.Equal(t, 0.8, rf.request(cfg).Confidence)
}

func TestWriteReportFormats(t *testing.T) {
	rep := &run.Report{Results: []run.IndicatorResult{{
		Indicator: "ACC_OWNERSHIP",
		Trend:     []forecast.ForecastPoint{{Year: 2026, Point: 50, Lower: 45, Upper: 55}},
		Augmented: []forecast.ForecastPoint{{Year: 2026, Point: 51, Lower: 46, Upper: 56}},
	}}}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, rep, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "results")

	buf.Reset()
	require.NoError(t, writeReport(&buf, rep, "markdown"))
	assert.Contains(t, buf.String(), "## ACC_OWNERSHIP")

	assert.Error(t, writeReport(&buf, rep, "yaml"))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "n/a", num(math.NaN()))
	assert.Equal(t, "1.50", num(1.5))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"eventcast/adapters/stats/trend"
	"eventcast/domain/forecast"
	"eventcast/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "GIN_MODE", "LOG_LEVEL", "APP_ENV", "EXCEL_FILE"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventcast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, forecast.DefaultParams(), cfg.Engine.Params())
	method, err := cfg.Engine.CriticalMethod()
	require.NoError(t, err)
	assert.Equal(t, trend.CriticalStudentT, method)
	assert.Equal(t, forecast.ConfidenceUnknown, cfg.Engine.LinkConfidenceFloor())
	assert.Equal(t, 0.95, cfg.Engine.Confidence)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Workers.MaxParallel)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
engine:
  ramp_months: 24
  critical_value: approx
  neutral_as_zero: true
  min_confidence: medium
  magnitude_scale:
    Low: 0.25
    medium: 1
    high: 2
server:
  port: "9090"
  gin_mode: release
data:
  input_path: data/processed/ethiopia_fi_enriched.xlsx
workers:
  max_parallel: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	params := cfg.Engine.Params()
	assert.Equal(t, 24, params.RampMonths)
	assert.True(t, params.NeutralAsZero)
	assert.Equal(t, map[string]float64{"low": 0.25, "medium": 1, "high": 2}, params.MagnitudeScale)
	assert.Equal(t, forecast.DefaultScenarioProfiles(), params.Scenarios)
	method, err := cfg.Engine.CriticalMethod()
	require.NoError(t, err)
	assert.Equal(t, trend.CriticalApprox, method)
	assert.Equal(t, forecast.ConfidenceMedium, cfg.Engine.LinkConfidenceFloor())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "data/processed/ethiopia_fi_enriched.xlsx", cfg.Data.InputPath)
	assert.Equal(t, 8, cfg.Workers.MaxParallel)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTCAST_ENGINE_ANNUAL_RAMP_YEARS", "5")
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.AnnualRampYears)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{"zero ramp", "engine:\n  ramp_months: 0\n"},
		{"scenario confidence", "engine:\n  scenario_confidence: 1.5\n"},
		{"critical value", "engine:\n  critical_value: bootstrap\n"},
		{"min confidence", "engine:\n  min_confidence: certain\n"},
		{"gin mode", "server:\n  gin_mode: verbose\n"},
		{"workers", "workers:\n  max_parallel: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

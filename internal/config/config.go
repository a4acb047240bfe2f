package config

import (
	"fmt"
	"strings"

	"eventcast/adapters/stats/trend"
	"eventcast/domain/forecast"
	"eventcast/internal/errors"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Logging LoggingConfig `mapstructure:"logging"`
	Workers WorkersConfig `mapstructure:"workers"`
}

// EngineConfig overrides the forecasting constants
type EngineConfig struct {
	// MagnitudeScale replaces the whole category map when set.
	MagnitudeScale     map[string]float64         `mapstructure:"magnitude_scale"`
	DefaultMagnitude   float64                    `mapstructure:"default_magnitude"`
	NeutralAsZero      bool                       `mapstructure:"neutral_as_zero"`
	AnnualRampYears    int                        `mapstructure:"annual_ramp_years"`
	RampMonths         int                        `mapstructure:"ramp_months"`
	DaysPerMonth       float64                    `mapstructure:"days_per_month"`
	LowerBandFactor    float64                    `mapstructure:"lower_band_factor"`
	UpperBandFactor    float64                    `mapstructure:"upper_band_factor"`
	ScenarioConfidence float64                    `mapstructure:"scenario_confidence"`
	Scenarios          []forecast.ScenarioProfile `mapstructure:"scenarios"`
	VarianceFloor      float64                    `mapstructure:"variance_floor"`
	CriticalValue      string                     `mapstructure:"critical_value"` // student_t | approx
	MinConfidence      string                     `mapstructure:"min_confidence"` // low | medium | high
	Confidence         float64                    `mapstructure:"confidence"`     // default request confidence
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// DataConfig holds input and output locations
type DataConfig struct {
	InputPath  string `mapstructure:"input_path"`
	OutputPath string `mapstructure:"output_path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

// WorkersConfig bounds the per-indicator parallelism of a run
type WorkersConfig struct {
	MaxParallel int `mapstructure:"max_parallel"`
}

// Load reads configuration from an optional YAML file and EVENTCAST_*
// environment variables, then validates it. An empty path skips the file.
// PORT, GIN_MODE, LOG_LEVEL, APP_ENV and EXCEL_FILE are honoured as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EVENTCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range map[string]string{
		"server.port":     "PORT",
		"server.gin_mode": "GIN_MODE",
		"logging.level":   "LOG_LEVEL",
		"logging.env":     "APP_ENV",
		"data.input_path": "EXCEL_FILE",
	} {
		envKey := "EVENTCAST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to read config file: %w", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to unmarshal config: %w", err))
	}
	if len(cfg.Engine.MagnitudeScale) == 0 {
		cfg.Engine.MagnitudeScale = forecast.DefaultMagnitudeScale()
	}
	if len(cfg.Engine.Scenarios) == 0 {
		cfg.Engine.Scenarios = forecast.DefaultScenarioProfiles()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.default_magnitude", forecast.DefaultMagnitudeValue)
	v.SetDefault("engine.neutral_as_zero", false)
	v.SetDefault("engine.annual_ramp_years", forecast.DefaultAnnualRampYears)
	v.SetDefault("engine.ramp_months", forecast.DefaultRampMonths)
	v.SetDefault("engine.days_per_month", forecast.DefaultDaysPerMonth)
	v.SetDefault("engine.lower_band_factor", forecast.DefaultLowerBandFactor)
	v.SetDefault("engine.upper_band_factor", forecast.DefaultUpperBandFactor)
	v.SetDefault("engine.scenario_confidence", forecast.DefaultScenarioConfidence)
	v.SetDefault("engine.variance_floor", forecast.DefaultVarianceFloor)
	v.SetDefault("engine.critical_value", string(trend.CriticalStudentT))
	v.SetDefault("engine.min_confidence", "")
	v.SetDefault("engine.confidence", 0.95)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")

	v.SetDefault("data.input_path", "")
	v.SetDefault("data.output_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.env", "development")

	v.SetDefault("workers.max_parallel", 4)
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if err := c.Engine.Params().Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := c.Engine.CriticalMethod(); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("engine.critical_value: %v", err))
	}
	if c.Engine.MinConfidence != "" && forecast.ParseConfidence(c.Engine.MinConfidence) == forecast.ConfidenceUnknown {
		return errors.ConfigInvalid("engine.min_confidence must be one of: low, medium, high")
	}
	if err := forecast.ValidateConfidence(c.Engine.Confidence); err != nil {
		return errors.ConfigInvalid("engine.confidence must be in (0, 1)")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server.port is required")
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.GinMode] {
		return errors.ConfigInvalid("server.gin_mode must be one of: debug, release, test")
	}
	if c.Workers.MaxParallel < 1 {
		return errors.ConfigInvalid("workers.max_parallel must be at least 1")
	}
	return nil
}

// Params converts the engine section into engine parameters
func (e EngineConfig) Params() forecast.Params {
	scale := make(map[string]float64, len(e.MagnitudeScale))
	for k, v := range e.MagnitudeScale {
		scale[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return forecast.Params{
		MagnitudeScale:     scale,
		DefaultMagnitude:   e.DefaultMagnitude,
		NeutralAsZero:      e.NeutralAsZero,
		AnnualRampYears:    e.AnnualRampYears,
		RampMonths:         e.RampMonths,
		DaysPerMonth:       e.DaysPerMonth,
		LowerBandFactor:    e.LowerBandFactor,
		UpperBandFactor:    e.UpperBandFactor,
		ScenarioConfidence: e.ScenarioConfidence,
		Scenarios:          append([]forecast.ScenarioProfile(nil), e.Scenarios...),
		VarianceFloor:      e.VarianceFloor,
	}
}

// CriticalMethod parses the critical value strategy
func (e EngineConfig) CriticalMethod() (trend.CriticalMethod, error) {
	return trend.ParseCriticalMethod(e.CriticalValue)
}

// LinkConfidenceFloor parses the minimum impact link confidence
func (e EngineConfig) LinkConfidenceFloor() forecast.Confidence {
	return forecast.ParseConfidence(e.MinConfidence)
}

package container

import (
	"context"
	"fmt"

	"eventcast/adapters/excel"
	"eventcast/adapters/stats/trend"
	"eventcast/app"
	"eventcast/internal"
	"eventcast/internal/config"
	"eventcast/internal/impact"
	"eventcast/internal/metrics"
	"eventcast/internal/report"
	"eventcast/internal/scenario"
	"eventcast/ports"
)

// CodeVersion is stamped into every run manifest
var CodeVersion = "dev"

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Engine
	Normalizer *impact.Normalizer
	Estimator  *trend.Estimator
	Generator  *scenario.Generator
	Matrix     *impact.MatrixBuilder
	Service    *app.ForecastService

	// Data. Source is nil when no input path is configured.
	Source ports.TableSourcePort
	Sinks  []ports.ResultSinkPort
}

// New creates a container from configuration. When data.output_path is set,
// every report is written there as a workbook and as Markdown/HTML.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Env),
	}

	method, err := cfg.Engine.CriticalMethod()
	if err != nil {
		return nil, err
	}
	params := cfg.Engine.Params()

	c.Normalizer = impact.NewNormalizer(params, impact.WithLogger(c.Logger))
	c.Estimator = trend.NewEstimator(
		trend.WithCriticalMethod(method),
		trend.WithVarianceFloor(params.VarianceFloor),
		trend.WithLogger(c.Logger),
	)
	c.Generator = scenario.NewGenerator(params, c.Normalizer, c.Estimator,
		scenario.WithMinConfidence(cfg.Engine.LinkConfidenceFloor()),
		scenario.WithLogger(c.Logger),
	)
	c.Matrix = impact.NewMatrixBuilder(c.Normalizer)

	if cfg.Data.InputPath != "" {
		excelConfig := excel.DefaultExcelConfig()
		excelConfig.FilePath = cfg.Data.InputPath
		c.Source = excel.NewWorkbookSource(excelConfig, c.Logger)
	}

	opts := []app.ServiceOption{app.WithServiceLogger(c.Logger)}
	if cfg.Data.OutputPath != "" {
		c.Sinks = append(c.Sinks,
			excel.NewWorkbookSink(cfg.Data.OutputPath, c.Logger),
			report.NewFileSink(cfg.Data.OutputPath, c.Logger),
		)
		for _, sink := range c.Sinks {
			opts = append(opts, app.WithResultSink(sink))
		}
	}

	c.Service = app.NewForecastService(c.Generator, c.Matrix, app.ServiceConfig{
		MaxParallel: cfg.Workers.MaxParallel,
		CodeVersion: CodeVersion,
	}, opts...)

	metrics.Register()
	return c, nil
}

// Shutdown flushes the logger
func (c *Container) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// stderr sync fails on some platforms; nothing to act on
	_ = c.Logger.Sync()
	return nil
}

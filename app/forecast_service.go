package app

import (
	"context"
	"fmt"
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal"
	"eventcast/internal/impact"
	"eventcast/internal/metrics"
	"eventcast/internal/scenario"
	"eventcast/ports"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ForecastService runs the engine over a table set: one trend,
// event-augmented forecast and optional scenarios and history per
// indicator, computed in parallel, plus the impact matrix.
type ForecastService struct {
	generator   *scenario.Generator
	matrix      *impact.MatrixBuilder
	maxParallel int64
	codeVersion string
	sinks       []ports.ResultSinkPort
	logger      *internal.Logger
}

// ServiceConfig holds the service's own settings
type ServiceConfig struct {
	MaxParallel int
	CodeVersion string
}

// ServiceOption configures a ForecastService
type ServiceOption func(*ForecastService)

// WithResultSink adds a sink every finished report is written to
func WithResultSink(sink ports.ResultSinkPort) ServiceOption {
	return func(s *ForecastService) { s.sinks = append(s.sinks, sink) }
}

// WithServiceLogger sets the logger
func WithServiceLogger(logger *internal.Logger) ServiceOption {
	return func(s *ForecastService) { s.logger = logger }
}

// NewForecastService creates a forecast service
func NewForecastService(generator *scenario.Generator, matrix *impact.MatrixBuilder, cfg ServiceConfig, opts ...ServiceOption) *ForecastService {
	maxParallel := int64(cfg.MaxParallel)
	if maxParallel < 1 {
		maxParallel = 1
	}
	codeVersion := cfg.CodeVersion
	if codeVersion == "" {
		codeVersion = "dev"
	}
	s := &ForecastService{
		generator:   generator,
		matrix:      matrix,
		maxParallel: maxParallel,
		codeVersion: codeVersion,
		logger:      internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loads the tables from source and forecasts them
func (s *ForecastService) Run(ctx context.Context, source ports.TableSourcePort, req run.Request) (*run.Report, error) {
	tables, err := source.LoadTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}
	return s.Forecast(ctx, tables, req)
}

// Forecast computes a full report. An EventScale of zero means 1.0.
func (s *ForecastService) Forecast(ctx context.Context, tables *forecast.Tables, req run.Request) (report *run.Report, err error) {
	started := time.Now()
	defer func() { metrics.ObserveForecast("forecast", started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.EventScale == 0 {
		req.EventScale = 1.0
	}

	codes := req.Indicators
	if len(codes) == 0 {
		codes = tables.Indicators()
	}
	if len(codes) == 0 {
		return nil, core.ErrNoIndicators
	}
	req.Indicators = codes

	// one floor for every link consumer in the report
	gen := s.generator.WithConfidenceFloor(req.MinConfidence)

	manifest := run.NewManifest(
		core.NewRunID(),
		tables.Fingerprint(),
		gen.Params(),
		string(gen.CriticalMethod()),
		req,
		s.codeVersion,
	)
	logger := s.logger.With("run_id", manifest.RunID.String(), "input", core.Hash(manifest.InputHash).Short())
	logger.Info("forecasting %d indicator(s) for %d year(s)", len(codes), len(req.Years))

	results := make([]run.IndicatorResult, len(codes))
	sem := semaphore.NewWeighted(s.maxParallel)
	g, gctx := errgroup.WithContext(ctx)

	for i, code := range codes {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res, err := s.forecastIndicator(gen, tables, code, req)
			if err != nil {
				return fmt.Errorf("indicator %s: %w", code, err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("forecast failed: %v", err)
		return nil, err
	}

	report = &run.Report{Manifest: manifest, Results: results}
	if req.Matrix {
		report.Matrix = s.matrix.Build(impact.WithMinConfidence(tables.ImpactLinks, gen.MinConfidence()), tables.Events)
	}

	for _, sink := range s.sinks {
		if err := sink.WriteReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}

	logger.Info("forecast completed in %v", time.Since(started))
	return report, nil
}

func (s *ForecastService) forecastIndicator(gen *scenario.Generator, tables *forecast.Tables, code core.IndicatorCode, req run.Request) (*run.IndicatorResult, error) {
	res := &run.IndicatorResult{
		Indicator: code,
		Fit:       gen.Fit(tables, code),
	}

	var err error
	if res.Trend, err = gen.Trend(tables, code, req.Years, req.Confidence); err != nil {
		return nil, err
	}
	if res.Augmented, err = gen.Augmented(tables, code, req.Years, req.EventScale, req.Confidence); err != nil {
		return nil, err
	}
	if req.Scenarios {
		if res.Scenarios, err = gen.Scenarios(tables, code, req.Years); err != nil {
			return nil, err
		}
	}
	if req.Reconstruct {
		res.History = gen.Reconstruct(tables, code)
	}
	return res, nil
}

// Matrix builds the event × indicator impact matrix over the links that
// pass the configured confidence floor
func (s *ForecastService) Matrix(ctx context.Context, tables *forecast.Tables) (*forecast.ImpactMatrix, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := s.matrix.Build(impact.WithMinConfidence(tables.ImpactLinks, s.generator.MinConfidence()), tables.Events)
	metrics.ObserveForecast("matrix", started, nil)
	return m, nil
}

// Reconstruct overlays event effects on one indicator's observed history.
// It fails with ErrIndicatorNotFound when the indicator has no observations.
func (s *ForecastService) Reconstruct(ctx context.Context, tables *forecast.Tables, code core.IndicatorCode) (history []forecast.AdjustedObservation, err error) {
	started := time.Now()
	defer func() { metrics.ObserveForecast("reconstruct", started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tables.Series(code)) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrIndicatorNotFound, code)
	}
	return s.generator.Reconstruct(tables, code), nil
}

// Spread returns the monthly schedule of one impact link's effect
func (s *ForecastService) Spread(ctx context.Context, tables *forecast.Tables, linkID core.ImpactLinkID) ([]forecast.SpreadStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, link := range tables.ImpactLinks {
		if link.ID != linkID {
			continue
		}
		event, ok := impact.NewEventIndex(tables.Events).Lookup(link.ParentEventID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrEventNotFound, link.ParentEventID)
		}
		return s.generator.Spread(link, event)
	}
	return nil, fmt.Errorf("%w: impact link %s", core.ErrNotFound, linkID)
}

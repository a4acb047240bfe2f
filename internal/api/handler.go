// Package api exposes the forecast service over HTTP with gin.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"eventcast/app"
	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal"
	"eventcast/internal/errors"
	"eventcast/internal/metrics"
	"eventcast/ports"

	"github.com/gin-gonic/gin"
)

// Handler serves forecast requests. Requests may carry their own tables;
// otherwise the configured source is loaded for every request.
type Handler struct {
	service           *app.ForecastService
	source            ports.TableSourcePort
	defaultConfidence float64
	logger            *internal.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithTableSource sets the tables used when a request carries none
func WithTableSource(source ports.TableSourcePort) HandlerOption {
	return func(h *Handler) { h.source = source }
}

// WithDefaultConfidence sets the confidence used when a request omits it
func WithDefaultConfidence(c float64) HandlerOption {
	return func(h *Handler) { h.defaultConfidence = c }
}

// WithLogger sets the logger
func WithLogger(logger *internal.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates a handler
func NewHandler(service *app.ForecastService, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:           service,
		defaultConfidence: 0.95,
		logger:            internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/forecast", h.handleForecast)
	v1.POST("/matrix", h.handleMatrix)
	v1.POST("/reconstruct", h.handleReconstruct)
	v1.POST("/spread", h.handleSpread)
}

// NewRouter builds a gin engine with recovery, request logging and the handler's routes
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	h.Register(router)
	return router
}

type forecastBody struct {
	Tables *forecast.Tables `json:"tables,omitempty"`
	run.Request
}

type tablesBody struct {
	Tables *forecast.Tables `json:"tables,omitempty"`
}

type reconstructBody struct {
	Tables    *forecast.Tables   `json:"tables,omitempty"`
	Indicator core.IndicatorCode `json:"indicator" binding:"required"`
}

type spreadBody struct {
	Tables *forecast.Tables  `json:"tables,omitempty"`
	LinkID core.ImpactLinkID `json:"link_id" binding:"required"`
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleForecast(c *gin.Context) {
	var body forecastBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	tables, err := h.tables(c.Request.Context(), body.Tables)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req := body.Request
	if req.Confidence == 0 {
		req.Confidence = h.defaultConfidence
	}

	report, err := h.service.Forecast(c.Request.Context(), tables, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) handleMatrix(c *gin.Context) {
	var body tablesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	tables, err := h.tables(c.Request.Context(), body.Tables)
	if err != nil {
		h.writeError(c, err)
		return
	}
	m, err := h.service.Matrix(c.Request.Context(), tables)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) handleReconstruct(c *gin.Context) {
	var body reconstructBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	tables, err := h.tables(c.Request.Context(), body.Tables)
	if err != nil {
		h.writeError(c, err)
		return
	}
	history, err := h.service.Reconstruct(c.Request.Context(), tables, body.Indicator)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicator": body.Indicator, "history": history})
}

func (h *Handler) handleSpread(c *gin.Context) {
	var body spreadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	tables, err := h.tables(c.Request.Context(), body.Tables)
	if err != nil {
		h.writeError(c, err)
		return
	}
	steps, err := h.service.Spread(c.Request.Context(), tables, body.LinkID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link_id": body.LinkID, "schedule": steps})
}

func (h *Handler) tables(ctx context.Context, inline *forecast.Tables) (*forecast.Tables, error) {
	if inline != nil {
		return inline, nil
	}
	if h.source == nil {
		return nil, errors.InvalidInput("request carries no tables and no data source is configured")
	}
	tables, err := h.source.LoadTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tables")
	}
	return tables, nil
}

// bindError classifies a body that failed to decode. A table cell of the
// wrong type is a conversion failure, as a malformed workbook cell is;
// anything else is invalid input.
func bindError(err error) error {
	if core.IsConversionError(err) {
		return errors.ConversionError(err)
	}
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "tables.") {
		return errors.ConversionError(fmt.Errorf("%w: %s: got JSON %s", core.ErrConversion, typeErr.Field, typeErr.Value))
	}
	return errors.WithCode(errors.CodeInvalidInput, err)
}

// writeError maps domain and application errors onto status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}

func classify(err error) (int, string) {
	switch {
	case core.IsConversionError(err):
		return http.StatusUnprocessableEntity, errors.CodeConversionError
	case core.IsValidationError(err):
		return http.StatusBadRequest, errors.CodeValidationError
	case core.IsNotFoundError(err):
		return http.StatusNotFound, errors.CodeNotFound
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errors.CodeInternalError
	}
	switch code := errors.GetCode(err); code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest, code
	case errors.CodeNotFound:
		return http.StatusNotFound, code
	}
	return http.StatusInternalServerError, errors.CodeInternalError
}

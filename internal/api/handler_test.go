package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventcast/adapters/stats/trend"
	"eventcast/app"
	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/internal"
	"eventcast/internal/errors"
	"eventcast/internal/impact"
	"eventcast/internal/metrics"
	"eventcast/internal/scenario"
	"eventcast/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	tables *forecast.Tables
	err    error
}

func (s stubSource) LoadTables(context.Context) (*forecast.Tables, error) {
	return s.tables, s.err
}

func newTestRouter(opts ...HandlerOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	params := forecast.DefaultParams()
	nop := internal.NewNopLogger()
	normalizer := impact.NewNormalizer(params, impact.WithLogger(nop), impact.WithUnrecognizedHook(func(string) {}))
	generator := scenario.NewGenerator(params, normalizer, trend.NewEstimator(trend.WithLogger(nop)), scenario.WithLogger(nop))
	service := app.NewForecastService(generator, impact.NewMatrixBuilder(normalizer), app.ServiceConfig{MaxParallel: 2, CodeVersion: "test"}, app.WithServiceLogger(nop))
	return NewRouter(NewHandler(service, append([]HandlerOption{WithLogger(nop)}, opts...)...))
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealth(t *testing.T) {
	w, out := do(t, newTestRouter(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestForecastInlineTables(t *testing.T) {
	router := newTestRouter()
	w, out := do(t, router, http.MethodPost, "/v1/forecast", gin.H{
		"tables":     testkit.EthiopiaTables(),
		"years":      []int{2026, 2027},
		"confidence": 0.9,
		"scenarios":  true,
		"matrix":     true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	results := out["results"].([]interface{})
	require.Len(t, results, 3)
	mm := results[1].(map[string]interface{})
	assert.Equal(t, string(testkit.MobileMoneyAccounts), mm["indicator"])
	assert.Len(t, mm["scenarios"], 6)

	augmented := mm["augmented"].([]interface{})
	first := augmented[0].(map[string]interface{})
	assert.InDelta(t, 12.2+25.46*6+0.2, first["forecast"], 1e-9)

	manifest := out["manifest"].(map[string]interface{})
	assert.Equal(t, 0.9, manifest["request"].(map[string]interface{})["confidence"])
	assert.NotNil(t, out["matrix"])
}

func TestForecastFromSource(t *testing.T) {
	router := newTestRouter(WithTableSource(stubSource{tables: testkit.EthiopiaTables()}))
	w, out := do(t, router, http.MethodPost, "/v1/forecast", gin.H{
		"indicators": []string{string(testkit.BankAccounts)},
		"years":      []int{2026},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, out["results"], 1)

	manifest := out["manifest"].(map[string]interface{})
	assert.Equal(t, 0.95, manifest["request"].(map[string]interface{})["confidence"])
}

func TestForecastErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   []HandlerOption
		body   interface{}
		status int
		code   string
	}{
		{
			name:   "no tables",
			body:   gin.H{"years": []int{2026}},
			status: http.StatusBadRequest,
			code:   errors.CodeInvalidInput,
		},
		{
			name:   "conversion error",
			opts:   []HandlerOption{WithTableSource(stubSource{err: errors.ConversionError(core.NewConversionError("value_numeric", 4, "abc"))})},
			body:   gin.H{"years": []int{2026}},
			status: http.StatusUnprocessableEntity,
			code:   errors.CodeConversionError,
		},
		{
			name:   "invalid confidence",
			body:   gin.H{"tables": testkit.EthiopiaTables(), "years": []int{2026}, "confidence": 1.5},
			status: http.StatusBadRequest,
			code:   errors.CodeValidationError,
		},
		{
			name:   "no years",
			body:   gin.H{"tables": testkit.EthiopiaTables()},
			status: http.StatusBadRequest,
			code:   errors.CodeValidationError,
		},
		{
			name: "non-numeric observation value",
			body: gin.H{"years": []int{2026}, "tables": gin.H{"observations": []gin.H{
				{"indicator_code": "ACC_OWNERSHIP", "observation_date": "2021-12-31", "value_numeric": "forty-six"},
			}}},
			status: http.StatusUnprocessableEntity,
			code:   errors.CodeConversionError,
		},
		{
			name: "unparseable observation date",
			body: gin.H{"years": []int{2026}, "tables": gin.H{"observations": []gin.H{
				{"indicator_code": "ACC_OWNERSHIP", "observation_date": "end of 2021", "value_numeric": 46},
			}}},
			status: http.StatusUnprocessableEntity,
			code:   errors.CodeConversionError,
		},
		{
			name: "non-numeric lag",
			body: gin.H{"years": []int{2026}, "tables": gin.H{
				"observations": []gin.H{{"indicator_code": "ACC_OWNERSHIP", "observation_date": "2021-12-31", "value_numeric": 46}},
				"impact_links": []gin.H{{"record_id": "l1", "parent_id": "e1", "indicator_code": "ACC_OWNERSHIP", "lag_months": "twelve"}},
			}},
			status: http.StatusUnprocessableEntity,
			code:   errors.CodeConversionError,
		},
		{
			name:   "malformed body",
			body:   gin.H{"years": "soon"},
			status: http.StatusBadRequest,
			code:   errors.CodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, newTestRouter(tt.opts...), http.MethodPost, "/v1/forecast", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, out["code"])
		})
	}
}

func TestMatrixEndpoint(t *testing.T) {
	w, out := do(t, newTestRouter(), http.MethodPost, "/v1/matrix", gin.H{"tables": testkit.EthiopiaTables()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, out["events"], 2)
	assert.Len(t, out["indicators"], 2)
}

func TestReconstructEndpoint(t *testing.T) {
	router := newTestRouter(WithTableSource(stubSource{tables: testkit.EthiopiaTables()}))

	w, out := do(t, router, http.MethodPost, "/v1/reconstruct", gin.H{"indicator": string(testkit.BankAccounts)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	history := out["history"].([]interface{})
	require.Len(t, history, 2)
	assert.InDelta(t, 54.1, history[1].(map[string]interface{})["value_impacted"], 1e-9)

	w, out = do(t, router, http.MethodPost, "/v1/reconstruct", gin.H{"indicator": "MISSING"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, out["code"])

	w, _ = do(t, router, http.MethodPost, "/v1/reconstruct", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpreadEndpoint(t *testing.T) {
	router := newTestRouter(WithTableSource(stubSource{tables: testkit.EthiopiaTables()}))

	w, out := do(t, router, http.MethodPost, "/v1/spread", gin.H{"link_id": "111"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, out["schedule"], forecast.DefaultRampMonths)

	w, _ = do(t, router, http.MethodPost, "/v1/spread", gin.H{"link_id": "999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Register()
	router := newTestRouter()
	w, _ := do(t, router, http.MethodPost, "/v1/matrix", gin.H{"tables": testkit.EthiopiaTables()})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eventcast_forecasts_total")
}

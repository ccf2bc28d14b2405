package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity_valuation/pkg/core/config"
)

func newTestRouter() http.Handler {
	return NewRouter(config.Default(), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDIsUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/valuation/dcf",
		bytes.NewBufferString(`{"free_cash_flow": 100, "wacc": 0.1, "terminal_growth_rate": 0.03, "shares_outstanding": 10}`))
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RequestID           string  `json:"request_id"`
		EquityValuePerShare float64 `json:"equity_value_per_share"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	_, err := uuid.Parse(body.RequestID)
	assert.NoError(t, err, "request id %q should be a UUID", body.RequestID)
	assert.Equal(t, body.RequestID, rec.Header().Get("X-Request-Id"))
	assert.InDelta(t, 129.27200522993155, body.EquityValuePerShare, 1e-9)
}

func TestRequestIDFromCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-Id"))
}

func TestConfigRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "market")
	assert.Contains(t, body, "defaults")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/valuation/dcf", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreConfig "equity_valuation/pkg/core/config"
)

func TestHandleConfig(t *testing.T) {
	cfg := coreConfig.Default()
	cfg.Market.RiskFreeRate = 0.045

	router := chi.NewRouter()
	NewHandler(cfg, zerolog.Nop()).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.045, resp.Market.RiskFreeRate)
	assert.Equal(t, 0.10, resp.Market.MarketReturn)
	assert.Equal(t, 0.20, resp.Defaults.TaxRate)
	assert.Equal(t, 0.05, resp.Fallbacks.CostOfDebt)
	assert.Equal(t, 0.7, resp.Fallbacks.EquityWeight)
	assert.Equal(t, 0.3, resp.Fallbacks.DebtWeight)
}

func TestNewHandler_NilConfigUsesDefaults(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop())
	assert.Equal(t, 8080, h.cfg.Server.Port)
}

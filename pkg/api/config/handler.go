package config

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	coreConfig "equity_valuation/pkg/core/config"
	"equity_valuation/pkg/core/valuation"
)

// Response is the configuration the valuators run with.
type Response struct {
	Market   valuation.MarketAssumptions `json:"market"`
	Defaults coreConfig.Defaults         `json:"defaults"`
	// Fallbacks applied by the WACC estimator when reported figures cannot support the formula.
	Fallbacks Fallbacks `json:"fallbacks"`
}

type Fallbacks struct {
	CostOfDebt   float64 `json:"cost_of_debt"`
	EquityWeight float64 `json:"equity_weight"`
	DebtWeight   float64 `json:"debt_weight"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	cfg *coreConfig.Config
	log zerolog.Logger
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config, log zerolog.Logger) *Handler {
	if cfg == nil {
		cfg = coreConfig.Default()
	}
	return &Handler{
		cfg: cfg,
		log: log.With().Str("handler", "config").Logger(),
	}
}

// RegisterRoutes registers the config route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.HandleConfig)
}

// HandleConfig handles GET /api/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Market:   h.cfg.Market,
		Defaults: h.cfg.Defaults,
		Fallbacks: Fallbacks{
			CostOfDebt:   valuation.DefaultCostOfDebt,
			EquityWeight: valuation.DefaultEquityWeight,
			DebtWeight:   valuation.DefaultDebtWeight,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode config response")
	}
}

// Package valuation provides HTTP handlers for the valuation engine.
package valuation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"equity_valuation/pkg/core/config"
	"equity_valuation/pkg/core/ingest"
	"equity_valuation/pkg/core/pipeline"
	coreValuation "equity_valuation/pkg/core/valuation"
)

// MaxBodyBytes caps request bodies; provider records are a few kilobytes.
const MaxBodyBytes = 1 << 20

// Handler handles valuation HTTP requests
type Handler struct {
	cfg          *config.Config
	orchestrator *pipeline.Orchestrator
	log          zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(cfg *config.Config, log zerolog.Logger) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{
		cfg:          cfg,
		orchestrator: pipeline.NewOrchestrator(cfg, nil),
		log:          log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes registers all valuation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/valuation", func(r chi.Router) {
		r.Post("/normalize", h.HandleNormalize)
		r.Post("/wacc", h.HandleWACC)
		r.Post("/growth", h.HandleGrowth)
		r.Post("/dcf", h.HandleDCF)
		r.Post("/pe", h.HandlePE)
		r.Post("/ev-ebitda", h.HandleEVEBITDA)
		r.Post("/ddm", h.HandleDDM)
		r.Post("/report", h.HandleReport)
	})
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

type NormalizeResponse struct {
	RequestID string                        `json:"request_id"`
	Seed      ingest.WACCSeed               `json:"seed"`
	Snapshot  ingest.Snapshot               `json:"snapshot"`
	WACC      coreValuation.WACCAssumptions `json:"wacc"`
	WACCRate  float64                       `json:"wacc_rate"`
}

// WACCRequest takes either edited assumptions or a seed to estimate from.
type WACCRequest struct {
	Assumptions *coreValuation.WACCAssumptions   `json:"assumptions,omitempty"`
	Seed        *ingest.WACCSeed                 `json:"seed,omitempty"`
	Market      *coreValuation.MarketAssumptions `json:"market,omitempty"`
}

type WACCResponse struct {
	RequestID       string                        `json:"request_id"`
	Assumptions     coreValuation.WACCAssumptions `json:"assumptions"`
	WACC            float64                       `json:"wacc"`
	WeightsBalanced bool                          `json:"weights_balanced"`
}

// GrowthRequest takes a dividend yield directly or a dividend and price.
type GrowthRequest struct {
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	Dividend      float64  `json:"dividend"`
	Price         float64  `json:"price"`
	PERatio       float64  `json:"pe_ratio"`
}

type GrowthResponse struct {
	RequestID string `json:"request_id"`
	coreValuation.GrowthEstimate
}

type DCFResponse struct {
	RequestID string `json:"request_id"`
	coreValuation.DCFResult
}

type PERequest struct {
	EPS          float64 `json:"eps"`
	PEMultiple   float64 `json:"pe_multiple"`
	CurrentPrice float64 `json:"current_price"`
}

type PriceResponse struct {
	RequestID     string                     `json:"request_id"`
	SharePrice    float64                    `json:"share_price"`
	UpsidePercent float64                    `json:"upside_percent"`
	Status        coreValuation.UpsideStatus `json:"status"`
}

type EVEBITDARequest struct {
	coreValuation.EVEBITDAInput
	CurrentPrice float64 `json:"current_price"`
}

type EVEBITDAResponse struct {
	RequestID string `json:"request_id"`
	coreValuation.EVEBITDAResult
	UpsidePercent float64                    `json:"upside_percent"`
	Status        coreValuation.UpsideStatus `json:"status"`
}

// DDMRequest derives the cost of equity from pe_ratio when cost_of_equity is 0.
type DDMRequest struct {
	coreValuation.DDMInput
	PERatio float64 `json:"pe_ratio,omitempty"`
}

type DDMResponse struct {
	RequestID string `json:"request_id"`
	coreValuation.DDMResult
}

type ReportResponse struct {
	RequestID string `json:"request_id"`
	*pipeline.Report
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// HandleNormalize handles POST /api/valuation/normalize
// The body is the provider record itself.
func (h *Handler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	raw, err := ingest.DecodePayload(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n := ingest.NormalizeWith(raw, h.cfg.Defaults.TaxRate)
	wacc := coreValuation.EstimateWACC(n.Seed.CapitalStructure(), h.cfg.Market)

	h.writeJSON(w, http.StatusOK, NormalizeResponse{
		RequestID: requestID(r),
		Seed:      n.Seed,
		Snapshot:  n.Snapshot,
		WACC:      wacc,
		WACCRate:  wacc.WACC(),
	})
}

// HandleWACC handles POST /api/valuation/wacc
func (h *Handler) HandleWACC(w http.ResponseWriter, r *http.Request) {
	var req WACCRequest
	if !h.decode(w, r, &req) {
		return
	}

	var a coreValuation.WACCAssumptions
	switch {
	case req.Assumptions != nil:
		a = *req.Assumptions
	case req.Seed != nil:
		market := h.cfg.Market
		if req.Market != nil {
			market = *req.Market
		}
		a = coreValuation.EstimateWACC(req.Seed.CapitalStructure(), market)
	default:
		h.writeError(w, r, badRequest(errors.New("either assumptions or seed is required")))
		return
	}

	h.writeJSON(w, http.StatusOK, WACCResponse{
		RequestID:       requestID(r),
		Assumptions:     a,
		WACC:            a.WACC(),
		WeightsBalanced: a.WeightsBalanced(),
	})
}

// HandleGrowth handles POST /api/valuation/growth
func (h *Handler) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	var req GrowthRequest
	if !h.decode(w, r, &req) {
		return
	}

	yield := coreValuation.DividendYield(req.Dividend, req.Price)
	if req.DividendYield != nil {
		yield = *req.DividendYield
	}

	h.writeJSON(w, http.StatusOK, GrowthResponse{
		RequestID:      requestID(r),
		GrowthEstimate: coreValuation.EstimateGrowth(yield, req.PERatio),
	})
}

// HandleDCF handles POST /api/valuation/dcf
func (h *Handler) HandleDCF(w http.ResponseWriter, r *http.Request) {
	var req coreValuation.DCFAssumptions
	if !h.decode(w, r, &req) {
		return
	}

	res, err := coreValuation.Project(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, DCFResponse{RequestID: requestID(r), DCFResult: res})
}

// HandlePE handles POST /api/valuation/pe
func (h *Handler) HandlePE(w http.ResponseWriter, r *http.Request) {
	var req PERequest
	if !h.decode(w, r, &req) {
		return
	}

	price := coreValuation.PEValuation(req.EPS, req.PEMultiple)
	pct, status := coreValuation.Upside(price, req.CurrentPrice)
	h.writeJSON(w, http.StatusOK, PriceResponse{
		RequestID:     requestID(r),
		SharePrice:    price,
		UpsidePercent: pct,
		Status:        status,
	})
}

// HandleEVEBITDA handles POST /api/valuation/ev-ebitda
func (h *Handler) HandleEVEBITDA(w http.ResponseWriter, r *http.Request) {
	var req EVEBITDARequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := coreValuation.EVEBITDA(req.EVEBITDAInput)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pct, status := coreValuation.Upside(res.PerShare, req.CurrentPrice)
	h.writeJSON(w, http.StatusOK, EVEBITDAResponse{
		RequestID:      requestID(r),
		EVEBITDAResult: res,
		UpsidePercent:  pct,
		Status:         status,
	})
}

// HandleDDM handles POST /api/valuation/ddm
func (h *Handler) HandleDDM(w http.ResponseWriter, r *http.Request) {
	var req DDMRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := req.DDMInput
	if in.CostOfEquity == 0 && req.PERatio != 0 {
		ke, err := coreValuation.CostOfEquityFromPE(req.PERatio)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.CostOfEquity = ke
	}

	res, err := coreValuation.CalculateDDM(in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, DDMResponse{RequestID: requestID(r), DDMResult: res})
}

// HandleReport handles POST /api/valuation/report
// Runs the full flow: payload, assumption edits, optional Apply WACC, all models.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.orchestrator.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Debug().
		Str("symbol", report.Symbol).
		Int("lines", len(report.Summary.Lines)).
		Strs("warnings", report.Summary.Warnings).
		Str("request_id", requestID(r)).
		Msg("Report generated")

	h.writeJSON(w, http.StatusOK, ReportResponse{RequestID: requestID(r), Report: report})
}

// =============================================================================
// HELPERS
// =============================================================================

type requestError struct{ err error }

func (e requestError) Error() string { return "malformed request: " + e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err: err} }

// decode reads a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, badRequest(err))
		return false
	}
	return true
}

// statusFor maps an engine error to its HTTP status and wire kind.
func statusFor(err error) (int, string) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, coreValuation.KindInvalidInput
	}
	switch kind := coreValuation.KindOf(err); kind {
	case coreValuation.KindInvalidInput:
		return http.StatusBadRequest, kind
	case coreValuation.KindValuationUndefined:
		return http.StatusUnprocessableEntity, kind
	case coreValuation.KindDataUnavailable:
		return http.StatusBadGateway, kind
	}
	return http.StatusInternalServerError, "internal"
}

// writeError writes the error envelope and logs it
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)

	event := h.log.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		event = h.log.Error()
	}
	event.Err(err).
		Str("kind", kind).
		Str("path", r.URL.Path).
		Str("request_id", requestID(r)).
		Msg("Valuation request failed")

	h.writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind, RequestID: requestID(r)})
}

// writeJSON writes a JSON response. The body is encoded before the status is
// sent so an unencodable value becomes a 500 instead of an empty 2xx.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "failed to encode response", Kind: "internal"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

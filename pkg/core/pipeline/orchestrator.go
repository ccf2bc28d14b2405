package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"equity_valuation/pkg/core/assumption"
	"equity_valuation/pkg/core/config"
	"equity_valuation/pkg/core/ingest"
	"equity_valuation/pkg/core/valuation"
)

// PayloadSource retrieves the provider record for a symbol.
// Implementations may read from:
// - A local directory of saved records (FileSource)
// - An in-memory fixture in tests
type PayloadSource interface {
	FetchPayload(ctx context.Context, symbol string) ([]byte, error)
}

// FileSource reads <Dir>/<SYMBOL>.json.
type FileSource struct {
	Dir string
}

// FetchPayload implements PayloadSource. A missing file is ErrDataUnavailable.
func (f FileSource) FetchPayload(ctx context.Context, symbol string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.Dir, strings.ToUpper(symbol)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", valuation.ErrDataUnavailable, err)
	}
	return data, nil
}

// Request carries one report run: the provider record plus the user's state.
type Request struct {
	Payload json.RawMessage `json:"payload,omitempty"`

	// Assumptions is the caller's current set. When present its USER fields
	// survive re-derivation from Payload.
	Assumptions assumption.Set   `json:"assumptions,omitempty"`
	Edits       assumption.Edits `json:"edits,omitempty"`
	ApplyWACC   bool             `json:"apply_wacc"`

	// EV/EBITDA runs only when EBITDA is supplied; the provider record has no EBITDA.
	EBITDA         *float64 `json:"ebitda,omitempty"`
	EBITDAMultiple float64  `json:"ebitda_multiple,omitempty"`
	Cash           float64  `json:"cash,omitempty"`
}

// Report is the full output of a run.
type Report struct {
	Symbol        string                    `json:"symbol,omitempty"`
	Normalized    ingest.Normalized         `json:"normalized"`
	EstimatedWACC valuation.WACCAssumptions `json:"estimated_wacc"`
	Growth        valuation.GrowthEstimate  `json:"growth"`
	Assumptions   assumption.Set            `json:"assumptions"`
	Summary       valuation.Summary         `json:"summary"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}

// Orchestrator manages the data flow:
// payload -> Normalizer -> estimators -> assumption set -> valuators -> Report
type Orchestrator struct {
	source   PayloadSource
	market   valuation.MarketAssumptions
	defaults assumption.Defaults
	taxRate  float64
}

// NewOrchestrator creates an orchestrator from configuration. source may be
// nil when every request carries its own payload.
func NewOrchestrator(cfg *config.Config, source PayloadSource) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Orchestrator{
		source:   source,
		market:   cfg.Market,
		defaults: cfg.Defaults.Assumptions(),
		taxRate:  cfg.Defaults.TaxRate,
	}
}

// RunForSymbol fetches the symbol's payload from the source and runs the report.
func (o *Orchestrator) RunForSymbol(ctx context.Context, symbol string, req Request) (*Report, error) {
	if o.source == nil {
		return nil, fmt.Errorf("%w: no payload source configured", valuation.ErrDataUnavailable)
	}
	payload, err := o.source.FetchPayload(ctx, symbol)
	if err != nil {
		return nil, err
	}
	req.Payload = payload
	return o.Run(ctx, req)
}

// Run decodes req.Payload and builds the report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := ingest.DecodePayload(req.Payload)
	if err != nil {
		return nil, err
	}
	return o.RunRaw(ctx, raw, req)
}

// RunRaw builds the report from already-decoded provider fields. Model
// failures land in the summary lines; only a bad edit fails the run.
func (o *Orchestrator) RunRaw(ctx context.Context, raw ingest.RawFinancials, req Request) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Normalize
	n := ingest.NormalizeWith(raw, o.taxRate)

	// 2. Derive, keeping the caller's USER fields
	derived := assumption.Derive(n, o.market, o.defaults)
	set := derived
	if len(req.Assumptions) > 0 {
		set = assumption.Refresh(req.Assumptions, derived)
	}

	// 3. Edits, then the manual WACC action
	set, err := assumption.Override(set, req.Edits)
	if err != nil {
		return nil, err
	}
	if req.ApplyWACC {
		set = assumption.ApplyWACC(set)
	}

	// 4. Valuators
	snap := n.Snapshot
	growth := valuation.EstimateGrowth(snap.DividendYield(), snap.ForwardPE)
	w := set.WACCAssumptions()

	input := valuation.MasterValuationInput{
		DCF:          set.DCFAssumptions(),
		WACC:         &w,
		EPS:          snap.ForwardEPS,
		PEMultiple:   snap.ForwardPE,
		DDM:          ddmInput(snap, set, growth),
		CurrentPrice: snap.CurrentPrice,
	}
	if req.EBITDA != nil {
		input.EVEBITDA = &valuation.EVEBITDAInput{
			EBITDA:   *req.EBITDA,
			Multiple: req.EBITDAMultiple,
			Debt:     n.Seed.TotalDebt,
			Cash:     req.Cash,
			Shares:   set.Get(assumption.FieldSharesOutstanding),
		}
	}

	return &Report{
		Symbol:        snap.Symbol,
		Normalized:    n,
		EstimatedWACC: valuation.EstimateWACC(n.Seed.CapitalStructure(), o.market),
		Growth:        growth,
		Assumptions:   set,
		Summary:       valuation.RunAllValuations(input),
		GeneratedAt:   time.Now(),
	}, nil
}

// ddmInput prices dividends at the earnings yield with the implied growth
// rate when a forward P/E exists, else at the set's cost of equity with no
// growth. A non-payer still gets an input so the summary shows the line.
// The yield stays unrounded here: g is 1/PE - D/P, so ke - g must equal the
// dividend yield exactly.
func ddmInput(snap ingest.Snapshot, set assumption.Set, growth valuation.GrowthEstimate) *valuation.DDMInput {
	in := &valuation.DDMInput{
		ForwardDividend: snap.ForwardDividend,
		CostOfEquity:    set.Get(assumption.FieldCostOfEquity),
		CurrentPrice:    snap.CurrentPrice,
	}
	if growth.Applicable && snap.ForwardPE > 0 {
		in.CostOfEquity = 1 / snap.ForwardPE
		in.GrowthRate = growth.Rate
	}
	return in
}

// Package assumption implements the editable assumption set behind a valuation.
// Every value carries provenance so a re-derivation never clobbers a user edit.
package assumption

import (
	"fmt"
	"math"
	"sort"
	"time"

	"equity_valuation/pkg/core/ingest"
	"equity_valuation/pkg/core/valuation"
)

// =============================================================================
// FIELDS AND PROVENANCE
// =============================================================================

// Field identifies one editable assumption.
type Field string

const (
	FieldCostOfEquity       Field = "cost_of_equity"
	FieldCostOfDebt         Field = "cost_of_debt"
	FieldEquityWeight       Field = "equity_weight"
	FieldDebtWeight         Field = "debt_weight"
	FieldTaxRate            Field = "tax_rate"
	FieldFreeCashFlow       Field = "free_cash_flow"
	FieldGrowthRate         Field = "growth_rate"
	FieldWACC               Field = "wacc"
	FieldTerminalGrowthRate Field = "terminal_growth_rate"
	FieldSharesOutstanding  Field = "shares_outstanding"
)

// Fields lists every field in display order.
var Fields = []Field{
	FieldCostOfEquity,
	FieldCostOfDebt,
	FieldEquityWeight,
	FieldDebtWeight,
	FieldTaxRate,
	FieldFreeCashFlow,
	FieldGrowthRate,
	FieldWACC,
	FieldTerminalGrowthRate,
	FieldSharesOutstanding,
}

// ParseField validates a field id.
func ParseField(id string) (Field, error) {
	for _, f := range Fields {
		if string(f) == id {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown assumption field '%s'", valuation.ErrInvalidInput, id)
}

// Source records who last set a value.
type Source string

const (
	SourceSystem Source = "SYSTEM" // derived from provider data
	SourceUser   Source = "USER"   // edited or applied manually
)

// Value is one assumption with provenance.
type Value struct {
	Value     float64   `json:"value"`
	Source    Source    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// clock is swapped in tests.
var clock = time.Now

// =============================================================================
// ASSUMPTION SET
// =============================================================================

// Set holds one Value per Field. Operations return a new Set and never
// mutate their input.
type Set map[Field]Value

// Defaults are the assumptions provider data cannot supply.
type Defaults struct {
	GrowthRate         float64 `json:"growth_rate" yaml:"growth_rate"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate" yaml:"terminal_growth_rate"`
}

// BaseDefaults is 10% near-term growth and 3% terminal growth.
var BaseDefaults = Defaults{GrowthRate: 0.10, TerminalGrowthRate: 0.03}

// Edits maps fields to user-entered values.
type Edits map[Field]float64

// Get returns a field's value, 0 when unset.
func (s Set) Get(f Field) float64 {
	return s[f].Value
}

// SourceOf returns who set the field, "" when unset.
func (s Set) SourceOf(f Field) Source {
	return s[f].Source
}

func (s Set) clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Derive builds a SYSTEM-sourced set from normalized provider data. The wacc
// field holds the estimator's WACC so a fresh set is immediately usable.
func Derive(n ingest.Normalized, market valuation.MarketAssumptions, defaults Defaults) Set {
	w := valuation.EstimateWACC(n.Seed.CapitalStructure(), market)
	now := clock()
	sys := func(v float64) Value { return Value{Value: v, Source: SourceSystem, UpdatedAt: now} }

	return Set{
		FieldCostOfEquity:       sys(w.CostOfEquity),
		FieldCostOfDebt:         sys(w.CostOfDebt),
		FieldEquityWeight:       sys(w.EquityWeight),
		FieldDebtWeight:         sys(w.DebtWeight),
		FieldTaxRate:            sys(w.TaxRate),
		FieldFreeCashFlow:       sys(n.Snapshot.FreeCashFlow),
		FieldGrowthRate:         sys(defaults.GrowthRate),
		FieldWACC:               sys(w.WACC()),
		FieldTerminalGrowthRate: sys(defaults.TerminalGrowthRate),
		FieldSharesOutstanding:  sys(n.Snapshot.SharesOutstanding),
	}
}

// Override merges edits into s. Edited fields become USER-sourced. An unknown
// field or a non-finite value rejects the whole batch.
func Override(s Set, edits Edits) (Set, error) {
	keys := make([]string, 0, len(edits))
	for f := range edits {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		if v := edits[f]; math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s is not a finite number", valuation.ErrInvalidInput, f)
		}
	}

	out := s.clone()
	now := clock()
	for f, v := range edits {
		out[f] = Value{Value: v, Source: SourceUser, UpdatedAt: now}
	}
	return out, nil
}

// ApplyWACC recomputes wacc from the five WACC inputs and marks it USER, so a
// later Refresh keeps it.
func ApplyWACC(s Set) Set {
	out := s.clone()
	out[FieldWACC] = Value{Value: s.WACCAssumptions().WACC(), Source: SourceUser, UpdatedAt: clock()}
	return out
}

// Refresh takes every SYSTEM field from derived and keeps every USER field
// from current. Call order between Refresh and ApplyWACC does not matter: an
// applied WACC is USER-sourced and survives.
func Refresh(current, derived Set) Set {
	out := derived.clone()
	for f, v := range current {
		if v.Source == SourceUser {
			out[f] = v
		}
	}
	return out
}

// UserFields lists the USER-sourced fields in display order.
func (s Set) UserFields() []Field {
	var out []Field
	for _, f := range Fields {
		if s[f].Source == SourceUser {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// ENGINE INPUTS
// =============================================================================

// WACCAssumptions converts the set into WACC estimator inputs.
func (s Set) WACCAssumptions() valuation.WACCAssumptions {
	return valuation.WACCAssumptions{
		CostOfEquity: s.Get(FieldCostOfEquity),
		CostOfDebt:   s.Get(FieldCostOfDebt),
		EquityWeight: s.Get(FieldEquityWeight),
		DebtWeight:   s.Get(FieldDebtWeight),
		TaxRate:      s.Get(FieldTaxRate),
	}
}

// DCFAssumptions converts the set into DCF engine inputs.
func (s Set) DCFAssumptions() valuation.DCFAssumptions {
	return valuation.DCFAssumptions{
		FreeCashFlow:       s.Get(FieldFreeCashFlow),
		GrowthRate:         s.Get(FieldGrowthRate),
		WACC:               s.Get(FieldWACC),
		TerminalGrowthRate: s.Get(FieldTerminalGrowthRate),
		SharesOutstanding:  s.Get(FieldSharesOutstanding),
	}
}

package ingest

import (
	"equity_valuation/pkg/core/valuation"
)

// DefaultTaxRate applies when the provider supplies no explicit rate.
const DefaultTaxRate = 0.20

// DefaultBeta is market beta, used when the provider reports none.
const DefaultBeta = 1.0

// WACCSeed holds the non-nullable numbers the WACC estimator derives from.
type WACCSeed struct {
	EnterpriseValue    float64 `json:"enterprise_value"`
	StockholdersEquity float64 `json:"stockholders_equity"`
	TotalDebt          float64 `json:"total_debt"`
	InterestExpense    float64 `json:"interest_expense"`
	PretaxIncome       float64 `json:"pretax_income"`
	Beta               float64 `json:"beta"`
	TaxRate            float64 `json:"tax_rate"`
}

// CapitalStructure converts the seed into estimator input.
func (s WACCSeed) CapitalStructure() valuation.CapitalStructure {
	return valuation.CapitalStructure{
		StockholdersEquity: s.StockholdersEquity,
		TotalDebt:          s.TotalDebt,
		InterestExpense:    s.InterestExpense,
		Beta:               s.Beta,
		TaxRate:            s.TaxRate,
	}
}

// Snapshot holds the normalized figures the valuators read directly.
type Snapshot struct {
	Symbol            string   `json:"symbol,omitempty"`
	FreeCashFlow      float64  `json:"free_cash_flow"`
	SharesOutstanding float64  `json:"shares_outstanding"`
	CurrentPrice      float64  `json:"current_price"`
	ForwardDividend   float64  `json:"forward_dividend"`
	ForwardEPS        float64  `json:"forward_eps"`
	ForwardPE         float64  `json:"forward_pe"`
	Missing           []string `json:"missing,omitempty"`
}

// DividendYield is ForwardDividend / CurrentPrice, 0 without a price.
func (s Snapshot) DividendYield() float64 {
	return valuation.DividendYield(s.ForwardDividend, s.CurrentPrice)
}

// Normalized is the output of Normalize.
type Normalized struct {
	Seed     WACCSeed `json:"seed"`
	Snapshot Snapshot `json:"snapshot"`
}

// Normalize fills absent fields with their defaults and records which were
// absent. It never fails.
func Normalize(raw RawFinancials) Normalized {
	return NormalizeWith(raw, DefaultTaxRate)
}

// NormalizeWith is Normalize with a configured fallback tax rate.
func NormalizeWith(raw RawFinancials, defaultTaxRate float64) Normalized {
	var missing []string
	get := func(name string, v *float64, def float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return def
		}
		return *v
	}

	seed := WACCSeed{
		EnterpriseValue:    get("enterprise_value", raw.EnterpriseValue, 0),
		StockholdersEquity: get("stockholders_equity", raw.StockholdersEquity, 0),
		TotalDebt:          get("long_term_debt", raw.LongTermDebt, 0),
		InterestExpense:    get("interest_expense", raw.InterestExpense, 0),
		PretaxIncome:       get("pretax_income", raw.PretaxIncome, 0),
		Beta:               get("beta", raw.Beta, DefaultBeta),
		TaxRate:            defaultTaxRate,
	}
	// an absent tax rate is the common case, not a gap in the record
	if raw.TaxRate != nil {
		seed.TaxRate = *raw.TaxRate
	}

	snap := Snapshot{
		Symbol:            raw.Symbol,
		FreeCashFlow:      get("free_cash_flow", raw.FreeCashFlow, 0),
		SharesOutstanding: get("shares_outstanding", raw.SharesOutstanding, 0),
		CurrentPrice:      get("current_price", raw.CurrentPrice, 0),
		ForwardDividend:   get("dividend", raw.Dividend, 0),
		ForwardEPS:        get("forward_eps", raw.ForwardEPS, 0),
		ForwardPE:         get("forward_pe", raw.ForwardPE, 0),
	}
	snap.Missing = missing

	return Normalized{Seed: seed, Snapshot: snap}
}

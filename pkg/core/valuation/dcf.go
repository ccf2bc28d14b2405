package valuation

import (
	"fmt"

	"equity_valuation/pkg/core/calc"
)

// ProjectionYears is the fixed explicit forecast horizon.
const ProjectionYears = 5

// DCFAssumptions encapsulates all inputs required for a Discounted Cash Flow valuation.
// Rates are decimal fractions (0.05 = 5%).
type DCFAssumptions struct {
	FreeCashFlow       float64 `json:"free_cash_flow"` // may be negative
	GrowthRate         float64 `json:"growth_rate"`
	WACC               float64 `json:"wacc"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
	SharesOutstanding  float64 `json:"shares_outstanding"`
}

// YearlyCashFlow is one projected year of free cash flow.
type YearlyCashFlow struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

// DCFResult holds the valuation outputs
type DCFResult struct {
	PresentValueOfProjectedCashFlows float64          `json:"present_value_of_projected_cash_flows"`
	TerminalValue                    float64          `json:"terminal_value"`
	DiscountedTerminalValue          float64          `json:"discounted_terminal_value"`
	EnterpriseValue                  float64          `json:"enterprise_value"`
	EquityValuePerShare              float64          `json:"equity_value_per_share"`
	YearlyProjectedCashFlows         []YearlyCashFlow `json:"yearly_projected_cash_flows"`
}

// Project performs a five-year DCF with a Gordon Growth terminal value.
//
// Shares outstanding must be positive (ErrInvalidInput) and WACC must exceed the
// terminal growth rate (ErrValuationUndefined). Both are checked before any
// arithmetic, so a failed call never yields Inf or NaN.
func Project(a DCFAssumptions) (DCFResult, error) {
	if err := requireFinite(
		field{"free_cash_flow", a.FreeCashFlow},
		field{"growth_rate", a.GrowthRate},
		field{"wacc", a.WACC},
		field{"terminal_growth_rate", a.TerminalGrowthRate},
		field{"shares_outstanding", a.SharesOutstanding},
	); err != nil {
		return DCFResult{}, err
	}
	if a.SharesOutstanding <= 0 {
		return DCFResult{}, invalidInput("shares_outstanding", a.SharesOutstanding)
	}
	if a.WACC <= -1 {
		return DCFResult{}, fmt.Errorf("%w: discount factor undefined for wacc %g", ErrValuationUndefined, a.WACC)
	}
	if a.WACC <= a.TerminalGrowthRate {
		return DCFResult{}, fmt.Errorf("%w: wacc (%g) must exceed terminal growth rate (%g)",
			ErrValuationUndefined, a.WACC, a.TerminalGrowthRate)
	}

	// 1. Project FCF
	flows := make([]float64, ProjectionYears)
	yearly := make([]YearlyCashFlow, ProjectionYears)
	projected := a.FreeCashFlow
	for year := 1; year <= ProjectionYears; year++ {
		projected = calc.ProjectFromGrowth(projected, a.GrowthRate)
		flows[year-1] = projected
		yearly[year-1] = YearlyCashFlow{Year: year, Amount: projected}
	}

	// 2. Discount the horizon
	npv := calc.PresentValueOfCashFlows(flows, a.WACC)

	// 3. Terminal value on year-5 cash flow
	tv, _ := calc.TerminalValueGordonGrowth(projected*(1+a.TerminalGrowthRate), a.WACC, a.TerminalGrowthRate)
	pvTerminal := calc.PresentValue(tv, a.WACC, ProjectionYears)

	// 4. Aggregation
	ev := npv + pvTerminal

	return DCFResult{
		PresentValueOfProjectedCashFlows: npv,
		TerminalValue:                    tv,
		DiscountedTerminalValue:          pvTerminal,
		EnterpriseValue:                  ev,
		EquityValuePerShare:              ev / a.SharesOutstanding,
		YearlyProjectedCashFlows:         yearly,
	}, nil
}

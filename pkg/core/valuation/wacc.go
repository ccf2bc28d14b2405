package valuation

import (
	"math"

	"equity_valuation/pkg/core/calc"
)

// Fallbacks used when the reported figures cannot support the formula. Each is
// a policy choice, not a numerical accident.
const (
	// DefaultCostOfDebt applies when total debt is zero (no interest/debt ratio exists).
	DefaultCostOfDebt = 0.05
	// DefaultEquityWeight and DefaultDebtWeight apply when equity + debt is zero.
	DefaultEquityWeight = 0.7
	DefaultDebtWeight   = 0.3
)

// MarketAssumptions are the CAPM market constants.
type MarketAssumptions struct {
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	MarketReturn float64 `json:"market_return" yaml:"market_return"`
}

// DefaultMarket is a 4% risk-free rate and a 10% expected market return.
var DefaultMarket = MarketAssumptions{RiskFreeRate: 0.04, MarketReturn: 0.10}

// RiskPremium is MarketReturn - RiskFreeRate.
func (m MarketAssumptions) RiskPremium() float64 {
	return m.MarketReturn - m.RiskFreeRate
}

// CapitalStructure is the normalized input the estimator derives from.
type CapitalStructure struct {
	StockholdersEquity float64 `json:"stockholders_equity"`
	TotalDebt          float64 `json:"total_debt"`
	InterestExpense    float64 `json:"interest_expense"`
	Beta               float64 `json:"beta"`
	TaxRate            float64 `json:"tax_rate"`
}

// WACCAssumptions holds the editable cost-of-capital inputs.
type WACCAssumptions struct {
	CostOfEquity float64 `json:"cost_of_equity"`
	CostOfDebt   float64 `json:"cost_of_debt"` // pre-tax
	EquityWeight float64 `json:"equity_weight"`
	DebtWeight   float64 `json:"debt_weight"`
	TaxRate      float64 `json:"tax_rate"`
}

// WACC computes the weighted average cost of capital from the current inputs.
// It does not require the weights to sum to 1.
func (w WACCAssumptions) WACC() float64 {
	return calc.WACC(w.CostOfDebt, w.TaxRate, w.DebtWeight, w.CostOfEquity, w.EquityWeight)
}

// WeightsBalanced reports whether EquityWeight + DebtWeight == 1.
func (w WACCAssumptions) WeightsBalanced() bool {
	return math.Abs(w.EquityWeight+w.DebtWeight-1) <= 1e-9
}

// CostOfEquity is CAPM: rf + beta * (rm - rf).
func CostOfEquity(beta float64, m MarketAssumptions) float64 {
	return calc.CostOfEquityCAPM(m.RiskFreeRate, beta, m.RiskPremium())
}

// CostOfDebt is interest expense over total debt, or DefaultCostOfDebt when
// there is no debt.
func CostOfDebt(interestExpense, totalDebt float64) float64 {
	if totalDebt <= 0 {
		return DefaultCostOfDebt
	}
	return interestExpense / totalDebt
}

// CapitalWeights splits total capital (equity + debt) into equity and debt
// weights, falling back to 70/30 when total capital is zero.
func CapitalWeights(stockholdersEquity, totalDebt float64) (equityWeight, debtWeight float64) {
	totalCapital := stockholdersEquity + totalDebt
	if totalCapital == 0 {
		return DefaultEquityWeight, DefaultDebtWeight
	}
	return stockholdersEquity / totalCapital, totalDebt / totalCapital
}

// EstimateWACC seeds an editable assumption set from the capital structure.
func EstimateWACC(cs CapitalStructure, m MarketAssumptions) WACCAssumptions {
	we, wd := CapitalWeights(cs.StockholdersEquity, cs.TotalDebt)
	return WACCAssumptions{
		CostOfEquity: CostOfEquity(cs.Beta, m),
		CostOfDebt:   CostOfDebt(cs.InterestExpense, cs.TotalDebt),
		EquityWeight: we,
		DebtWeight:   wd,
		TaxRate:      cs.TaxRate,
	}
}

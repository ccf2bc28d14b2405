// Package calc provides deterministic financial formula primitives.
// This file implements the cost-of-capital and discounting formulas shared by
// the valuation models. Functions here apply no fallback policy; callers do.
package calc

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// =============================================================================
// COST OF CAPITAL
// =============================================================================

// CostOfEquityCAPM calculates required return on equity using CAPM.
//
// FORMULA: r_e = r_f + β × MRP
//
// Where:
//   - r_f = Risk-free rate
//   - β = Equity beta (market sensitivity)
//   - MRP = Market Risk Premium (expected market return - risk-free rate)
func CostOfEquityCAPM(riskFreeRate, beta, marketRiskPremium float64) float64 {
	return riskFreeRate + beta*marketRiskPremium
}

// WACC calculates Weighted Average Cost of Capital.
//
// FORMULA: WACC = r_d × (1 - T) × (D/V) + r_e × (E/V)
func WACC(costOfDebt, taxRate, debtWeight, costOfEquity, equityWeight float64) float64 {
	afterTaxDebtCost := costOfDebt * (1 - taxRate) * debtWeight
	equityCost := costOfEquity * equityWeight
	return afterTaxDebtCost + equityCost
}

// =============================================================================
// DISCOUNTING
// =============================================================================

// TerminalValueGordonGrowth calculates terminal value using the Gordon Growth Model.
//
// FORMULA: TV = CF_{t+1} / (r - g)
//
// ok is false when r <= g; the perpetuity does not converge and the returned
// value is 0.
func TerminalValueGordonGrowth(nextPeriodCF, discountRate, growthRate float64) (tv float64, ok bool) {
	if discountRate <= growthRate {
		return 0, false
	}
	return nextPeriodCF / (discountRate - growthRate), true
}

// PresentValue calculates PV of a single cash flow.
//
// FORMULA: PV = CF / (1 + r)^t
func PresentValue(cashFlow, discountRate float64, periods int) float64 {
	if periods < 0 {
		return 0
	}
	return cashFlow / math.Pow(1+discountRate, float64(periods))
}

// PresentValueOfCashFlows calculates PV of a series of end-of-period cash flows.
//
// FORMULA: PV = Σ [ CF_t / (1 + r)^t ], t = 1..n
func PresentValueOfCashFlows(cashFlows []float64, discountRate float64) float64 {
	discounted := make([]float64, len(cashFlows))
	for t, cf := range cashFlows {
		discounted[t] = PresentValue(cf, discountRate, t+1)
	}
	return floats.Sum(discounted)
}

// ProjectFromGrowth calculates projected amount from prior period growth.
//
// FORMULA: Amount_t = Amount_{t-1} × (1 + Growth_t)
func ProjectFromGrowth(priorAmount, growthRate float64) float64 {
	return priorAmount * (1 + growthRate)
}

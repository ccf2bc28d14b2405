package valuation

// GrowthEstimate is the Gordon-Growth-implied growth rate.
// Applicable is false when the inputs carry no information (P/E or yield <= 0);
// Rate is then 0.
type GrowthEstimate struct {
	Rate       float64 `json:"rate"`
	Applicable bool    `json:"applicable"`
}

// EstimateGrowth backs the growth rate out of the Gordon Growth Model,
// taking the earnings yield 1/PE as the required return:
//
//	g = r - D/P = 1/PE - dividendYield
func EstimateGrowth(dividendYield, peRatio float64) GrowthEstimate {
	if peRatio <= 0 || dividendYield <= 0 {
		return GrowthEstimate{}
	}
	return GrowthEstimate{Rate: 1/peRatio - dividendYield, Applicable: true}
}

// ImpliedGrowthRate is EstimateGrowth without the applicability flag.
func ImpliedGrowthRate(dividendYield, peRatio float64) float64 {
	return EstimateGrowth(dividendYield, peRatio).Rate
}

// DividendYield is dividend / price, 0 when there is no positive price.
func DividendYield(dividend, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return dividend / price
}

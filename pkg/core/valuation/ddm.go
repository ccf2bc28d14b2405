package valuation

import (
	"fmt"
	"math"
)

// DDMInput holds the inputs for a single-stage Dividend Discount Model.
type DDMInput struct {
	ForwardDividend float64 `json:"forward_dividend"`
	CostOfEquity    float64 `json:"cost_of_equity"`
	GrowthRate      float64 `json:"growth_rate"`
	CurrentPrice    float64 `json:"current_price"`
}

// DDMResult holds the intrinsic value and its distance from the market price.
type DDMResult struct {
	IntrinsicValue float64      `json:"intrinsic_value"`
	Applicable     bool         `json:"applicable"` // false when no dividend is paid
	UpsidePercent  float64      `json:"upside_percent"`
	Status         UpsideStatus `json:"status"`
}

// CalculateDDM computes the Gordon Growth intrinsic value
//
//	Value = D × (1 + g) / (ke - g)
//
// A company paying no dividend has no DDM value: the result is 0 with
// Applicable=false and StatusUnknown. Otherwise ke <= g returns
// ErrValuationUndefined.
func CalculateDDM(in DDMInput) (DDMResult, error) {
	if err := requireFinite(
		field{"forward_dividend", in.ForwardDividend},
		field{"cost_of_equity", in.CostOfEquity},
		field{"growth_rate", in.GrowthRate},
		field{"current_price", in.CurrentPrice},
	); err != nil {
		return DDMResult{}, err
	}
	if in.ForwardDividend <= 0 {
		return DDMResult{Status: StatusUnknown}, nil
	}
	if in.CostOfEquity <= in.GrowthRate {
		return DDMResult{}, fmt.Errorf("%w: cost of equity (%g) must exceed growth rate (%g)",
			ErrValuationUndefined, in.CostOfEquity, in.GrowthRate)
	}

	res := DDMResult{
		IntrinsicValue: in.ForwardDividend * (1 + in.GrowthRate) / (in.CostOfEquity - in.GrowthRate),
		Applicable:     true,
	}
	res.UpsidePercent, res.Status = Upside(res.IntrinsicValue, in.CurrentPrice)
	return res, nil
}

// CostOfEquityFromPE estimates the required return as the earnings yield 1/PE,
// rounded to four decimals.
func CostOfEquityFromPE(peRatio float64) (float64, error) {
	if math.IsNaN(peRatio) || peRatio <= 0 {
		return 0, invalidInput("pe_ratio", peRatio)
	}
	return math.Round(1/peRatio*1e4) / 1e4, nil
}

package valuation

// UpsideStatus classifies a fair value against the market price.
type UpsideStatus string

const (
	StatusUnderpriced  UpsideStatus = "Underpriced"
	StatusOverpriced   UpsideStatus = "Overpriced"
	StatusFairlyPriced UpsideStatus = "FairlyPriced"
	StatusUnknown      UpsideStatus = "Unknown" // no market price to compare against
)

// Model names used in the summary table.
const (
	ModelDCF      = "Discounted Cash Flow"
	ModelPE       = "Price / Earnings"
	ModelEVEBITDA = "EV / EBITDA"
	ModelDDM      = "Dividend Discount Model"
)

// Warnings attached to a summary. They do not stop the computation.
const (
	WarnNegativeFCF = "free cash flow is negative; DCF is not meaningful for this company"
	WarnZeroFCF     = "free cash flow is zero; the provider may not report it for this symbol"
	WarnUnbalanced  = "equity and debt weights do not sum to 1"
)

// Upside returns (fair - price) / price in percent and its classification.
// Without a positive price the percentage is 0 and the status Unknown.
func Upside(fairValue, currentPrice float64) (float64, UpsideStatus) {
	if currentPrice <= 0 {
		return 0, StatusUnknown
	}
	pct := (fairValue - currentPrice) / currentPrice * 100
	switch {
	case fairValue > currentPrice:
		return pct, StatusUnderpriced
	case fairValue < currentPrice:
		return pct, StatusOverpriced
	}
	return pct, StatusFairlyPriced
}

// MasterValuationInput aggregates all inputs needed for the full suite of models.
// EVEBITDA and DDM are optional.
type MasterValuationInput struct {
	DCF          DCFAssumptions   `json:"dcf"`
	WACC         *WACCAssumptions `json:"wacc,omitempty"`
	EPS          float64          `json:"eps"`
	PEMultiple   float64          `json:"pe_multiple"`
	EVEBITDA     *EVEBITDAInput   `json:"ev_ebitda,omitempty"`
	DDM          *DDMInput        `json:"ddm,omitempty"`
	CurrentPrice float64          `json:"current_price"`
}

// ValuationLineItem represents one row in the summary table
type ValuationLineItem struct {
	ModelName     string       `json:"model_name"`
	SharePrice    float64      `json:"share_price"`
	UpsidePercent float64      `json:"upside_percent"`
	Status        UpsideStatus `json:"status"`
	Error         string       `json:"error,omitempty"`
	ErrorKind     string       `json:"error_kind,omitempty"`
}

// Summary is the combined output of RunAllValuations.
type Summary struct {
	Lines    []ValuationLineItem `json:"lines"`
	DCF      *DCFResult          `json:"dcf,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// RunAllValuations performs DCF, P/E and, when supplied, EV/EBITDA and DDM.
// A model whose precondition fails gets an error line; the others still run.
func RunAllValuations(input MasterValuationInput) Summary {
	var s Summary

	switch {
	case input.DCF.FreeCashFlow < 0:
		s.Warnings = append(s.Warnings, WarnNegativeFCF)
	case input.DCF.FreeCashFlow == 0:
		s.Warnings = append(s.Warnings, WarnZeroFCF)
	}
	if input.WACC != nil && !input.WACC.WeightsBalanced() {
		s.Warnings = append(s.Warnings, WarnUnbalanced)
	}

	// 1. DCF
	if dcf, err := Project(input.DCF); err != nil {
		s.Lines = append(s.Lines, errorLine(ModelDCF, err))
	} else {
		s.DCF = &dcf
		s.Lines = append(s.Lines, priceLine(ModelDCF, dcf.EquityValuePerShare, input.CurrentPrice))
	}

	// 2. P/E
	s.Lines = append(s.Lines, priceLine(ModelPE, PEValuation(input.EPS, input.PEMultiple), input.CurrentPrice))

	// 3. EV/EBITDA
	if input.EVEBITDA != nil {
		if res, err := EVEBITDA(*input.EVEBITDA); err != nil {
			s.Lines = append(s.Lines, errorLine(ModelEVEBITDA, err))
		} else {
			s.Lines = append(s.Lines, priceLine(ModelEVEBITDA, res.PerShare, input.CurrentPrice))
		}
	}

	// 4. DDM
	if input.DDM != nil {
		ddm := *input.DDM
		if ddm.CurrentPrice == 0 {
			ddm.CurrentPrice = input.CurrentPrice
		}
		if res, err := CalculateDDM(ddm); err != nil {
			s.Lines = append(s.Lines, errorLine(ModelDDM, err))
		} else {
			s.Lines = append(s.Lines, ValuationLineItem{
				ModelName:     ModelDDM,
				SharePrice:    res.IntrinsicValue,
				UpsidePercent: res.UpsidePercent,
				Status:        res.Status,
			})
		}
	}

	return s
}

func priceLine(model string, price, currentPrice float64) ValuationLineItem {
	pct, status := Upside(price, currentPrice)
	return ValuationLineItem{ModelName: model, SharePrice: price, UpsidePercent: pct, Status: status}
}

func errorLine(model string, err error) ValuationLineItem {
	return ValuationLineItem{
		ModelName: model,
		Status:    StatusUnknown,
		Error:     err.Error(),
		ErrorKind: KindOf(err),
	}
}

package valuation

// PEValuation prices a share as EPS times a P/E multiple. Either operand may be
// any real; a non-positive result is returned unchanged.
func PEValuation(eps, peMultiple float64) float64 {
	return eps * peMultiple
}

// EVEBITDAInput holds the inputs for an EV/EBITDA multiple valuation.
type EVEBITDAInput struct {
	EBITDA   float64 `json:"ebitda"`
	Multiple float64 `json:"multiple"`
	Debt     float64 `json:"debt"`
	Cash     float64 `json:"cash"`
	Shares   float64 `json:"shares"`
}

// EVEBITDAResult holds the implied values.
type EVEBITDAResult struct {
	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	PerShare        float64 `json:"per_share"`
}

// EVEBITDA values equity from an EBITDA multiple:
// EV = EBITDA × multiple, Equity = EV - debt + cash, per share = Equity / shares.
func EVEBITDA(in EVEBITDAInput) (EVEBITDAResult, error) {
	if err := requireFinite(
		field{"ebitda", in.EBITDA},
		field{"multiple", in.Multiple},
		field{"debt", in.Debt},
		field{"cash", in.Cash},
		field{"shares", in.Shares},
	); err != nil {
		return EVEBITDAResult{}, err
	}
	if in.Shares <= 0 {
		return EVEBITDAResult{}, invalidInput("shares", in.Shares)
	}

	ev := in.EBITDA * in.Multiple
	equity := ev - in.Debt + in.Cash
	return EVEBITDAResult{
		EnterpriseValue: ev,
		EquityValue:     equity,
		PerShare:        equity / in.Shares,
	}, nil
}

// Package ingest turns provider records into the engine's typed inputs.
// Absent fields are normal and never an error here; only an unreadable payload is.
package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawFinancials holds provider-reported fields. A nil pointer means the
// provider did not report the field.
type RawFinancials struct {
	Symbol             string   `json:"symbol,omitempty"`
	EnterpriseValue    *float64 `json:"enterprise_value,omitempty"`
	StockholdersEquity *float64 `json:"stockholders_equity,omitempty"`
	LongTermDebt       *float64 `json:"long_term_debt,omitempty"`
	InterestExpense    *float64 `json:"interest_expense,omitempty"`
	PretaxIncome       *float64 `json:"pretax_income,omitempty"`
	Beta               *float64 `json:"beta,omitempty"`
	Dividend           *float64 `json:"dividend,omitempty"`
	ForwardEPS         *float64 `json:"forward_eps,omitempty"`
	ForwardPE          *float64 `json:"forward_pe,omitempty"`
	FreeCashFlow       *float64 `json:"free_cash_flow,omitempty"`
	SharesOutstanding  *float64 `json:"shares_outstanding,omitempty"`
	CurrentPrice       *float64 `json:"current_price,omitempty"`
	TaxRate            *float64 `json:"tax_rate,omitempty"` // explicit rate; default applies when nil
}

// Float returns a pointer to v, for building RawFinancials literals.
func Float(v float64) *float64 { return &v }

// Number decodes the numeric shapes providers emit: bare numbers, numeric
// strings, {"raw": n, "fmt": "..."} objects, and null. Anything unreadable
// decodes as absent rather than failing the whole record.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var wrapped struct {
			Raw *Number `json:"raw"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Raw == nil {
			return nil
		}
		*n = *wrapped.Raw
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = finite(v)
		}
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err == nil {
			*n = finite(v)
		}
	}
	return nil
}

// finite drops NaN and Inf ("NaN", "Infinity" strings parse to them).
func finite(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Ptr returns the value as a pointer, nil when absent.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// first returns the first present value.
func first(candidates ...Number) *float64 {
	for _, c := range candidates {
		if c.Valid {
			return c.Ptr()
		}
	}
	return nil
}

package ingest

import (
	"encoding/json"
	"errors"
	"testing"

	"equity_valuation/pkg/core/valuation"
)

const samplePayload = `{
  "quoteSummary": {
    "price": {"symbol": "ACME", "regularMarketPrice": {"raw": 101.5, "fmt": "101.50"}},
    "summaryDetail": {"forwardPE": {"raw": 18.2, "fmt": "18.20"}, "dividendRate": {"raw": 2.4, "fmt": "2.40"}},
    "defaultKeyStatistics": {
      "enterpriseValue": {"raw": 5200000000, "fmt": "5.2B"},
      "beta": 1.15,
      "forwardEps": "5.60",
      "sharesOutstanding": {"raw": 40000000, "fmt": "40M"}
    },
    "financialData": {"freeCashflow": {"raw": 310000000, "fmt": "310M"}, "currentPrice": {"raw": 100.0, "fmt": "100.00"}}
  },
  "fundamentals": [
    {"date": "2024-12-31", "stockholdersEquity": 2100000000, "longTermDebt": 900000000, "interestExpense": 45000000, "pretaxIncome": 380000000},
    {"date": "2023-12-31", "stockholdersEquity": 1, "longTermDebt": 1}
  ],
  "error": null
}`

func TestDecodePayload_FieldMapping(t *testing.T) {
	raw, err := DecodePayload([]byte(samplePayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"enterprise value", raw.EnterpriseValue, 5.2e9},
		{"beta", raw.Beta, 1.15},
		{"forward eps", raw.ForwardEPS, 5.6},
		{"forward pe", raw.ForwardPE, 18.2},
		{"dividend", raw.Dividend, 2.4},
		{"shares", raw.SharesOutstanding, 4e7},
		{"fcf", raw.FreeCashFlow, 3.1e8},
		{"price", raw.CurrentPrice, 100},
		{"equity", raw.StockholdersEquity, 2.1e9},
		{"debt", raw.LongTermDebt, 9e8},
		{"interest", raw.InterestExpense, 4.5e7},
		{"pretax", raw.PretaxIncome, 3.8e8},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s: expected %g, got nil", c.name, c.want)
			continue
		}
		if *c.got != c.want {
			t.Errorf("%s: expected %g, got %g", c.name, c.want, *c.got)
		}
	}
	if raw.Symbol != "ACME" {
		t.Errorf("Expected symbol ACME, got %q", raw.Symbol)
	}
	if raw.TaxRate != nil {
		t.Errorf("Expected no explicit tax rate, got %g", *raw.TaxRate)
	}
}

func TestDecodePayload_Fallbacks(t *testing.T) {
	body := `{"quoteSummary": {
		"price": {"regularMarketPrice": 55},
		"summaryDetail": {},
		"defaultKeyStatistics": {"forwardPE": 12, "lastDividendValue": {"raw": 0.5}}
	}}`
	raw, err := DecodePayload([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.CurrentPrice == nil || *raw.CurrentPrice != 55 {
		t.Errorf("Expected price from regularMarketPrice, got %v", raw.CurrentPrice)
	}
	if raw.ForwardPE == nil || *raw.ForwardPE != 12 {
		t.Errorf("Expected forward PE from key statistics, got %v", raw.ForwardPE)
	}
	if raw.Dividend == nil || *raw.Dividend != 0.5 {
		t.Errorf("Expected dividend from lastDividendValue, got %v", raw.Dividend)
	}
	if raw.StockholdersEquity != nil || raw.FreeCashFlow != nil {
		t.Error("Expected absent fields to stay nil")
	}
}

func TestDecodePayload_RepairsTrailingCommas(t *testing.T) {
	body := `{"quoteSummary": {"financialData": {"freeCashflow": {"raw": 1000, "fmt": "1k"},},},}`
	raw, err := DecodePayload([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.FreeCashFlow == nil || *raw.FreeCashFlow != 1000 {
		t.Errorf("Expected repaired fcf 1000, got %v", raw.FreeCashFlow)
	}
}

func TestDecodePayload_DataUnavailable(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"whitespace":     "  \n ",
		"provider error": `{"error": "Not Found: no such symbol", "quoteSummary": null}`,
		"no summary":     `{"fundamentals": []}`,
	}
	for name, body := range cases {
		_, err := DecodePayload([]byte(body))
		if !errors.Is(err, valuation.ErrDataUnavailable) {
			t.Errorf("%s: expected ErrDataUnavailable, got %v", name, err)
		}
	}
}

func TestNumber_Shapes(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		want  float64
	}{
		{`12.5`, true, 12.5},
		{`{"raw": 3, "fmt": "3.00"}`, true, 3},
		{`"1,250.75"`, true, 1250.75},
		{`null`, false, 0},
		{`{}`, false, 0},
		{`{"raw": null}`, false, 0},
		{`"N/A"`, false, 0},
		{`"NaN"`, false, 0},
		{`"Infinity"`, false, 0},
		{`"-Inf"`, false, 0},
		{`{"raw": "NaN"}`, false, 0},
		{`true`, false, 0},
	}
	for _, c := range cases {
		var n Number
		if err := json.Unmarshal([]byte(c.in), &n); err != nil {
			t.Errorf("%s: unexpected error %v", c.in, err)
			continue
		}
		if n.Valid != c.valid || n.Value != c.want {
			t.Errorf("%s: expected (%g, %v), got (%g, %v)", c.in, c.want, c.valid, n.Value, n.Valid)
		}
	}
}

func TestDecodePayload_NonFiniteIsMissing(t *testing.T) {
	raw, err := DecodePayload([]byte(`{"quoteSummary": {"defaultKeyStatistics": {"beta": "NaN", "sharesOutstanding": "Infinity"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Beta != nil || raw.SharesOutstanding != nil {
		t.Fatalf("expected non-finite fields to be absent, got beta=%v shares=%v", raw.Beta, raw.SharesOutstanding)
	}

	n := Normalize(raw)
	if n.Seed.Beta != DefaultBeta {
		t.Errorf("expected default beta %g, got %g", DefaultBeta, n.Seed.Beta)
	}
	found := false
	for _, name := range n.Snapshot.Missing {
		if name == "beta" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected beta in missing list, got %v", n.Snapshot.Missing)
	}
}

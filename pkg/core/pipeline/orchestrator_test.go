package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"equity_valuation/pkg/core/assumption"
	"equity_valuation/pkg/core/ingest"
	"equity_valuation/pkg/core/valuation"
)

// --- Mocks ---

type MockSource struct {
	FetchFunc func(ctx context.Context, symbol string) ([]byte, error)
}

func (m *MockSource) FetchPayload(ctx context.Context, symbol string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol)
	}
	return []byte(testPayload), nil
}

const testPayload = `{
  "quoteSummary": {
    "price": {"symbol": "TEST", "regularMarketPrice": 200},
    "summaryDetail": {"forwardPE": 20, "dividendRate": 4},
    "defaultKeyStatistics": {"beta": 1.0, "forwardEps": 10, "sharesOutstanding": 100},
    "financialData": {"freeCashflow": 1000, "currentPrice": 200}
  },
  "fundamentals": [{"stockholdersEquity": 700, "longTermDebt": 300, "interestExpense": 15}]
}`

func lineFor(r *Report, model string) *valuation.ValuationLineItem {
	for i := range r.Summary.Lines {
		if r.Summary.Lines[i].ModelName == model {
			return &r.Summary.Lines[i]
		}
	}
	return nil
}

// --- Test ---

func TestOrchestrator_RunForSymbol(t *testing.T) {
	ebitda := 250.0

	type testCase struct {
		name          string
		req           Request
		setupMocks    func(*MockSource)
		expectedLines int
		expectedError error
	}

	tests := []testCase{
		{
			name:          "Success - Happy Path",
			expectedLines: 3,
		},
		{
			name:          "Success - With EBITDA",
			req:           Request{EBITDA: &ebitda, EBITDAMultiple: 10, Cash: 50},
			expectedLines: 4,
		},
		{
			name: "Edge Case - Source Error",
			setupMocks: func(s *MockSource) {
				s.FetchFunc = func(ctx context.Context, symbol string) ([]byte, error) {
					return nil, fmt.Errorf("%w: upstream timeout", valuation.ErrDataUnavailable)
				}
			},
			expectedError: valuation.ErrDataUnavailable,
		},
		{
			name: "Edge Case - Empty Payload",
			setupMocks: func(s *MockSource) {
				s.FetchFunc = func(ctx context.Context, symbol string) ([]byte, error) {
					return nil, nil
				}
			},
			expectedError: valuation.ErrDataUnavailable,
		},
		{
			name:          "Edge Case - Unknown Edit",
			req:           Request{Edits: assumption.Edits{"revenue_growth": 0.2}},
			expectedError: valuation.ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &MockSource{}
			if tc.setupMocks != nil {
				tc.setupMocks(src)
			}
			o := NewOrchestrator(nil, src)

			report, err := o.RunForSymbol(context.Background(), "TEST", tc.req)
			if tc.expectedError != nil {
				if !errors.Is(err, tc.expectedError) {
					t.Fatalf("expected %v, got %v", tc.expectedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(report.Summary.Lines) != tc.expectedLines {
				t.Errorf("expected %d lines, got %d", tc.expectedLines, len(report.Summary.Lines))
			}
			if report.Symbol != "TEST" {
				t.Errorf("expected symbol TEST, got %q", report.Symbol)
			}
		})
	}
}

func TestOrchestrator_Valuations(t *testing.T) {
	o := NewOrchestrator(nil, &MockSource{})
	report, err := o.RunForSymbol(context.Background(), "TEST", Request{
		Edits: assumption.Edits{assumption.FieldWACC: 0.09},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dcf := lineFor(report, valuation.ModelDCF)
	if dcf == nil || math.Abs(dcf.SharePrice-231.08020111804464) > 1e-9 {
		t.Errorf("Expected DCF 231.08020111804464, got %+v", dcf)
	}
	if pe := lineFor(report, valuation.ModelPE); pe == nil || pe.Status != valuation.StatusFairlyPriced {
		t.Errorf("Expected P/E at 200 to be fairly priced, got %+v", pe)
	}
	// ke = 1/20, g = 0.05 - 4/200 = 0.03, value = 4*1.03/0.02 = 206
	ddm := lineFor(report, valuation.ModelDDM)
	if ddm == nil || math.Abs(ddm.SharePrice-206) > 1e-6 {
		t.Errorf("Expected DDM 206, got %+v", ddm)
	}
	if !report.Growth.Applicable || math.Abs(report.Growth.Rate-0.03) > 1e-12 {
		t.Errorf("Expected applicable growth 0.03, got %+v", report.Growth)
	}
	if math.Abs(report.EstimatedWACC.WACC()-0.082) > 1e-12 {
		t.Errorf("Expected estimated WACC 0.082, got %f", report.EstimatedWACC.WACC())
	}
}

func TestOrchestrator_DDMTinyDividendYield(t *testing.T) {
	// yield 2.5e-5: ke - g must stay exactly the yield, not ke rounded to 4 places
	raw := ingest.RawFinancials{
		Symbol:            "TINY",
		FreeCashFlow:      ingest.Float(1000),
		SharesOutstanding: ingest.Float(100),
		CurrentPrice:      ingest.Float(200),
		Dividend:          ingest.Float(0.005),
		ForwardPE:         ingest.Float(30),
		ForwardEPS:        ingest.Float(6.67),
	}
	report, err := NewOrchestrator(nil, nil).RunRaw(context.Background(), raw, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ddm := lineFor(report, valuation.ModelDDM)
	if ddm == nil {
		t.Fatal("expected a DDM line")
	}
	if ddm.Error != "" {
		t.Fatalf("expected a DDM value, got error %q (%s)", ddm.Error, ddm.ErrorKind)
	}
	want := 200 * (1 + report.Growth.Rate)
	if math.Abs(ddm.SharePrice-want) > 1e-6*want {
		t.Errorf("Expected DDM %f, got %f", want, ddm.SharePrice)
	}
}

func TestOrchestrator_ManualWACCSurvivesRefresh(t *testing.T) {
	o := NewOrchestrator(nil, &MockSource{})
	ctx := context.Background()

	first, err := o.RunForSymbol(ctx, "TEST", Request{
		Edits:     assumption.Edits{assumption.FieldCostOfEquity: 0.12},
		ApplyWACC: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	applied := first.Assumptions.Get(assumption.FieldWACC)

	// a later auto-derivation with the previous set keeps the applied value
	second, err := o.RunForSymbol(ctx, "TEST", Request{Assumptions: first.Assumptions})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := second.Assumptions.Get(assumption.FieldWACC); got != applied {
		t.Errorf("Expected applied wacc %f to survive, got %f", applied, got)
	}
	if second.Assumptions.SourceOf(assumption.FieldFreeCashFlow) != assumption.SourceSystem {
		t.Error("Expected derived fields to stay SYSTEM")
	}
}

func TestOrchestrator_NoSource(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	if _, err := o.RunForSymbol(context.Background(), "TEST", Request{}); !errors.Is(err, valuation.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable, got %v", err)
	}
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := NewOrchestrator(nil, nil)
	if _, err := o.Run(ctx, Request{Payload: []byte(testPayload)}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "TEST.json"), []byte(testPayload), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	src := FileSource{Dir: dir}

	data, err := src.FetchPayload(context.Background(), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != testPayload {
		t.Error("payload mismatch")
	}

	if _, err := src.FetchPayload(context.Background(), "MISSING"); !errors.Is(err, valuation.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable, got %v", err)
	}
}

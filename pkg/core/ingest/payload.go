package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"equity_valuation/pkg/core/utils"
	"equity_valuation/pkg/core/valuation"
)

// Payload is the provider's stock-data record.
type Payload struct {
	QuoteSummary *QuoteSummary        `json:"quoteSummary"`
	Fundamentals []FundamentalsPeriod `json:"fundamentals"`
	TaxRate      Number               `json:"taxRate"`
	Error        json.RawMessage      `json:"error"`
}

// QuoteSummary groups the quote modules the engine reads.
type QuoteSummary struct {
	Price                *PriceModule          `json:"price"`
	SummaryDetail        *SummaryDetail        `json:"summaryDetail"`
	DefaultKeyStatistics *DefaultKeyStatistics `json:"defaultKeyStatistics"`
	FinancialData        *FinancialData        `json:"financialData"`
}

type PriceModule struct {
	Symbol             string `json:"symbol"`
	RegularMarketPrice Number `json:"regularMarketPrice"`
}

type SummaryDetail struct {
	ForwardPE                  Number `json:"forwardPE"`
	DividendRate               Number `json:"dividendRate"`
	TrailingAnnualDividendRate Number `json:"trailingAnnualDividendRate"`
}

type DefaultKeyStatistics struct {
	EnterpriseValue   Number `json:"enterpriseValue"`
	Beta              Number `json:"beta"`
	ForwardEPS        Number `json:"forwardEps"`
	ForwardPE         Number `json:"forwardPE"`
	SharesOutstanding Number `json:"sharesOutstanding"`
	LastDividendValue Number `json:"lastDividendValue"`
}

type FinancialData struct {
	FreeCashflow Number `json:"freeCashflow"`
	CurrentPrice Number `json:"currentPrice"`
}

// FundamentalsPeriod is one reporting period of the fundamentals time series,
// most recent first.
type FundamentalsPeriod struct {
	Date               string `json:"date"`
	StockholdersEquity Number `json:"stockholdersEquity"`
	LongTermDebt       Number `json:"longTermDebt"`
	InterestExpense    Number `json:"interestExpense"`
	PretaxIncome       Number `json:"pretaxIncome"`
}

// DecodePayload parses a provider record into RawFinancials. Malformed but
// repairable JSON is accepted. An empty or unreadable body, a provider error,
// or a record without a quote summary is ErrDataUnavailable.
func DecodePayload(body []byte) (RawFinancials, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return RawFinancials{}, fmt.Errorf("%w: empty payload", valuation.ErrDataUnavailable)
	}

	var p Payload
	if _, err := utils.SmartParse(string(body), &p); err != nil {
		return RawFinancials{}, fmt.Errorf("%w: %v", valuation.ErrDataUnavailable, err)
	}
	if msg := providerError(p.Error); msg != "" {
		return RawFinancials{}, fmt.Errorf("%w: provider error: %s", valuation.ErrDataUnavailable, msg)
	}
	if p.QuoteSummary == nil {
		return RawFinancials{}, fmt.Errorf("%w: payload has no quoteSummary", valuation.ErrDataUnavailable)
	}

	return p.Raw(), nil
}

// Raw maps the payload's modules onto RawFinancials.
func (p Payload) Raw() RawFinancials {
	qs := QuoteSummary{}
	if p.QuoteSummary != nil {
		qs = *p.QuoteSummary
	}
	price := PriceModule{}
	if qs.Price != nil {
		price = *qs.Price
	}
	detail := SummaryDetail{}
	if qs.SummaryDetail != nil {
		detail = *qs.SummaryDetail
	}
	stats := DefaultKeyStatistics{}
	if qs.DefaultKeyStatistics != nil {
		stats = *qs.DefaultKeyStatistics
	}
	fin := FinancialData{}
	if qs.FinancialData != nil {
		fin = *qs.FinancialData
	}
	latest := FundamentalsPeriod{}
	if len(p.Fundamentals) > 0 {
		latest = p.Fundamentals[0]
	}

	return RawFinancials{
		Symbol:             price.Symbol,
		EnterpriseValue:    stats.EnterpriseValue.Ptr(),
		StockholdersEquity: latest.StockholdersEquity.Ptr(),
		LongTermDebt:       latest.LongTermDebt.Ptr(),
		InterestExpense:    latest.InterestExpense.Ptr(),
		PretaxIncome:       latest.PretaxIncome.Ptr(),
		Beta:               stats.Beta.Ptr(),
		Dividend:           first(detail.DividendRate, stats.LastDividendValue, detail.TrailingAnnualDividendRate),
		ForwardEPS:         stats.ForwardEPS.Ptr(),
		ForwardPE:          first(detail.ForwardPE, stats.ForwardPE),
		FreeCashFlow:       fin.FreeCashflow.Ptr(),
		SharesOutstanding:  stats.SharesOutstanding.Ptr(),
		CurrentPrice:       first(fin.CurrentPrice, price.RegularMarketPrice),
		TaxRate:            p.TaxRate.Ptr(),
	}
}

// providerError extracts a message from the record's error field, which
// providers send as a string, an object, or null.
func providerError(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

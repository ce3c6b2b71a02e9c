// Package eodhd quotes securities and currency pairs from the EOD Historical Data API.
//
// Mnemonics are EODHD tickers "SYMBOL.EXCHANGE", like "MCD.US" or "SAN.PA".
package eodhd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/date"
	"github.com/shopspring/decimal"
)

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "EODHD_API_KEY"

// DemoKey is EODHD's public key, restricted to a few tickers like MCD.US.
const DemoKey = "demo"

const defaultBaseURL = "https://eodhd.com/api"

// lookback is the number of days queried to find the latest close, enough for long week-ends.
const lookback = 10

// Source is the EODHD market data source.
type Source struct {
	APIKey  string
	Client  *http.Client     // nil is http.DefaultClient
	BaseURL string           // empty is https://eodhd.com/api
	Now     func() date.Date // nil is date.Today
}

// Pair returns the EODHD forex ticker of one unit of from in to.
func Pair(from, to string) string { return from + to + ".FOREX" }

func (s *Source) base() string {
	if s.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimSuffix(s.BaseURL, "/")
}

func (s *Source) today() date.Date {
	if s.Now == nil {
		return date.Today()
	}
	return s.Now()
}

// Quote returns the latest daily close of c.Mnemonic.
func (s *Source) Quote(ctx context.Context, c pricedb.Commodity, _ string) (pricedb.Quote, error) {
	ticker := c.Mnemonic
	day, close, err := s.fetchLastClose(ctx, ticker)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("eodhd %s: %w", ticker, err)
	}
	return pricedb.Quote{
		Symbol:   ticker,
		Price:    close,
		Currency: s.currency(ctx, ticker),
		Date:     day,
	}, nil
}

// fetchLastClose returns the most recent daily close of an EODHD ticker.
func (s *Source) fetchLastClose(ctx context.Context, ticker string) (day date.Date, close decimal.Decimal, err error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-01-01&to=2024-01-10
	// [
	//	{
	//		"date": "2024-01-05",
	//		"open": 295.6,
	//		"high": 297.09,
	//		"low": 293.33,
	//		"close": 294.61,
	//		"adjusted_close": 289.44,
	//		"volume": 2553411
	//	},
	to := s.today()
	from := to.AddDays(-lookback)
	addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s&to=%s", s.base(), url.PathEscape(ticker), url.QueryEscape(s.APIKey), from, to)
	type Info struct {
		Date  date.Date       `json:"date"`
		Close decimal.Decimal `json:"close"`
	}

	// that's the payload
	content := make([]Info, 0)
	if err := pricedb.GetJSON(ctx, s.Client, addr, nil, &content); err != nil {
		return day, close, err
	}
	if len(content) == 0 {
		return day, close, fmt.Errorf("%w: no close price between %s and %s", pricedb.ErrNoData, from, to)
	}

	// The API returns chronological rows, but do not trust it.
	last := content[0]
	for _, info := range content[1:] {
		if info.Date.After(last.Date) {
			last = info
		}
	}
	return last.Date, last.Close, nil
}

// currency returns the trading currency of ticker, or UnknownCurrency.
func (s *Source) currency(ctx context.Context, ticker string) string {
	code, exchange, ok := strings.Cut(ticker, ".")
	if !ok {
		return pricedb.UnknownCurrency
	}
	if exchange == "FOREX" && len(code) == 6 {
		return code[3:]
	}
	results, err := s.Search(ctx, code)
	if err != nil {
		log.Printf("warning cannot read the currency of %s: %v", ticker, err)
		return pricedb.UnknownCurrency
	}
	for _, r := range results {
		if r.Code == code && r.Exchange == exchange && r.Currency != "" {
			return r.Currency
		}
	}
	return pricedb.UnknownCurrency
}

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string          `json:"Code"`
	Exchange          string          `json:"Exchange"`
	Name              string          `json:"Name"`
	Type              string          `json:"Type"`
	Country           string          `json:"Country"`
	Currency          string          `json:"Currency"`
	ISIN              string          `json:"ISIN"`
	PreviousClose     decimal.Decimal `json:"previousClose"`
	PreviousCloseDate date.Date       `json:"previousCloseDate"`
}

// Ticker returns the EODHD ticker of the result, usable as a mnemonic.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Search searches for securities by name, ticker or ISIN.
func (s *Source) Search(ctx context.Context, term string) ([]SearchResult, error) {
	// https://eodhd.com/api/search/US67066G1040?api_token=demo&fmt=json
	// [
	//   {
	//     "Code": "NVDA",
	//     "Exchange": "US",
	//     "Name": "NVIDIA Corporation",
	//     "Type": "Common Stock",
	//     "Country": "USA",
	//     "Currency": "USD",
	//     "ISIN": "US67066G1040",
	//     "previousClose": 131.14,
	//     "previousCloseDate": "2025-02-12"
	//   },
	addr := fmt.Sprintf("%s/search/%s?fmt=json&api_token=%s", s.base(), url.PathEscape(term), url.QueryEscape(s.APIKey))
	var results []SearchResult
	if err := pricedb.GetJSON(ctx, s.Client, addr, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

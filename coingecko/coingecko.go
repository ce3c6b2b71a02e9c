// Package coingecko quotes crypto currencies from the CoinGecko API.
//
// Mnemonics are CoinGecko coin ids, like "bitcoin" or "ethereum".
package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/date"
	"github.com/shopspring/decimal"
)

// APIKeyEnv is the environment variable holding the demo API key.
const APIKeyEnv = "COINGECKO_API_KEY"

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Source is the CoinGecko crypto source.
type Source struct {
	APIKey  string
	Client  *http.Client // nil is http.DefaultClient
	BaseURL string       // empty is https://api.coingecko.com/api/v3
	// Reference quotes USD in the requested currency when CoinGecko does not list it.
	Reference pricedb.QuoteSource
	Now       func() date.Date // nil is date.Today
}

// Quote returns the current price of the coin c.Mnemonic in currency.
func (s *Source) Quote(ctx context.Context, c pricedb.Commodity, currency string) (pricedb.Quote, error) {
	id := strings.ToLower(c.Mnemonic)
	today := date.Today
	if s.Now != nil {
		today = s.Now
	}

	jobj, err := s.coin(ctx, id)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("coingecko %s: %w", id, err)
	}
	q := pricedb.Quote{Symbol: id, Currency: currency, Date: today()}

	price, ok, err := currentPrice(jobj, currency)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("coingecko %s: %w", id, err)
	}
	if ok {
		q.Price = price
		return q, nil
	}

	// CoinGecko lists a few dozen currencies, the others go through USD.
	usd, ok, err := currentPrice(jobj, "USD")
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("coingecko %s: %w", id, err)
	}
	if !ok || s.Reference == nil {
		return pricedb.Quote{}, fmt.Errorf("coingecko %s: %w: no price in %s", id, pricedb.ErrNoData, currency)
	}
	rate, err := s.Reference.Quote(ctx, pricedb.Commodity{Namespace: pricedb.NamespaceCurrency, Mnemonic: "USD", Fraction: 100}, currency)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("coingecko %s: cannot convert USD to %s: %w", id, currency, err)
	}
	q.Price = usd.Mul(rate.Price)
	return q, nil
}

// coin returns the decoded coin document, numbers are kept as json.Number.
func (s *Source) coin(ctx context.Context, id string) (any, error) {
	// https://api.coingecko.com/api/v3/coins/bitcoin
	// {
	//   "id": "bitcoin",
	//   "symbol": "btc",
	//   "market_data": {
	//     "current_price": {
	//       "eur": 40123.5,
	//       "usd": 43876.1,
	// ...
	base := defaultBaseURL
	if s.BaseURL != "" {
		base = strings.TrimSuffix(s.BaseURL, "/")
	}
	addr := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false", base, url.PathEscape(id))
	header := make(http.Header)
	if s.APIKey != "" {
		header.Set("x-cg-demo-api-key", s.APIKey)
	}
	body, err := pricedb.Get(ctx, s.Client, addr, header)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %w", pricedb.ErrQuoteUnavailable, err)
	}
	return jobj, nil
}

// currentPrice reads the coin's price in currency, ok is false when it is not listed.
func currentPrice(jobj any, currency string) (price decimal.Decimal, ok bool, err error) {
	path := "$.market_data.current_price." + strings.ToLower(currency)
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		// jsonpath reports unknown keys as errors.
		return price, false, nil
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case json.Number:
		price, err = decimal.NewFromString(v.String())
	case float64:
		price = decimal.NewFromFloat(v)
	case nil:
		return price, false, nil
	default:
		err = fmt.Errorf("not a number %v", jval)
	}
	if err != nil {
		return price, false, fmt.Errorf("%w: parsing %q: %w", pricedb.ErrQuoteUnavailable, path, err)
	}
	return price, true, nil
}

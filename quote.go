package pricedb

import (
	"context"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/etnz/pricedb/date"
	"github.com/shopspring/decimal"
)

// Quote is a price received from a quote source. It lives for one commodity's processing.
type Quote struct {
	Symbol   string          // What was asked to the source.
	Price    decimal.Decimal // One unit of the commodity, in Currency.
	Currency string          // UnknownCurrency when the source does not tell.
	Date     date.Date
}

// QuoteSource fetches the latest price of a commodity.
//
// currency is the book's base currency, sources that can quote in any
// currency use it, the others ignore it and tell their own currency.
// Failures wrap ErrQuoteUnavailable or ErrNoData.
type QuoteSource interface {
	Quote(ctx context.Context, c Commodity, currency string) (Quote, error)
}

// QuoteSourceFunc adapts a function to a QuoteSource.
type QuoteSourceFunc func(ctx context.Context, c Commodity, currency string) (Quote, error)

func (f QuoteSourceFunc) Quote(ctx context.Context, c Commodity, currency string) (Quote, error) {
	return f(ctx, c, currency)
}

// Currencies quotes currencies against the base currency through a market source.
type Currencies struct {
	Market QuoteSource
	// Pair returns the market symbol of one unit of from expressed in to, like "USDEUR=X".
	Pair func(from, to string) string
	// Now returns today, defaults to date.Today.
	Now func() date.Date
}

// Quote returns the price of one unit of c in currency.
func (s Currencies) Quote(ctx context.Context, c Commodity, currency string) (Quote, error) {
	if money.GetCurrency(c.Mnemonic) == nil {
		return Quote{}, fmt.Errorf("%w: %q is not an ISO currency", ErrNoData, c.Mnemonic)
	}
	if c.Mnemonic == currency {
		now := date.Today
		if s.Now != nil {
			now = s.Now
		}
		return Quote{Symbol: c.Mnemonic, Price: decimal.NewFromInt(1), Currency: currency, Date: now()}, nil
	}

	pair := s.Pair(c.Mnemonic, currency)
	q, err := s.Market.Quote(ctx, Commodity{
		Namespace: c.Namespace,
		Mnemonic:  pair,
		Fullname:  c.Fullname,
		Fraction:  c.Fraction,
	}, currency)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot quote %s in %s as %q: %w", c.Mnemonic, currency, pair, err)
	}
	// A pair is expressed in its quote currency, whatever the source says.
	q.Currency = currency
	return q, nil
}

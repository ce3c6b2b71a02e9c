package pricedb

import (
	"context"
	"fmt"

	"github.com/etnz/pricedb/date"
	"github.com/shopspring/decimal"
)

// memBook is an in memory Book for tests.
type memBook struct {
	base        string
	commodities []Commodity
	prices      []Price
	saved       bool
	addErr      error // returned by AddPrice when set
}

func (b *memBook) BaseCurrency() string               { return b.base }
func (b *memBook) Commodities() ([]Commodity, error) { return b.commodities, nil }
func (b *memBook) Save() error                        { b.saved = true; return nil }
func (b *memBook) Close() error                       { return nil }

func (b *memBook) Prices(c Commodity) ([]Price, error) {
	var history []Price
	for _, p := range b.prices {
		if p.Of(c) {
			history = append(history, p)
		}
	}
	SortHistory(history)
	return history, nil
}

func (b *memBook) AddPrice(p Price) error {
	if b.addErr != nil {
		return b.addErr
	}
	b.prices = append(b.prices, p)
	return nil
}

func (b *memBook) DeletePrice(p Price) error {
	for i, q := range b.prices {
		if q.GUID == p.GUID {
			b.prices = append(b.prices[:i], b.prices[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no price %s", p.GUID)
}

// price is a helper to create a stored price from literals.
func price(c Commodity, currency, day string, num, den int64) Price {
	return Price{
		GUID:      NewGUID(),
		Namespace: c.Namespace,
		Mnemonic:  c.Mnemonic,
		Currency:  currency,
		Date:      date.MustParse(day),
		Value:     Rational{num, den},
		Source:    SourceUser,
		Type:      TypeLast,
	}
}

// fixed returns a source always answering the same quote, and counting calls.
func fixed(value, currency, day string, calls *int) QuoteSource {
	return QuoteSourceFunc(func(ctx context.Context, c Commodity, _ string) (Quote, error) {
		if calls != nil {
			*calls++
		}
		return Quote{Symbol: c.Mnemonic, Price: decimal.RequireFromString(value), Currency: currency, Date: date.MustParse(day)}, nil
	})
}

// failing returns a source always failing with err.
func failing(err error, calls *int) QuoteSource {
	return QuoteSourceFunc(func(ctx context.Context, c Commodity, _ string) (Quote, error) {
		if calls != nil {
			*calls++
		}
		return Quote{}, err
	})
}

package pricedb

import (
	"slices"
	"strings"

	"github.com/etnz/pricedb/date"
	"github.com/google/uuid"
)

// Default tags of the prices created by the reconciliation.
const (
	SourceUser = "user:price"
	TypeLast   = "last"
)

// Price is a price record: the value of one unit of a commodity, in a currency, on a day.
type Price struct {
	GUID      string
	Namespace string
	Mnemonic  string
	Currency  string
	Date      date.Date
	Value     Rational
	Source    string
	Type      string
}

// NewPrice returns a "last" price for c with a fresh GUID.
func NewPrice(c Commodity, currency string, day date.Date, value Rational) Price {
	return Price{
		GUID:      NewGUID(),
		Namespace: c.Namespace,
		Mnemonic:  c.Mnemonic,
		Currency:  currency,
		Date:      day,
		Value:     value,
		Source:    SourceUser,
		Type:      TypeLast,
	}
}

// Of reports whether p is a price of c.
func (p Price) Of(c Commodity) bool {
	return strings.EqualFold(p.Namespace, c.Namespace) && p.Mnemonic == c.Mnemonic
}

// NewGUID returns a GnuCash style identifier: 32 lower case hex digits.
func NewGUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SortHistory sorts prices most recent first. Prices of the same day keep their order.
func SortHistory(prices []Price) {
	slices.SortStableFunc(prices, func(a, b Price) int { return b.Date.Compare(a.Date) })
}

// Latest returns the most recent price in currency from a most-recent-first history, or nil.
func Latest(history []Price, currency string) *Price {
	for i := range history {
		if history[i].Currency == currency {
			return &history[i]
		}
	}
	return nil
}

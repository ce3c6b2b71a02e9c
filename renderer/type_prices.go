package renderer

import (
	"fmt"

	"github.com/etnz/pricedb"
)

// Prices is the markdown view of price histories.
type Prices struct {
	Ledger       string
	BaseCurrency string
	Histories    []History
}

// History is the price history of a commodity, most recent first.
type History struct {
	Commodity string
	Rows      []PriceRow
}

// PriceRow is a single price record.
type PriceRow struct {
	Date   string
	Price  string // the decimal value with its currency
	Value  string // the stored rational
	Source string
	Type   string
	GUID   string
}

// Add appends the history of c.
func (p *Prices) Add(c pricedb.Commodity, history []pricedb.Price) {
	h := History{Commodity: cell(c.String())}
	if c.Fullname != "" && c.Fullname != c.Mnemonic {
		h.Commodity += " " + cell(c.Fullname)
	}
	for _, x := range history {
		h.Rows = append(h.Rows, PriceRow{
			Date:   x.Date.String(),
			Price:  FormatAmount(x.Value.Decimal(), x.Currency),
			Value:  fmt.Sprintf("%d/%d", x.Value.Num, x.Value.Den),
			Source: cell(x.Source),
			Type:   cell(x.Type),
			GUID:   x.GUID,
		})
	}
	p.Histories = append(p.Histories, h)
}

package renderer

import (
	"fmt"

	"github.com/etnz/pricedb"
)

// Update is the markdown view of a reconciliation run.
type Update struct {
	Ledger       string
	BaseCurrency string
	Inserted     int
	Skipped      int
	Failed       int
	Removed      int
	Namespaces   []UpdateNamespace
}

// UpdateNamespace lists the outcomes of a namespace.
type UpdateNamespace struct {
	Name string
	Rows []UpdateRow
}

// UpdateRow is the outcome of a commodity.
type UpdateRow struct {
	Commodity string
	Status    string
	Price     string
	Date      string
	Note      string
}

// NewUpdate builds the view of a run report on ledger.
func NewUpdate(ledger string, r *pricedb.Report) *Update {
	u := &Update{Ledger: ledger, BaseCurrency: r.BaseCurrency, Removed: r.Removed()}
	u.Inserted, u.Skipped, u.Failed = r.Counts()

	index := make(map[string]int)
	for _, o := range r.Outcomes {
		ns := o.Commodity.Namespace
		i, ok := index[ns]
		if !ok {
			i = len(u.Namespaces)
			index[ns] = i
			u.Namespaces = append(u.Namespaces, UpdateNamespace{Name: ns})
		}
		u.Namespaces[i].Rows = append(u.Namespaces[i].Rows, newUpdateRow(o))
	}
	return u
}

func newUpdateRow(o pricedb.Outcome) UpdateRow {
	row := UpdateRow{
		Commodity: cell(o.Commodity.Label()),
		Status:    o.Status.String(),
	}
	if o.Status != pricedb.Failed {
		row.Price = FormatAmount(o.Value.Decimal(), o.Currency)
		row.Date = o.Quote.Date.String()
	}

	var notes []string
	switch {
	case o.Status == pricedb.Failed:
		notes = append(notes, o.Err.Error())
	case o.Quote.Currency != pricedb.UnknownCurrency && o.Quote.Currency != o.Currency:
		notes = append(notes, fmt.Sprintf("quoted in %s", o.Quote.Currency))
	}
	if o.Removed > 0 {
		notes = append(notes, fmt.Sprintf("zero prices removed: %d", o.Removed))
	}
	for i, n := range notes {
		if i > 0 {
			row.Note += ", "
		}
		row.Note += cell(n)
	}
	return row
}

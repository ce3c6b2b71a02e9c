// Package yahoo quotes securities and currency pairs from Yahoo Finance daily charts.
//
// Mnemonics are Yahoo symbols, like "MC.PA", "AAPL" or "USDEUR=X".
package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/date"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"
)

// lookback is the number of days of chart requested to find the latest close.
const lookback = 10

// Bar is a daily close.
type Bar struct {
	Time  time.Time
	Close decimal.Decimal
}

// Chart is a daily price chart of a symbol.
type Chart struct {
	Currency string
	Location *time.Location // exchange local time, nil is UTC
	Bars     []Bar
}

// Source is the Yahoo Finance market data source.
type Source struct {
	// Fetch returns the daily chart of symbol between start and end. Nil is the Yahoo chart API.
	Fetch func(ctx context.Context, symbol string, start, end time.Time) (Chart, error)
	// Now returns the current time, nil is time.Now.
	Now func() time.Time
}

// Pair returns the Yahoo symbol of one unit of from in to.
func Pair(from, to string) string { return from + to + "=X" }

// Quote returns the latest daily close of c.Mnemonic.
func (s *Source) Quote(ctx context.Context, c pricedb.Commodity, _ string) (pricedb.Quote, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	fetch := fetchChart
	if s.Fetch != nil {
		fetch = s.Fetch
	}

	symbol := c.Mnemonic
	end := now()
	ch, err := fetch(ctx, symbol, end.AddDate(0, 0, -lookback), end)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if len(ch.Bars) == 0 {
		return pricedb.Quote{}, fmt.Errorf("yahoo %s: %w: empty chart", symbol, pricedb.ErrNoData)
	}

	last := ch.Bars[0]
	for _, b := range ch.Bars[1:] {
		if b.Time.After(last.Time) {
			last = b
		}
	}
	loc := ch.Location
	if loc == nil {
		loc = time.UTC
	}
	currency := ch.Currency
	if currency == "" {
		currency = pricedb.UnknownCurrency
	}
	return pricedb.Quote{
		Symbol:   symbol,
		Price:    last.Close,
		Currency: currency,
		Date:     date.Of(last.Time.In(loc)),
	}, nil
}

// fetchChart reads a daily chart from the Yahoo chart API.
func fetchChart(ctx context.Context, symbol string, start, end time.Time) (Chart, error) {
	p := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	p.Context = &ctx

	return readChart(chart.Get(p))
}

// chartIter is the part of *chart.Iter read by readChart.
type chartIter interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
	Meta() finance.ChartMeta
}

// readChart collects the bars and the exchange details of a chart.
func readChart(iter chartIter) (Chart, error) {
	var ch Chart
	for iter.Next() {
		b := iter.Bar()
		// Yahoo emits null bars on holidays.
		if b == nil || b.Close.IsZero() {
			continue
		}
		ch.Bars = append(ch.Bars, Bar{Time: time.Unix(int64(b.Timestamp), 0), Close: b.Close})
	}
	if err := iter.Err(); err != nil {
		return Chart{}, fmt.Errorf("%w: %w", pricedb.ErrQuoteUnavailable, err)
	}
	meta := iter.Meta()
	ch.Currency = meta.Currency
	ch.Location = time.FixedZone(meta.Timezone, meta.Gmtoffset)
	return ch, nil
}

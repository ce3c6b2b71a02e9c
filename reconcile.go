package pricedb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"slices"
	"strings"
	"time"
)

// This file contains the reconciliation of a book's prices with quote sources.

// Reconciler appends the latest quotes of a book's commodities to its price database.
type Reconciler struct {
	// Sources maps a namespace (case insensitive) to its quote source.
	Sources map[string]QuoteSource
	// Market quotes every namespace without a dedicated source.
	Market QuoteSource
	// Out receives a progress line per namespace and per commodity. Nil discards them.
	Out io.Writer
	// Timeout bounds each quote, zero means no bound.
	Timeout time.Duration
}

// source returns the quote source for c, nil if there is none.
//
// An exact namespace key wins, then keys equal ignoring case in sorted order.
func (r *Reconciler) source(c Commodity) QuoteSource {
	if s, ok := r.Sources[c.Namespace]; ok {
		return s
	}
	for _, ns := range slices.Sorted(maps.Keys(r.Sources)) {
		if c.In(ns) {
			return r.Sources[ns]
		}
	}
	return r.Market
}

func (r *Reconciler) printf(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}

// Run reconciles every commodity of the book, one at a time, namespace by namespace.
//
// A commodity failure never stops the run, it is reported in its Outcome.
// Run only fails when the book cannot list its commodities. The book is not saved.
func (r *Reconciler) Run(ctx context.Context, book Book) (*Report, error) {
	base := book.BaseCurrency()
	commodities, err := book.Commodities()
	if err != nil {
		return nil, fmt.Errorf("cannot list commodities: %w", err)
	}

	report := &Report{BaseCurrency: base}
	namespaces, groups := GroupByNamespace(commodities)
	for _, ns := range namespaces {
		if strings.EqualFold(ns, NamespaceTemplate) {
			continue
		}
		r.printf("== Namespace: %s ==\n", ns)
		for _, c := range groups[ns] {
			// Currencies are only quoted on demand, and never against themselves.
			if c.IsCurrency() && (!c.QuoteFlag || c.Mnemonic == base) {
				continue
			}
			o := r.reconcile(ctx, book, base, c)
			report.Outcomes = append(report.Outcomes, o)
			r.print(o)
		}
	}
	return report, nil
}

// print writes the outcome's progress line and logs failures.
func (r *Reconciler) print(o Outcome) {
	switch o.Status {
	case Inserted:
		r.printf("%s price: %s %s date: %s updated!\n", o.Commodity.Label(), o.Quote.Price, o.Quote.Currency, o.Quote.Date)
	case Skipped:
		r.printf("%s is already updated...\n", o.Commodity.Label())
	case Failed:
		r.printf("%s: %v\n", o.Commodity.Mnemonic, o.Err)
		if errors.Is(o.Err, ErrNoData) {
			log.Printf("warning no price for %s: %v", o.Commodity.Label(), o.Err)
		} else {
			log.Printf("error retrieving price of %s: %v", o.Commodity.Label(), o.Err)
		}
	}
}

// reconcile processes a single commodity.
func (r *Reconciler) reconcile(ctx context.Context, book Book, base string, c Commodity) Outcome {
	o := Outcome{Commodity: c}
	fail := func(err error) Outcome {
		o.Status, o.Err = Failed, err
		return o
	}

	q, value, err := r.quote(ctx, c, base)
	if err != nil {
		return fail(err)
	}
	o.Quote, o.Value = q, value

	history, err := book.Prices(c)
	if err != nil {
		return fail(fmt.Errorf("cannot read prices of %s: %w", c, err))
	}
	history, o.Removed, err = removeZeros(book, history)
	if err != nil {
		return fail(err)
	}

	// Prices continue in the currency they were recorded in.
	o.Currency = base
	if len(history) > 0 {
		o.Currency = history[0].Currency
	}
	if q.Currency != UnknownCurrency && q.Currency != o.Currency {
		log.Printf("warning %s is quoted in %s but its prices are recorded in %s", c.Label(), q.Currency, o.Currency)
	}

	if IsStale(Latest(history, o.Currency), q.Date) {
		o.Status = Skipped
		return o
	}

	p := NewPrice(c, o.Currency, q.Date, value)
	if err := book.AddPrice(p); err != nil {
		return fail(fmt.Errorf("cannot add price of %s: %w", c, err))
	}
	o.Status, o.Price = Inserted, &p
	return o
}

// quote fetches c's quote and normalizes it to c's fraction.
func (r *Reconciler) quote(ctx context.Context, c Commodity, base string) (Quote, Rational, error) {
	src := r.source(c)
	if src == nil {
		return Quote{}, Rational{}, fmt.Errorf("%w: no quote source for namespace %q", ErrQuoteUnavailable, c.Namespace)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	q, err := src.Quote(ctx, c, base)
	if err != nil {
		return Quote{}, Rational{}, classify(err)
	}
	if q.Price.IsZero() {
		return q, Rational{}, fmt.Errorf("%w: %s quoted at zero", ErrNoData, q.Symbol)
	}
	value, err := Normalize(q.Price, c.Fraction)
	if err != nil {
		return q, Rational{}, err
	}
	if value.IsZero() {
		return q, value, fmt.Errorf("%w: %s rounds to zero at 1/%d", ErrPrecision, q.Price, c.Fraction)
	}
	return q, value, nil
}

// removeZeros deletes the zero valued prices of a history and returns the remaining ones.
func removeZeros(book Book, history []Price) (kept []Price, removed int, err error) {
	kept = history[:0:0]
	for _, p := range history {
		if !p.Value.IsZero() {
			kept = append(kept, p)
			continue
		}
		if err := book.DeletePrice(p); err != nil {
			return nil, removed, fmt.Errorf("cannot remove zero price of %s:%s on %s: %w", p.Namespace, p.Mnemonic, p.Date, err)
		}
		removed++
	}
	return kept, removed, nil
}

// Cleanup removes the zero valued prices of every commodity in the book.
func Cleanup(book Book) (removed int, err error) {
	commodities, err := book.Commodities()
	if err != nil {
		return 0, fmt.Errorf("cannot list commodities: %w", err)
	}
	var errs error
	for _, c := range commodities {
		history, err := book.Prices(c)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		_, n, err := removeZeros(book, history)
		removed += n
		errs = errors.Join(errs, err)
	}
	return removed, errs
}

package pricedb

import (
	"errors"
	"fmt"
)

// Status is the result of the reconciliation of a single commodity.
type Status int

const (
	Inserted Status = iota + 1 // A new price was added.
	Skipped                    // The book already had a price as recent as the quote.
	Failed                     // No price could be obtained.
)

func (s Status) String() string {
	switch s {
	case Inserted:
		return "updated"
	case Skipped:
		return "up to date"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is what happened to a commodity during a run.
type Outcome struct {
	Commodity Commodity
	Status    Status
	Quote     Quote    // Zero when the quote failed.
	Value     Rational // Quote's price at the commodity fraction.
	Currency  string   // Currency of the stored price.
	Price     *Price   // The inserted price, if any.
	Removed   int      // Zero valued prices removed from the history.
	Err       error    // Reason of a Failed outcome.
}

// Report lists the outcomes of a run, in processing order.
type Report struct {
	BaseCurrency string
	Outcomes     []Outcome
}

// Counts returns the number of outcomes per status.
func (r *Report) Counts() (inserted, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case Inserted:
			inserted++
		case Skipped:
			skipped++
		case Failed:
			failed++
		}
	}
	return
}

// Removed returns the total number of zero valued prices removed.
func (r *Report) Removed() (n int) {
	for _, o := range r.Outcomes {
		n += o.Removed
	}
	return n
}

// Err joins the reasons of all failed outcomes, nil if none failed.
func (r *Report) Err() error {
	var errs error
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", o.Commodity.Mnemonic, o.Err))
		}
	}
	return errs
}

package pricedb

import (
	"context"
	"errors"
	"fmt"
)

// Errors reported by the reconciliation. They are always wrapped, test them with errors.Is.
var (
	// ErrUsage is a command line misuse, detected before anything is opened.
	ErrUsage = errors.New("usage error")
	// ErrQuoteUnavailable is a network, parsing or timeout failure of a quote source.
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrNoData is returned when a quote source answered but had nothing to quote.
	ErrNoData = errors.New("no data")
	// ErrPrecision is returned when a price cannot be represented exactly at the commodity's fraction.
	ErrPrecision = errors.New("precision error")
	// ErrPersistence is returned when a book cannot be written.
	ErrPersistence = errors.New("persistence error")
)

// classify makes sure a quote failure belongs to the known taxonomy.
//
// Sources are expected to wrap ErrQuoteUnavailable or ErrNoData, anything else
// (including a context deadline) is reported as unavailable.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoData), errors.Is(err, ErrQuoteUnavailable), errors.Is(err, ErrPrecision):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: timeout: %w", ErrQuoteUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrQuoteUnavailable, err)
	}
}

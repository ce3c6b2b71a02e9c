package pricedb

import "github.com/etnz/pricedb/date"

// IsStale reports whether a quote of day candidate is redundant with latest.
//
// There is nothing to be redundant with when latest is nil. A quote of the
// same day as latest is stale: a run appends at most a price per day, and
// running twice the same day changes nothing.
func IsStale(latest *Price, candidate date.Date) bool {
	if latest == nil {
		return false
	}
	return !latest.Date.Before(candidate)
}

// Package pricedb keeps the price database of a ledger up to date.
//
// A Reconciler visits every commodity of a Book, asks the QuoteSource of its
// namespace for the latest quote, normalizes the quoted price to an exact
// Rational at the commodity's fraction, and appends it to the book unless the
// book already holds a price as recent. At most one price per commodity is
// added by a run, and a failing commodity never stops the others.
//
// Books are implemented by the jsonl package, for a JSONL ledger file, and the
// gnucash package, for a GnuCash book stored in PostgreSQL. Quote sources live
// in the yahoo, eodhd, coingecko and morningstar packages.
//
// This package serves as the foundational logic for the `pdbupdate`
// command-line tool.
package pricedb

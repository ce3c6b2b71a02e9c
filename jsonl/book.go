// Package jsonl stores a price database in a JSON Lines file.
//
// Each line is an object with a "command" field:
//
//	{"command":"book","currency":"EUR"}
//	{"command":"commodity","namespace":"NASDAQ","mnemonic":"ABC","fullname":"ABC Corp","fraction":100,"quoteFlag":true}
//	{"command":"price","guid":"…","namespace":"NASDAQ","mnemonic":"ABC","currency":"EUR","date":"2024-01-05","num":1235,"denom":100,"source":"user:price","type":"last"}
//
// While open, the file is locked by a sibling "<file>.LCK" file, like GnuCash does.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/date"
)

// Line commands.
const (
	CmdBook      = "book"
	CmdCommodity = "commodity"
	CmdPrice     = "price"
)

// LockSuffix is appended to the file name to lock it.
const LockSuffix = ".LCK"

// Book is a price database stored in a JSONL file.
type Book struct {
	path        string
	lock        string
	base        string
	commodities []pricedb.Commodity
	prices      []pricedb.Price
}

// Open locks and reads the JSONL file at path.
//
// A file locked by another process cannot be opened.
func Open(path string) (*Book, error) {
	lock := path + LockSuffix
	f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s is locked, remove %s if no other process uses it", pricedb.ErrPersistence, path, lock)
		}
		return nil, fmt.Errorf("%w: cannot lock %s: %w", pricedb.ErrPersistence, path, err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	b, err := open(path)
	if err != nil {
		os.Remove(lock)
		return nil, err
	}
	b.lock = lock
	return b, nil
}

func open(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pricedb.ErrPersistence, err)
	}
	defer f.Close()
	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %w", pricedb.ErrPersistence, path, err)
	}
	b.path = path
	return b, nil
}

// Decode reads a price database from JSONL, without any file attached.
func Decode(r io.Reader) (*Book, error) {
	b := new(Book)
	guids := make(map[string]int) // line of each price GUID
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	n := 0
	for scanner.Scan() {
		n++
		lineBytes := bytes.TrimSpace(scanner.Bytes())
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var line struct {
			Command   string    `json:"command"`
			GUID      string    `json:"guid"`
			Namespace string    `json:"namespace"`
			Mnemonic  string    `json:"mnemonic"`
			Fullname  string    `json:"fullname"`
			CUSIP     string    `json:"cusip"`
			Fraction  int64     `json:"fraction"`
			QuoteFlag bool      `json:"quoteFlag"`
			Currency  string    `json:"currency"`
			Date      date.Date `json:"date"`
			Num       int64     `json:"num"`
			Denom     int64     `json:"denom"`
			Source    string    `json:"source"`
			Type      string    `json:"type"`
		}
		if err := json.Unmarshal(lineBytes, &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		switch line.Command {
		case CmdBook:
			b.base = line.Currency
		case CmdCommodity:
			if line.Fraction <= 0 {
				return nil, fmt.Errorf("line %d: commodity %s:%s has an invalid fraction %d", n, line.Namespace, line.Mnemonic, line.Fraction)
			}
			b.commodities = append(b.commodities, pricedb.Commodity{
				Namespace: line.Namespace,
				Mnemonic:  line.Mnemonic,
				Fullname:  line.Fullname,
				CUSIP:     line.CUSIP,
				Fraction:  line.Fraction,
				QuoteFlag: line.QuoteFlag,
			})
		case CmdPrice:
			if line.Denom <= 0 {
				return nil, fmt.Errorf("line %d: price of %s has an invalid denominator %d", n, line.Mnemonic, line.Denom)
			}
			if line.Date.IsZero() {
				return nil, fmt.Errorf("line %d: price of %s has no date", n, line.Mnemonic)
			}
			// Prices are deleted by GUID, hand written lines may lack one.
			if line.GUID == "" {
				line.GUID = pricedb.NewGUID()
			}
			if first, dup := guids[line.GUID]; dup {
				return nil, fmt.Errorf("line %d: price %s already defined line %d", n, line.GUID, first)
			}
			guids[line.GUID] = n
			b.prices = append(b.prices, pricedb.Price{
				GUID:      line.GUID,
				Namespace: line.Namespace,
				Mnemonic:  line.Mnemonic,
				Currency:  line.Currency,
				Date:      line.Date,
				Value:     pricedb.Rational{Num: line.Num, Den: line.Denom},
				Source:    line.Source,
				Type:      line.Type,
			})
		default:
			return nil, fmt.Errorf("line %d: unknown command %q", n, line.Command)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	if b.base == "" {
		return nil, fmt.Errorf("no %q line with the base currency", CmdBook)
	}
	return b, nil
}

// Encode writes the price database as JSONL, in a stable field order.
func (b *Book) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := newLine(CmdBook).field("currency", b.base).writeTo(bw); err != nil {
		return err
	}
	for _, c := range b.commodities {
		l := newLine(CmdCommodity).field("namespace", c.Namespace).field("mnemonic", c.Mnemonic)
		l = optional(l, "fullname", c.Fullname)
		l = optional(l, "cusip", c.CUSIP)
		l = optional(l.field("fraction", c.Fraction), "quoteFlag", c.QuoteFlag)
		if err := l.writeTo(bw); err != nil {
			return err
		}
	}
	for _, p := range b.prices {
		l := newLine(CmdPrice).
			field("guid", p.GUID).
			field("namespace", p.Namespace).
			field("mnemonic", p.Mnemonic).
			field("currency", p.Currency).
			field("date", p.Date).
			field("num", p.Value.Num).
			field("denom", p.Value.Den)
		l = optional(optional(l, "source", p.Source), "type", p.Type)
		if err := l.writeTo(bw); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// BaseCurrency returns the currency of the "book" line.
func (b *Book) BaseCurrency() string { return b.base }

// Commodities returns the commodities in file order.
func (b *Book) Commodities() ([]pricedb.Commodity, error) {
	return slices.Clone(b.commodities), nil
}

// Prices returns the price history of c, most recent first. Prices of the
// same day are ordered last written first.
func (b *Book) Prices(c pricedb.Commodity) ([]pricedb.Price, error) {
	var history []pricedb.Price
	for i := len(b.prices) - 1; i >= 0; i-- {
		if b.prices[i].Of(c) {
			history = append(history, b.prices[i])
		}
	}
	pricedb.SortHistory(history)
	return history, nil
}

// AddPrice appends p.
func (b *Book) AddPrice(p pricedb.Price) error {
	if p.GUID == "" {
		p.GUID = pricedb.NewGUID()
	}
	b.prices = append(b.prices, p)
	return nil
}

// DeletePrice removes the price with p's GUID.
func (b *Book) DeletePrice(p pricedb.Price) error {
	i := slices.IndexFunc(b.prices, func(x pricedb.Price) bool { return x.GUID == p.GUID })
	if i < 0 {
		return fmt.Errorf("no price %s for %s", p.GUID, p.Mnemonic)
	}
	b.prices = slices.Delete(b.prices, i, i+1)
	return nil
}

// Save replaces the file with the current content, atomically.
func (b *Book) Save() error {
	if b.path == "" {
		return fmt.Errorf("%w: book has no file", pricedb.ErrPersistence)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", pricedb.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := b.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: cannot write %s: %w", pricedb.ErrPersistence, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", pricedb.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("%w: %w", pricedb.ErrPersistence, err)
	}
	return nil
}

// Close releases the lock. Unsaved changes are lost.
func (b *Book) Close() error {
	if b.lock == "" {
		return nil
	}
	err := os.Remove(b.lock)
	b.lock = ""
	if err != nil {
		return fmt.Errorf("cannot unlock %s: %w", b.path, err)
	}
	return nil
}

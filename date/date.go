// Package date implements a calendar day.
//
// Prices in a price database are dated, not timestamped: a quote received at
// 17:35 and one received at 09:00 on the same day are both quotes "of that day".
package date

import (
	"encoding"
	"fmt"
	"time"
)

// Layout is the ISO-8601 form dates are written in.
const Layout = "2006-01-02"

// lenient also reads single digit months and days, as in "2025-7-1".
const lenient = "2006-1-2"

// Date is a calendar day. The zero Date is not a valid day.
//
// Dates are comparable with ==.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns the day of year, month and day, normalized like time.Date: New(2024, 1, 32) is February 1st.
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// Of returns the day of t in t's own location.
func Of(t time.Time) Date { return New(t.Date()) }

// Today returns the current local day.
func Today() Date { return Of(time.Now()) }

// midnight is the canonical instant of d, used for arithmetic.
func (d Date) midnight() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }

// Compare returns -1, 0 or +1 whether d is before, the same day as, or after x.
func (d Date) Compare(x Date) int { return d.midnight().Compare(x.midnight()) }

// AddDays returns the day n days after d, before it when n is negative.
func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.midnight().Format(Layout)
}

// Parse reads a day in Layout, single digit months and days are accepted.
func Parse(s string) (Date, error) {
	t, err := time.Parse(lenient, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return Of(t), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MarshalText writes d in Layout, JSON encodes it as a string.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(text []byte) (err error) {
	*d, err = Parse(string(text))
	return err
}

var (
	_ encoding.TextMarshaler   = Date{}
	_ encoding.TextUnmarshaler = (*Date)(nil)
)

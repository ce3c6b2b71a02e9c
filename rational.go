package pricedb

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Rational is an exact price as stored in a book: Num/Den.
//
// Normalized rationals keep the commodity fraction as denominator (1235/100,
// not 247/20) so that the stored pair reads like the book displays it.
type Rational struct {
	Num int64
	Den int64
}

// Rat returns r as a big.Rat. The zero Rational is 0.
func (r Rational) Rat() *big.Rat {
	if r.Den == 0 {
		return new(big.Rat)
	}
	return big.NewRat(r.Num, r.Den)
}

// IsZero reports whether r is worth zero.
func (r Rational) IsZero() bool { return r.Num == 0 }

// Cmp compares r and x by value.
func (r Rational) Cmp(x Rational) int { return r.Rat().Cmp(x.Rat()) }

// Decimal returns r as a decimal.
// It is exact whenever Den is a power of ten, rounded to 12 places otherwise.
func (r Rational) Decimal() decimal.Decimal {
	if r.Den == 0 {
		return decimal.Zero
	}
	if exp, ok := log10(r.Den); ok {
		return decimal.New(r.Num, -exp)
	}
	return decimal.NewFromInt(r.Num).DivRound(decimal.NewFromInt(r.Den), 12)
}

// String returns the decimal representation of r.
func (r Rational) String() string { return r.Decimal().String() }

// log10 returns n's exponent if n is a power of ten.
func log10(n int64) (int32, bool) {
	var exp int32
	for n > 1 && n%10 == 0 {
		n /= 10
		exp++
	}
	return exp, n == 1
}

// NormalizeRat rounds v half up to the nearest multiple of 1/fraction.
//
// Halves are rounded away from zero. The returned denominator is fraction.
func NormalizeRat(v *big.Rat, fraction int64) (Rational, error) {
	if fraction <= 0 {
		return Rational{}, fmt.Errorf("%w: invalid fraction %d", ErrPrecision, fraction)
	}
	x := new(big.Rat).Mul(v, new(big.Rat).SetInt64(fraction))

	// |x| = n/d, round(|x|) = floor((2n+d) / 2d)
	n := new(big.Int).Abs(x.Num())
	d := x.Denom()
	q := new(big.Int).Lsh(n, 1)
	q.Add(q, d)
	q.Quo(q, new(big.Int).Lsh(d, 1))
	if x.Sign() < 0 {
		q.Neg(q)
	}
	if !q.IsInt64() {
		return Rational{}, fmt.Errorf("%w: %s does not fit at 1/%d", ErrPrecision, v.FloatString(6), fraction)
	}
	return Rational{Num: q.Int64(), Den: fraction}, nil
}

// Normalize rounds a decimal price to the commodity fraction.
func Normalize(v decimal.Decimal, fraction int64) (Rational, error) {
	return NormalizeRat(v.Rat(), fraction)
}

// NormalizeFloat rounds a float price to the commodity fraction.
//
// The float is converted through its shortest decimal representation, so that
// 12.345 is read as 12.345 and not as its binary neighbour 12.3449999...
func NormalizeFloat(f float64, fraction int64) (Rational, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Rational{}, fmt.Errorf("%w: %v is not a finite price", ErrPrecision, f)
	}
	return Normalize(decimal.NewFromFloat(f), fraction)
}

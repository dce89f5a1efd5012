// Package money converts between stored integer cents and decimal arithmetic.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Decimal returns the decimal amount of a cent value.
func Decimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Cents rounds a decimal amount half away from zero to whole cents.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromString parses "12.50" style amounts.
func FromString(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Cents(d), nil
}

// Format renders cents as a fixed two-decimal string.
func Format(cents int64) string {
	return Decimal(cents).StringFixed(2)
}

// Percent returns pct percent of cents, rounded to whole cents.
func Percent(cents int64, pct decimal.Decimal) int64 {
	return Cents(Decimal(cents).Mul(pct).Div(hundred))
}

// Multiply returns cents × qty.
func Multiply(cents int64, qty int) int64 {
	return cents * int64(qty)
}

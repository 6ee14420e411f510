package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places every amount is kept at.
const CurrencyPlaces = 2

var (
	// MinorUnit is the smallest representable amount (one cent).
	MinorUnit = decimal.New(1, -CurrencyPlaces)

	// DefaultTolerance is how far a ledger may drift from zero before it is
	// reported as imbalanced.
	DefaultTolerance = MinorUnit

	// MaxAmount is the largest amount a single expense or payment may carry.
	MaxAmount = decimal.New(1, 12)

	// maxCents bounds every value converted to cents so that adding two of
	// them cannot overflow int64.
	maxCents = decimal.NewFromInt(math.MaxInt64 / 2)
)

// Cents converts an amount to integer minor units, rounding half away from
// zero. ok is false when the amount is too large to convert.
func Cents(d decimal.Decimal) (cents int64, ok bool) {
	c := d.Shift(CurrencyPlaces).Round(0)
	if c.Abs().GreaterThan(maxCents) {
		return 0, false
	}
	return c.IntPart(), true
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -CurrencyPlaces)
}

// isCentExact reports whether d has no precision below one minor unit.
func isCentExact(d decimal.Decimal) bool {
	return d.Equal(d.Round(CurrencyPlaces))
}

// ParseAmount parses a user supplied amount such as "12.50".
// The result is not rounded; validation happens in the stage that consumes it.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

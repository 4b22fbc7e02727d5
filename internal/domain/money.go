package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units (e.g. cents). All arithmetic on
// balances and operation values happens on this integer representation;
// decimal strings exist only at the boundary.
type Amount int64

// minorFactor converts between major and minor units (two fraction digits).
var minorFactor = decimal.NewFromInt(100)

// ParseAmount converts a decimal string like "12.34" into minor units without
// ever going through floating point. At most two fraction digits are allowed.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	minor := d.Mul(minorFactor)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}

	return Amount(minor.IntPart()), nil
}

// Decimal returns the exact major-unit representation of the amount.
// Presentation only; never feed the result back into balance arithmetic.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String formats the amount with two fraction digits, e.g. "12.34".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

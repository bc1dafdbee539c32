package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountTolerance is the epsilon used whenever two amounts are compared for
// identity. Floating point equality is never used on amounts.
const AmountTolerance = 0.01

// AmountsMatch reports whether a and b are within AmountTolerance.
func AmountsMatch(a, b float64) bool {
	return math.Abs(a-b) < AmountTolerance
}

// ParseAmount converts user text to an amount. Both "12.34" and "12,34"
// are accepted; a leading sign is allowed.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return f, nil
}

// FormatAmount renders an amount with exactly two decimals, half away from zero.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

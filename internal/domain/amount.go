package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal unit string ("2.5", "0,75") to hundredths.
// Blank input is zero. More than two decimals is rejected rather than rounded.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: at most two decimals allowed", s)
	}
	return scaled.IntPart(), nil
}

// FormatAmount renders hundredths as a unit string with two decimals.
func FormatAmount(hundredths int64) string {
	return decimal.New(hundredths, -2).StringFixed(2)
}

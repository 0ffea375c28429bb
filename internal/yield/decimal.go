package yield

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDec parses a Cosmos SDK decimal string ("1.234000000000000000").
// Empty strings parse as zero.
func ParseDec(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse dec %q: %w", s, err)
	}
	return d, nil
}

// ParseDecFloat parses a Cosmos SDK decimal string into a float64.
func ParseDecFloat(s string) (float64, error) {
	d, err := ParseDec(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// MicroToUnit converts an integer base-denom amount ("1500000" uatom) into
// display units using the denom exponent (6 for uatom).
func MicroToUnit(amount string, exponent int32) (float64, error) {
	d, err := ParseDec(amount)
	if err != nil {
		return 0, err
	}
	return d.Shift(-exponent).InexactFloat64(), nil
}

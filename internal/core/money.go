// Package core holds the ledger's value types and the parsing and
// validation rules shared by every store.
//
// Amounts are shopspring decimals so sums stay exact; they are persisted as
// their canonical string form.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a non-negative decimal.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Signs,
// exponents and thousands separators are rejected. Zero is allowed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	intPart, fracPart := parts[0], ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	for _, r := range intPart + fracPart {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return decimal.Zero, invalid("amount", ErrInvalidAmount)
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	if fracPart != "" {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	return d, nil
}

// ValidateAmount rejects negative values.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

// FormatAmount renders an amount with two decimal places for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

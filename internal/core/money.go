// Package core provides money parsing and handling utilities.
//
// This file contains the amount parser used by the spreadsheet importers and
// the fixed two-decimal renderer used by the CSV export.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a spreadsheet cell to a decimal amount.
//
// Both separators are accepted. When a cell contains both "." and ",", the
// rightmost one is the decimal separator and the other is a thousands
// separator. A lone "," is a decimal comma. A lone "." followed by exactly
// three digits in a cell with more than one "." is a thousands separator.
// Currency symbols and spaces are dropped; "(150,00)" is negative.
//
// Examples:
//
//	ParseAmount("1234.56")     -> 1234.56
//	ParseAmount("1.234,56")    -> 1234.56
//	ParseAmount("R$ 1.234,56") -> 1234.56
//	ParseAmount("(150,00)")    -> -150
//	ParseAmount("1.234.567")   -> 1234567
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Keep digits, separators and a sign; drop currency symbols and spaces.
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = !negative
		case r == '+' && b.Len() == 0:
		case unicode.IsSpace(r), r == 'R', r == '$':
		default:
			return decimal.Zero, ErrInvalidAmount
		}
	}
	s = b.String()
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		// "1.234.567": every group after the first must have exactly three digits
		parts := strings.Split(s, ".")
		for _, p := range parts[1:] {
			if len(p) != 3 {
				return decimal.Zero, ErrInvalidAmount
			}
		}
		s = strings.Join(parts, "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// FormatAmount renders d with exactly two decimal places and a "." separator.
// This is the export format; it performs no locale formatting.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

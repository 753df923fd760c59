// Package core holds the transaction model and its validation rules.
//
// This file contains amount parsing. Form amounts are checked as exact
// decimals and then carried as float64, which is what the ledger sums.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive decimal amount.
//
// Both dot and comma decimal separators are accepted. Zero, negative and
// non-numeric values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.50") -> 12.5, nil
//	ParseAmount("12,50") -> 12.5, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	return f, nil
}

// TruncateAmount parses the leading integer of s the way a lenient
// integer parser does: optional sign, then digits, stopping at the first
// non-digit. "12.75" gives 12 and "7abc" gives 7. The digit run is read as
// a correctly rounded float64, so very long inputs lose precision instead
// of wrapping. When no digits lead the string the result is 0 and ok is
// false.
func TruncateAmount(s string) (n float64, ok bool) {
	s = strings.TrimSpace(s)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign = s[:1]
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	// Digit runs beyond float64 range give ±Inf.
	n, _ = strconv.ParseFloat(sign+s[:end], 64)
	return n, true
}

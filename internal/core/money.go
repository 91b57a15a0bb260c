// Package core provides money parsing and formatting utilities.
//
// Amounts are whole currency units (yen); there is no fractional part.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal string to Money. Thousands separators
// (commas) and surrounding whitespace are tolerated; signs and fractions are
// not. The result must be positive.
//
// Examples:
//
//	ParseAmount("2500")   -> Money{2500}, nil
//	ParseAmount("12,500") -> Money{12500}, nil
//	ParseAmount("-3")     -> Money{}, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Strip thousands separators before digit validation.
	s = strings.ReplaceAll(s, ",", "")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if v <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: v}, nil
}

// MarshalJSON renders Money as a bare integer.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Amount, 10)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Amount = v
	return nil
}

// FormatYen renders an amount as a yen string with thousands separators,
// e.g. "¥12,500". Used for log output and export rows.
func FormatYen(m Money) string {
	v := m.Amount
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-¥" + b.String()
	}
	return "¥" + b.String()
}

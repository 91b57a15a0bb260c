// Package core holds the domain value types shared by the schedule engine,
// storage, and transport layers.
//
// This file defines DayRule, the tagged representation of a billing-cycle
// day-of-month setting: either a concrete day (1..31) or "month end", which
// resolves to the last calendar day of whatever month it is applied to.
package core

import (
	"strconv"
	"strings"
)

// DayRule is either a numeric day of month or the month-end marker.
// The zero value is invalid; construct via NumericDay or MonthEnd.
type DayRule struct {
	day      int
	monthEnd bool
}

// monthEndToken is the canonical storage/JSON encoding for month-end rules.
const monthEndToken = "eom"

// NumericDay returns a rule for a fixed day of month. Days outside [1,31]
// are rejected.
func NumericDay(day int) (DayRule, error) {
	if day < 1 || day > 31 {
		return DayRule{}, ErrInvalidDay
	}
	return DayRule{day: day}, nil
}

// MustNumericDay is NumericDay for statically known values; it panics on an
// out-of-range day.
func MustNumericDay(day int) DayRule {
	r, err := NumericDay(day)
	if err != nil {
		panic("core: day out of range: " + strconv.Itoa(day))
	}
	return r
}

// MonthEnd returns the month-end rule.
func MonthEnd() DayRule {
	return DayRule{monthEnd: true}
}

// ParseDayRule parses the storage encoding: "eom" (or the legacy "月末"
// marker found in imported data) for month end, otherwise a decimal day
// in [1,31].
func ParseDayRule(s string) (DayRule, error) {
	s = strings.TrimSpace(s)
	if s == monthEndToken || s == "月末" {
		return MonthEnd(), nil
	}
	day, err := strconv.Atoi(s)
	if err != nil {
		return DayRule{}, ErrInvalidDay
	}
	return NumericDay(day)
}

// IsMonthEnd reports whether the rule is the month-end marker.
func (r DayRule) IsMonthEnd() bool {
	return r.monthEnd
}

// Day returns the fixed day for numeric rules, or 0 for month-end.
func (r DayRule) Day() int {
	if r.monthEnd {
		return 0
	}
	return r.day
}

// String returns the canonical encoding ("eom" or the decimal day).
func (r DayRule) String() string {
	if r.monthEnd {
		return monthEndToken
	}
	return strconv.Itoa(r.day)
}

func (r DayRule) Validate() error {
	if r.monthEnd {
		return nil
	}
	if r.day < 1 || r.day > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (r DayRule) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *DayRule) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDayRule(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

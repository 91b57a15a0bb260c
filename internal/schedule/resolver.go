// Package schedule implements the payment schedule calculation engine: cycle
// rule resolution, scheduled-date derivation for card transactions, monthly
// and per-day aggregation, and the billing-configuration auditor.
//
// Every function in this package is a pure, deterministic function of its
// arguments. Nothing here touches storage, the clock, or shared state, so
// concurrent invocation is safe without locking.
package schedule

import (
	"time"

	"paysched/internal/core"
)

// daysIn returns the number of days in the given month, leap years included.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Resolve converts a day rule into a concrete date in the month monthShift
// months after (year, month).
//
// Numeric rules exceeding the target month's length are clamped to its last
// day; the month-end rule resolves to the actual last day. When
// weekendAdjustment is set, a date landing on Saturday or Sunday advances to
// the following Monday (weekends only, no holiday calendar). Note the
// adjustment can cross into the next month; flagging when that is undesirable
// is the auditor's job, not the resolver's.
func Resolve(year, month int, rule core.DayRule, monthShift int, weekendAdjustment bool) core.Date {
	// time.Date normalizes out-of-range months, so December + shift rolls
	// into the next year without special casing.
	target := time.Date(year, time.Month(month+monthShift), 1, 0, 0, 0, 0, time.UTC)
	lastDay := daysIn(target.Year(), target.Month())

	day := lastDay
	if !rule.IsMonthEnd() {
		day = rule.Day()
		if day > lastDay {
			day = lastDay
		}
	}

	resolved := core.NewDate(target.Year(), int(target.Month()), day)
	if weekendAdjustment {
		resolved = nextBusinessDay(resolved)
	}
	return resolved
}

// nextBusinessDay advances a weekend date to the following Monday.
func nextBusinessDay(d core.Date) core.Date {
	switch d.Weekday() {
	case time.Saturday:
		return core.Date{Time: d.AddDate(0, 0, 2)}
	case time.Sunday:
		return core.Date{Time: d.AddDate(0, 0, 1)}
	}
	return d
}

package schedule

import (
	"testing"
	"time"

	"paysched/internal/core"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		year       int
		month      int
		rule       core.DayRule
		shift      int
		weekendAdj bool
		want       core.Date
	}{
		{
			name: "numeric day, no shift",
			year: 2025, month: 3, rule: core.MustNumericDay(15),
			want: core.NewDate(2025, 3, 15),
		},
		{
			name: "numeric day shifted one month",
			year: 2025, month: 2, rule: core.MustNumericDay(27), shift: 1,
			want: core.NewDate(2025, 3, 27),
		},
		{
			name: "numeric day shifted two months",
			year: 2025, month: 11, rule: core.MustNumericDay(5), shift: 2,
			want: core.NewDate(2026, 1, 5),
		},
		{
			name: "december shift rolls the year",
			year: 2025, month: 12, rule: core.MustNumericDay(15), shift: 1,
			want: core.NewDate(2026, 1, 15),
		},
		{
			name: "day 31 clamps in a 30-day month",
			year: 2025, month: 4, rule: core.MustNumericDay(31),
			want: core.NewDate(2025, 4, 30),
		},
		{
			name: "day 30 clamps in non-leap february",
			year: 2025, month: 2, rule: core.MustNumericDay(30),
			want: core.NewDate(2025, 2, 28),
		},
		{
			name: "day 30 clamps to 29 in leap february",
			year: 2024, month: 2, rule: core.MustNumericDay(30),
			want: core.NewDate(2024, 2, 29),
		},
		{
			name: "month end in a 31-day month",
			year: 2025, month: 1, rule: core.MonthEnd(),
			want: core.NewDate(2025, 1, 31),
		},
		{
			name: "month end in leap february",
			year: 2024, month: 2, rule: core.MonthEnd(),
			want: core.NewDate(2024, 2, 29),
		},
		{
			name: "weekday date unaffected by weekend adjustment",
			year: 2025, month: 4, rule: core.MonthEnd(), weekendAdj: true,
			// 2025-04-30 is a Wednesday; the weekend check runs but does nothing.
			want: core.NewDate(2025, 4, 30),
		},
		{
			name: "saturday advances to monday",
			year: 2025, month: 5, rule: core.MonthEnd(), weekendAdj: true,
			// 2025-05-31 is a Saturday.
			want: core.NewDate(2025, 6, 2),
		},
		{
			name: "sunday advances to monday across the month boundary",
			year: 2025, month: 8, rule: core.MonthEnd(), weekendAdj: true,
			// 2025-08-31 is a Sunday; adjustment crosses into September.
			want: core.NewDate(2025, 9, 1),
		},
		{
			name: "weekend date kept when adjustment disabled",
			year: 2025, month: 5, rule: core.MonthEnd(),
			want: core.NewDate(2025, 5, 31),
		},
		{
			name: "numeric saturday advances",
			year: 2025, month: 8, rule: core.MustNumericDay(2), shift: 0, weekendAdj: true,
			// 2025-08-02 is a Saturday.
			want: core.NewDate(2025, 8, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.year, tt.month, tt.rule, tt.shift, tt.weekendAdj)
			if got.String() != tt.want.String() {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolvePreAdjustmentDayMatchesRule(t *testing.T) {
	// Without weekend adjustment, the resolved day must equal the rule's day
	// (clamped) or the month's last day for month-end, for every month.
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 31; day++ {
			got := Resolve(2025, month, core.MustNumericDay(day), 0, false)
			last := daysIn(2025, time.Month(month))
			want := day
			if want > last {
				want = last
			}
			if got.Day() != want || got.Month() != month {
				t.Fatalf("Resolve(2025, %d, day %d) = %s, want day %d", month, day, got, want)
			}
		}
		got := Resolve(2025, month, core.MonthEnd(), 0, false)
		if got.Day() != daysIn(2025, time.Month(month)) {
			t.Fatalf("Resolve(2025, %d, eom) = %s", month, got)
		}
	}
}

func TestResolveNeverReturnsWeekendWhenAdjusting(t *testing.T) {
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 31; day++ {
			got := Resolve(2025, month, core.MustNumericDay(day), 0, true)
			if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
				t.Fatalf("Resolve(2025, %d, day %d) landed on %s", month, day, wd)
			}
		}
	}
}

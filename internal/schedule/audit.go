package schedule

import (
	"fmt"
	"time"

	"paysched/internal/core"
)

type (
	// Settings is the auditable subset of a billing account's configuration.
	Settings struct {
		ClosingDay        core.DayRule `json:"closingDay"`
		PaymentDay        core.DayRule `json:"paymentDay"`
		PaymentMonthShift int          `json:"paymentMonthShift"`
		WeekendAdjustment bool         `json:"weekendAdjustment"`
	}

	// Issue identifies an account whose configuration silently produces
	// wrong dates: a month-end payment day with weekend adjustment enabled
	// can push the withdrawal into the first days of the following month.
	Issue struct {
		AccountID   string   `json:"accountId"`
		AccountName string   `json:"accountName"`
		Settings    Settings `json:"settings"`
	}

	// Report is the result of a configuration audit.
	Report struct {
		Problematic []Issue `json:"problematic"`
		Summary     Summary `json:"summary"`
	}

	Summary struct {
		TotalAccounts       int `json:"totalAccounts"`
		ProblematicAccounts int `json:"problematicAccounts"`
	}

	// Fix is a proposed configuration change for one account. The auditor
	// only recommends; an external apply step performs the write.
	Fix struct {
		AccountID   string   `json:"accountId"`
		Current     Settings `json:"current"`
		Recommended Settings `json:"recommended"`
		Reason      string   `json:"reason"`
	}

	// AffectedTransaction reports how one already-scheduled transaction
	// would move under a proposed fix.
	AffectedTransaction struct {
		TransactionID        string    `json:"transactionId"`
		AccountID            string    `json:"accountId"`
		CurrentScheduledDate core.Date `json:"currentScheduledDate"`
		RecalculatedDate     core.Date `json:"recalculatedDate"`
		DayDifference        int       `json:"dayDifference"` // recalculated minus current, in days
	}

	// Validation is the discriminated result of checking proposed fixes.
	// Errors reject the fix set; warnings flag unusual but legal changes.
	Validation struct {
		IsValid  bool     `json:"isValid"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
)

// settingsOf extracts the auditable settings from an account.
func settingsOf(a core.BillingAccount) Settings {
	return Settings{
		ClosingDay:        a.ClosingDay,
		PaymentDay:        a.PaymentDay,
		PaymentMonthShift: a.PaymentMonthShift,
		WeekendAdjustment: a.WeekendAdjustment,
	}
}

// problematic reports whether an account carries the conflicting rule pair.
func problematic(a core.BillingAccount) bool {
	return a.PaymentDay.IsMonthEnd() && a.WeekendAdjustment
}

// Analyze scans billing accounts for the month-end/weekend-adjustment
// conflict and returns every affected account with summary counts.
func Analyze(accounts []core.BillingAccount) Report {
	report := Report{
		Problematic: []Issue{},
		Summary:     Summary{TotalAccounts: len(accounts)},
	}
	for _, a := range accounts {
		if !problematic(a) {
			continue
		}
		report.Problematic = append(report.Problematic, Issue{
			AccountID:   a.ID,
			AccountName: a.Name,
			Settings:    settingsOf(a),
		})
		report.Summary.ProblematicAccounts++
	}
	return report
}

// RecommendFixes proposes disabling weekend adjustment for each problematic
// account, preserving the month-end withdrawal semantics the configuration
// intends.
func RecommendFixes(accounts []core.BillingAccount) []Fix {
	fixes := []Fix{}
	for _, a := range accounts {
		if !problematic(a) {
			continue
		}
		current := settingsOf(a)
		recommended := current
		recommended.WeekendAdjustment = false
		fixes = append(fixes, Fix{
			AccountID:   a.ID,
			Current:     current,
			Recommended: recommended,
			Reason: fmt.Sprintf(
				"account %q pays on the last day of the month with weekend adjustment enabled; "+
					"a month-end landing on a weekend would be pushed into the next month, so "+
					"weekend adjustment should be disabled", a.Name),
		})
	}
	return fixes
}

// AffectedTransactions re-runs the schedule calculation for every card
// transaction of each fixed account under its recommended settings and
// reports the signed day shift against the stored scheduled date. Fixes
// referencing unknown accounts contribute nothing (ValidateFixes surfaces
// them as errors).
func AffectedTransactions(txs []core.Transaction, fixes []Fix, accounts []core.BillingAccount) []AffectedTransaction {
	accountByID := make(map[string]core.BillingAccount, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}

	affected := []AffectedTransaction{}
	for _, fix := range fixes {
		account, ok := accountByID[fix.AccountID]
		if !ok {
			continue
		}
		patched := account
		patched.ClosingDay = fix.Recommended.ClosingDay
		patched.PaymentDay = fix.Recommended.PaymentDay
		patched.PaymentMonthShift = fix.Recommended.PaymentMonthShift
		patched.WeekendAdjustment = fix.Recommended.WeekendAdjustment

		for _, tx := range txs {
			if tx.Kind != core.KindCard || tx.AccountID != account.ID {
				continue
			}
			recalculated := ScheduledPayDate(tx.Date, patched)
			affected = append(affected, AffectedTransaction{
				TransactionID:        tx.ID,
				AccountID:            account.ID,
				CurrentScheduledDate: tx.ScheduledPayDate,
				RecalculatedDate:     recalculated,
				DayDifference:        dayDelta(tx.ScheduledPayDate, recalculated),
			})
		}
	}
	return affected
}

// ValidateFixes checks a fix set against the known accounts. Unknown account
// ids are errors; disabling weekend adjustment on an account whose payment
// day is not month-end is unusual but legal, so it only warns.
func ValidateFixes(fixes []Fix, accounts []core.BillingAccount) Validation {
	accountByID := make(map[string]core.BillingAccount, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}

	v := Validation{IsValid: true, Errors: []string{}, Warnings: []string{}}
	for _, fix := range fixes {
		account, ok := accountByID[fix.AccountID]
		if !ok {
			v.IsValid = false
			v.Errors = append(v.Errors, fmt.Sprintf("unknown account id %q", fix.AccountID))
			continue
		}
		if !fix.Recommended.WeekendAdjustment && account.WeekendAdjustment && !account.PaymentDay.IsMonthEnd() {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"account %q: disabling weekend adjustment although its payment day is not month-end", account.Name))
		}
	}
	return v
}

// dayDelta returns the whole-day difference b minus a.
func dayDelta(a, b core.Date) int {
	return int(b.Sub(a.Time) / (24 * time.Hour))
}

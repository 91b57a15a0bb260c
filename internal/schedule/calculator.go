package schedule

import (
	"time"

	"paysched/internal/core"
)

// ScheduledPayDate computes the withdrawal date for a card transaction from
// its owning account's billing rules. Direct bank debits bypass this entirely:
// their scheduled date is the transaction date itself (see PayDate).
func ScheduledPayDate(txDate core.Date, account core.BillingAccount) core.Date {
	closingYear, closingMonth := closingPeriod(txDate, account.ClosingDay)
	return Resolve(closingYear, closingMonth, account.PaymentDay, account.PaymentMonthShift, account.WeekendAdjustment)
}

// PayDate returns the scheduled withdrawal date for a transaction of either
// kind, given its owning account (nil for bank debits).
func PayDate(tx core.Transaction, account *core.BillingAccount) core.Date {
	if tx.Kind == core.KindBank || account == nil {
		return tx.Date
	}
	return ScheduledPayDate(tx.Date, *account)
}

// closingPeriod locates the billing month a transaction closes in: the
// transaction's own month when its day is on or before the closing boundary,
// otherwise the next month. A month-end closing day means every transaction
// closes in its own month. A numeric closing day longer than the month (31 in
// February) clamps to the month's last day, mirroring the resolver's rule.
func closingPeriod(txDate core.Date, closingDay core.DayRule) (year, month int) {
	if closingDay.IsMonthEnd() {
		return txDate.Year(), txDate.Month()
	}

	boundary := closingDay.Day()
	if last := daysIn(txDate.Year(), time.Month(txDate.Month())); boundary > last {
		boundary = last
	}
	if txDate.Day() <= boundary {
		return txDate.Year(), txDate.Month()
	}

	next := time.Date(txDate.Year(), time.Month(txDate.Month())+1, 1, 0, 0, 0, 0, time.UTC)
	return next.Year(), int(next.Month())
}

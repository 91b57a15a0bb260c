package schedule

import (
	"sort"

	"paysched/internal/core"
)

type (
	// BankGroup collects one settlement bank's share of a single day: the
	// actual transactions dated that day plus the schedule entries withdrawn
	// that day, with a combined subtotal.
	BankGroup struct {
		BankID       string             `json:"bankId"`
		BankName     string             `json:"bankName"`
		Transactions []core.Transaction `json:"transactions,omitempty"`
		Entries      []Entry            `json:"entries,omitempty"`
		Subtotal     core.Money         `json:"subtotal"`
		ItemCount    int                `json:"itemCount"`
	}

	// KindBreakdown splits the actual-transaction bucket by payment kind.
	KindBreakdown struct {
		Count int        `json:"count"`
		Total core.Money `json:"total"`
	}

	// DayTotal is one calendar day's aggregate: actual transactions keyed by
	// their own date, schedule entries keyed by their withdrawal date.
	// Derived, never persisted.
	DayTotal struct {
		Date             core.Date     `json:"date"`
		TransactionTotal core.Money    `json:"transactionTotal"`
		ScheduleTotal    core.Money    `json:"scheduleTotal"`
		Total            core.Money    `json:"total"`
		TransactionCount int           `json:"transactionCount"`
		ScheduleCount    int           `json:"scheduleCount"`
		CardBreakdown    KindBreakdown `json:"cardBreakdown"`
		BankBreakdown    KindBreakdown `json:"bankBreakdown"`
		BankGroups       []BankGroup   `json:"bankGroups"`
	}
)

// HasTransactions reports whether any actual transaction landed on this day.
func (d DayTotal) HasTransactions() bool { return d.TransactionCount > 0 }

// HasSchedule reports whether any scheduled withdrawal lands on this day.
func (d DayTotal) HasSchedule() bool { return d.ScheduleCount > 0 }

// HasData reports whether either bucket is non-empty.
func (d DayTotal) HasData() bool { return d.HasTransactions() || d.HasSchedule() }

// BuildDayTotals merges actual transactions with a month's derived schedule
// entries into one record per calendar date, keyed YYYY-MM-DD. Transactions
// count on their own date regardless of when they will be withdrawn; schedule
// entries count on their withdrawal date. Bank groups are ordered by bank
// display name; within a group, insertion order is preserved, so identical
// inputs always produce identical output.
func BuildDayTotals(txs []core.Transaction, entries []Entry, banks []core.Bank, accounts []core.BillingAccount) map[string]DayTotal {
	bankByID := make(map[string]core.Bank, len(banks))
	for _, b := range banks {
		bankByID[b.ID] = b
	}
	accountByID := make(map[string]core.BillingAccount, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}

	days := map[string]*dayAccum{}

	for _, tx := range txs {
		bank, ok := settlementBank(tx, bankByID, accountByID)
		if !ok {
			continue
		}
		day := getDay(days, tx.Date)
		day.total.TransactionTotal = day.total.TransactionTotal.Add(tx.Amount)
		day.total.TransactionCount++
		switch tx.Kind {
		case core.KindCard:
			day.total.CardBreakdown.Count++
			day.total.CardBreakdown.Total = day.total.CardBreakdown.Total.Add(tx.Amount)
		case core.KindBank:
			day.total.BankBreakdown.Count++
			day.total.BankBreakdown.Total = day.total.BankBreakdown.Total.Add(tx.Amount)
		}
		group := day.group(bank)
		group.Transactions = append(group.Transactions, tx)
		group.Subtotal = group.Subtotal.Add(tx.Amount)
		group.ItemCount++
	}

	for _, entry := range entries {
		day := getDay(days, entry.Date)
		day.total.ScheduleTotal = day.total.ScheduleTotal.Add(entry.Total)
		day.total.ScheduleCount++
		group := day.group(core.Bank{ID: entry.BankID, Name: entry.BankName})
		group.Entries = append(group.Entries, entry)
		group.Subtotal = group.Subtotal.Add(entry.Total)
		group.ItemCount++
	}

	coll := newCollator()
	result := make(map[string]DayTotal, len(days))
	for key, day := range days {
		groups := make([]BankGroup, 0, len(day.groupOrder))
		for _, bankID := range day.groupOrder {
			groups = append(groups, *day.groups[bankID])
		}
		sort.SliceStable(groups, func(i, j int) bool {
			if c := coll.CompareString(groups[i].BankName, groups[j].BankName); c != 0 {
				return c < 0
			}
			return groups[i].BankID < groups[j].BankID
		})
		day.total.BankGroups = groups
		day.total.Total = day.total.TransactionTotal.Add(day.total.ScheduleTotal)
		result[key] = *day.total
	}
	return result
}

// settlementBank resolves the bank a transaction settles through, skipping
// records whose account or bank has since been deleted.
func settlementBank(tx core.Transaction, banks map[string]core.Bank, accounts map[string]core.BillingAccount) (core.Bank, bool) {
	switch tx.Kind {
	case core.KindCard:
		account, ok := accounts[tx.AccountID]
		if !ok {
			return core.Bank{}, false
		}
		bank, ok := banks[account.BankID]
		return bank, ok
	case core.KindBank:
		bank, ok := banks[tx.BankID]
		return bank, ok
	}
	return core.Bank{}, false
}

type dayAccum struct {
	total      *DayTotal
	groups     map[string]*BankGroup
	groupOrder []string
}

func getDay(days map[string]*dayAccum, date core.Date) *dayAccum {
	key := date.String()
	day, ok := days[key]
	if !ok {
		day = &dayAccum{
			total:  &DayTotal{Date: date},
			groups: map[string]*BankGroup{},
		}
		days[key] = day
	}
	return day
}

func (d *dayAccum) group(bank core.Bank) *BankGroup {
	g, ok := d.groups[bank.ID]
	if !ok {
		g = &BankGroup{BankID: bank.ID, BankName: bank.Name}
		d.groups[bank.ID] = g
		d.groupOrder = append(d.groupOrder, bank.ID)
	}
	return g
}

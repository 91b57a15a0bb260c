package schedule

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"paysched/internal/core"
)

// BankDebitLabel is the payer label shown for direct bank debits.
const BankDebitLabel = "引落"

type (
	// Entry is one row of the monthly cross-table: all transactions of one
	// payer withdrawn on one date. Derived, never persisted.
	Entry struct {
		Date         core.Date          `json:"date"`
		PayerLabel   string             `json:"payerLabel"`
		AccountID    string             `json:"accountId,omitempty"` // empty for direct debits
		BankID       string             `json:"bankId"`
		BankName     string             `json:"bankName"`
		Transactions []core.Transaction `json:"transactions"`
		Total        core.Money         `json:"total"`
	}

	// MonthlyView is the month-scoped schedule: entries sorted by date then
	// payer label, per-bank totals, and the month-wide total.
	MonthlyView struct {
		Year       int                   `json:"year"`
		Month      int                   `json:"month"`
		Entries    []Entry               `json:"entries"`
		BankTotals map[string]core.Money `json:"bankTotals"` // settlement bank id -> month total
		MonthTotal core.Money            `json:"monthTotal"`
	}
)

// newCollator builds the label comparator. Payer and bank names are
// Japanese, so entries sort with Japanese collation rules.
func newCollator() *collate.Collator {
	return collate.New(language.Japanese)
}

// BuildMonthlyView filters transactions scheduled in (year, month) and groups
// them by withdrawal date, then payer. Transactions referencing an account or
// bank missing from the supplied lists are skipped: historical records
// legitimately outlive the configuration that created them. A month with no
// matching transactions yields an empty view with zero totals.
func BuildMonthlyView(txs []core.Transaction, banks []core.Bank, accounts []core.BillingAccount, year, month int) MonthlyView {
	view := MonthlyView{
		Year:       year,
		Month:      month,
		Entries:    []Entry{},
		BankTotals: map[string]core.Money{},
	}

	bankByID := make(map[string]core.Bank, len(banks))
	for _, b := range banks {
		bankByID[b.ID] = b
	}
	accountByID := make(map[string]core.BillingAccount, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}

	grouped := map[string]*Entry{}
	var order []string

	for _, tx := range txs {
		if !tx.ScheduledPayDate.InMonth(year, month) {
			continue
		}

		var entry Entry
		switch tx.Kind {
		case core.KindCard:
			account, ok := accountByID[tx.AccountID]
			if !ok {
				continue
			}
			bank, ok := bankByID[account.BankID]
			if !ok {
				continue
			}
			entry = Entry{
				Date:       tx.ScheduledPayDate,
				PayerLabel: account.Name,
				AccountID:  account.ID,
				BankID:     bank.ID,
				BankName:   bank.Name,
			}
		case core.KindBank:
			bank, ok := bankByID[tx.BankID]
			if !ok {
				continue
			}
			entry = Entry{
				Date:       tx.ScheduledPayDate,
				PayerLabel: BankDebitLabel,
				BankID:     bank.ID,
				BankName:   bank.Name,
			}
		default:
			continue
		}

		key := entryKey(entry)
		existing, ok := grouped[key]
		if !ok {
			e := entry
			grouped[key] = &e
			order = append(order, key)
			existing = grouped[key]
		}
		existing.Transactions = append(existing.Transactions, tx)
		existing.Total = existing.Total.Add(tx.Amount)

		view.BankTotals[entry.BankID] = view.BankTotals[entry.BankID].Add(tx.Amount)
		view.MonthTotal = view.MonthTotal.Add(tx.Amount)
	}

	entries := make([]Entry, 0, len(order))
	for _, key := range order {
		entries = append(entries, *grouped[key])
	}

	coll := newCollator()
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.Before(entries[j].Date.Time)
		}
		if c := coll.CompareString(entries[i].PayerLabel, entries[j].PayerLabel); c != 0 {
			return c < 0
		}
		// Identical labels (two debits from different banks): fall back to
		// bank name so the order stays reproducible.
		return coll.CompareString(entries[i].BankName, entries[j].BankName) < 0
	})
	view.Entries = entries

	return view
}

// entryKey identifies the payer of an entry: the billing account for card
// transactions, the bank itself for direct debits.
func entryKey(e Entry) string {
	if e.AccountID != "" {
		return e.Date.String() + "|card:" + e.AccountID
	}
	return e.Date.String() + "|bank:" + e.BankID
}

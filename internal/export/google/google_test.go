package google

import (
	"testing"

	"paysched/internal/core"
	"paysched/internal/schedule"
)

func TestMonthSheetName(t *testing.T) {
	if got := monthSheetName("Schedule", 2025, 3); got != "2025-03 Schedule" {
		t.Errorf("monthSheetName = %q", got)
	}
	if got := monthSheetName(" Schedule ", 2025, 12); got != "2025-12 Schedule" {
		t.Errorf("monthSheetName = %q", got)
	}
}

func TestViewRows(t *testing.T) {
	date, _ := core.ParseDate("2025-03-27")
	view := schedule.MonthlyView{
		Year:  2025,
		Month: 3,
		Entries: []schedule.Entry{
			{
				Date:         date,
				PayerLabel:   "楽天カード",
				BankName:     "みずほ銀行",
				Transactions: []core.Transaction{{}, {}},
				Total:        core.Money{Amount: 10500},
			},
		},
		BankTotals: map[string]core.Money{"bank-x": {Amount: 10500}},
		MonthTotal: core.Money{Amount: 10500},
	}

	rows := viewRows(view)

	// header + 1 entry + blank spacer + 1 bank subtotal + month total
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
	entry := rows[1]
	if entry[0] != "2025-03-27" || entry[1] != "楽天カード" || entry[3] != 2 || entry[4] != int64(10500) {
		t.Errorf("entry row = %v", entry)
	}
	last := rows[len(rows)-1]
	if last[3] != "total" || last[4] != int64(10500) {
		t.Errorf("total row = %v", last)
	}
}

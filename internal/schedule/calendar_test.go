package schedule

import (
	"testing"

	"paysched/internal/core"
)

func TestBuildDayTotalsBuckets(t *testing.T) {
	banks, accounts := fixtures()
	txs := []core.Transaction{
		// Bought Mar 5, withdrawn Apr 27: the actual bucket counts on Mar 5.
		cardTx("t1", "acct-a", 2500, core.NewDate(2025, 3, 5), core.NewDate(2025, 4, 27)),
		bankTx("t2", "bank-y", 8000, core.NewDate(2025, 3, 5)),
	}
	// One derived withdrawal landing on Mar 27.
	entries := []Entry{
		{
			Date: core.NewDate(2025, 3, 27), PayerLabel: "楽天カード",
			AccountID: "acct-a", BankID: "bank-x", BankName: "みずほ銀行",
			Total: core.Money{Amount: 6000},
		},
	}

	days := BuildDayTotals(txs, entries, banks, accounts)

	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}

	mar5 := days["2025-03-05"]
	if mar5.TransactionTotal.Amount != 10500 || mar5.TransactionCount != 2 {
		t.Errorf("Mar 5 transactions: total=%d count=%d", mar5.TransactionTotal.Amount, mar5.TransactionCount)
	}
	if mar5.CardBreakdown.Total.Amount != 2500 || mar5.CardBreakdown.Count != 1 {
		t.Errorf("Mar 5 card breakdown: %+v", mar5.CardBreakdown)
	}
	if mar5.BankBreakdown.Total.Amount != 8000 || mar5.BankBreakdown.Count != 1 {
		t.Errorf("Mar 5 bank breakdown: %+v", mar5.BankBreakdown)
	}
	if mar5.ScheduleTotal.Amount != 0 || mar5.HasSchedule() {
		t.Errorf("Mar 5 should have no schedule bucket: %+v", mar5)
	}
	if !mar5.HasTransactions() || !mar5.HasData() {
		t.Error("Mar 5 flags wrong")
	}

	mar27 := days["2025-03-27"]
	if mar27.ScheduleTotal.Amount != 6000 || mar27.ScheduleCount != 1 {
		t.Errorf("Mar 27 schedule: total=%d count=%d", mar27.ScheduleTotal.Amount, mar27.ScheduleCount)
	}
	if mar27.HasTransactions() || !mar27.HasSchedule() || !mar27.HasData() {
		t.Errorf("Mar 27 flags wrong: %+v", mar27)
	}
	if mar27.Total.Amount != 6000 {
		t.Errorf("Mar 27 total = %d", mar27.Total.Amount)
	}
}

func TestBuildDayTotalsBankGroups(t *testing.T) {
	banks, accounts := fixtures()
	day := core.NewDate(2025, 3, 5)
	txs := []core.Transaction{
		cardTx("t1", "acct-a", 2500, day, core.NewDate(2025, 4, 27)), // settles via bank-x
		bankTx("t2", "bank-y", 8000, day),
		bankTx("t3", "bank-x", 1000, day),
	}

	days := BuildDayTotals(txs, nil, banks, accounts)
	groups := days["2025-03-05"].BankGroups

	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	// Sorted by display name: kana sorts before kanji under Japanese
	// collation, so みずほ銀行 comes before 三井住友銀行.
	if groups[0].BankName != "みずほ銀行" || groups[1].BankName != "三井住友銀行" {
		t.Errorf("group order = %q, %q", groups[0].BankName, groups[1].BankName)
	}
	mizuho := groups[0]
	if mizuho.Subtotal.Amount != 3500 || mizuho.ItemCount != 2 {
		t.Errorf("mizuho group: subtotal=%d count=%d", mizuho.Subtotal.Amount, mizuho.ItemCount)
	}
	// Insertion order within the group.
	if mizuho.Transactions[0].ID != "t1" || mizuho.Transactions[1].ID != "t3" {
		t.Errorf("group tx order: %s, %s", mizuho.Transactions[0].ID, mizuho.Transactions[1].ID)
	}
}

func TestBuildDayTotalsSkipsDanglingReferences(t *testing.T) {
	banks, accounts := fixtures()
	txs := []core.Transaction{
		cardTx("t1", "acct-gone", 999, core.NewDate(2025, 3, 5), core.NewDate(2025, 4, 27)),
	}

	days := BuildDayTotals(txs, nil, banks, accounts)
	if len(days) != 0 {
		t.Errorf("dangling card transaction must be skipped, got %+v", days)
	}
}

func TestBuildDayTotalsDeterministic(t *testing.T) {
	banks, accounts := fixtures()
	day := core.NewDate(2025, 3, 5)
	txs := []core.Transaction{
		cardTx("t1", "acct-a", 100, day, core.NewDate(2025, 4, 27)),
		bankTx("t2", "bank-y", 200, day),
		bankTx("t3", "bank-x", 300, day),
		cardTx("t4", "acct-b", 400, day, core.NewDate(2025, 4, 10)),
	}

	first := BuildDayTotals(txs, nil, banks, accounts)
	second := BuildDayTotals(txs, nil, banks, accounts)

	a, b := first["2025-03-05"], second["2025-03-05"]
	if len(a.BankGroups) != len(b.BankGroups) {
		t.Fatalf("group counts differ")
	}
	for i := range a.BankGroups {
		if a.BankGroups[i].BankID != b.BankGroups[i].BankID {
			t.Errorf("group %d order differs: %s vs %s", i, a.BankGroups[i].BankID, b.BankGroups[i].BankID)
		}
		if len(a.BankGroups[i].Transactions) != len(b.BankGroups[i].Transactions) {
			t.Errorf("group %d tx counts differ", i)
		}
	}
}

func TestDayTotalsAgreeWithMonthlyView(t *testing.T) {
	// When every transaction both occurs and is withdrawn inside the same
	// month, the calendar's transaction bucket must sum to the monthly view's
	// total.
	banks, accounts := fixtures()
	txs := []core.Transaction{
		bankTx("t1", "bank-x", 1000, core.NewDate(2025, 3, 3)),
		bankTx("t2", "bank-y", 2000, core.NewDate(2025, 3, 3)),
		bankTx("t3", "bank-y", 3000, core.NewDate(2025, 3, 18)),
	}

	view := BuildMonthlyView(txs, banks, accounts, 2025, 3)
	days := BuildDayTotals(txs, view.Entries, banks, accounts)

	var txSum int64
	for _, day := range days {
		txSum += day.TransactionTotal.Amount
	}
	if txSum != view.MonthTotal.Amount {
		t.Errorf("calendar transaction sum %d != monthly view total %d", txSum, view.MonthTotal.Amount)
	}
}

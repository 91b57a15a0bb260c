package services

import (
	"context"
	"testing"

	"paysched/internal/core"
	"paysched/internal/schedule"
)

func seedAuditData(t *testing.T, repo *fakeRepo) core.BillingAccount {
	t.Helper()
	bank := core.Bank{ID: "bank-x", Name: "みずほ銀行"}
	repo.banks[bank.ID] = bank
	flagged := core.BillingAccount{
		ID:                "acct-flagged",
		BankID:            bank.ID,
		Name:              "月末カード",
		ClosingDay:        core.MustNumericDay(15),
		PaymentDay:        core.MonthEnd(),
		PaymentMonthShift: 1,
		WeekendAdjustment: true,
	}
	ok := core.BillingAccount{
		ID:                "acct-ok",
		BankID:            bank.ID,
		Name:              "普通カード",
		ClosingDay:        core.MonthEnd(),
		PaymentDay:        core.MustNumericDay(27),
		PaymentMonthShift: 1,
		WeekendAdjustment: true,
	}
	repo.accounts[flagged.ID] = flagged
	repo.accounts[ok.ID] = ok
	return flagged
}

func TestAuditAnalyze(t *testing.T) {
	repo := newFakeRepo()
	seedAuditData(t, repo)
	svc := NewAuditService(repo)

	report, err := svc.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Summary.TotalAccounts != 2 || report.Summary.ProblematicAccounts != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if len(report.Problematic) != 1 || report.Problematic[0].AccountID != "acct-flagged" {
		t.Errorf("problematic = %+v", report.Problematic)
	}
}

func TestApplyFixesUpdatesAccount(t *testing.T) {
	repo := newFakeRepo()
	seedAuditData(t, repo)
	svc := NewAuditService(repo)
	ctx := context.Background()

	fixes, err := svc.RecommendFixes(ctx)
	if err != nil {
		t.Fatalf("RecommendFixes: %v", err)
	}
	if len(fixes) != 1 {
		t.Fatalf("fixes = %+v", fixes)
	}

	result, err := svc.ApplyFixes(ctx, fixes, false)
	if err != nil {
		t.Fatalf("ApplyFixes: %v", err)
	}
	if len(result.UpdatedAccounts) != 1 || result.UpdatedAccounts[0] != "acct-flagged" {
		t.Errorf("updated accounts = %v", result.UpdatedAccounts)
	}

	account, _ := repo.GetAccount(ctx, "acct-flagged")
	if account.WeekendAdjustment {
		t.Error("weekend adjustment should be disabled after apply")
	}

	// The repaired account must no longer be flagged.
	report, _ := svc.Analyze(ctx)
	if report.Summary.ProblematicAccounts != 0 {
		t.Errorf("still %d problematic accounts after apply", report.Summary.ProblematicAccounts)
	}
}

func TestApplyFixesRewritesScheduledDates(t *testing.T) {
	repo := newFakeRepo()
	seedAuditData(t, repo)
	svc := NewAuditService(repo)
	ctx := context.Background()

	// Closing the 15th, pay month-end one month later, adjustment enabled:
	// a purchase closing in July pays end of August, which is Sunday
	// 2025-08-31 and was pushed to Monday 2025-09-01 when it was created.
	stored := core.Transaction{
		ID:               "tx-1",
		Amount:           core.Money{Amount: 5000},
		Date:             date(t, "2025-07-10"),
		Kind:             core.KindCard,
		AccountID:        "acct-flagged",
		ScheduledPayDate: date(t, "2025-09-01"),
	}
	repo.txs[stored.ID] = stored

	fixes, err := svc.RecommendFixes(ctx)
	if err != nil {
		t.Fatalf("RecommendFixes: %v", err)
	}

	result, err := svc.ApplyFixes(ctx, fixes, true)
	if err != nil {
		t.Fatalf("ApplyFixes: %v", err)
	}
	if result.RewrittenTransactions != 1 {
		t.Fatalf("RewrittenTransactions = %d", result.RewrittenTransactions)
	}

	got, _ := repo.GetTransaction(ctx, "tx-1")
	if got.ScheduledPayDate.String() != "2025-08-31" {
		t.Errorf("scheduled date = %s, want 2025-08-31", got.ScheduledPayDate)
	}
}

func TestApplyFixesRejectsUnknownAccount(t *testing.T) {
	repo := newFakeRepo()
	seedAuditData(t, repo)
	svc := NewAuditService(repo)

	bogus := []schedule.Fix{{AccountID: "missing"}}
	if _, err := svc.ApplyFixes(context.Background(), bogus, false); err == nil {
		t.Fatal("expected validation failure for unknown account")
	}
}

func TestApplyFixesRejectsEmptySet(t *testing.T) {
	svc := NewAuditService(newFakeRepo())
	if _, err := svc.ApplyFixes(context.Background(), nil, false); err == nil {
		t.Fatal("expected error for empty fix set")
	}
}

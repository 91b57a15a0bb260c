package services

import (
	"context"
	"errors"
	"testing"

	"paysched/internal/core"
	"paysched/internal/schedule"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	version  int64
	banks    map[string]core.Bank
	accounts map[string]core.BillingAccount
	txs      map[string]core.Transaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		version:  1,
		banks:    map[string]core.Bank{},
		accounts: map[string]core.BillingAccount{},
		txs:      map[string]core.Transaction{},
	}
}

var errFakeNotFound = errors.New("record not found")

func (r *fakeRepo) DataVersion(ctx context.Context) (int64, error) { return r.version, nil }

func (r *fakeRepo) CreateBank(ctx context.Context, b core.Bank) error {
	r.banks[b.ID] = b
	r.version++
	return nil
}

func (r *fakeRepo) ListBanks(ctx context.Context) ([]core.Bank, error) {
	out := []core.Bank{}
	for _, b := range r.banks {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeRepo) GetBank(ctx context.Context, id string) (core.Bank, error) {
	b, ok := r.banks[id]
	if !ok {
		return core.Bank{}, errFakeNotFound
	}
	return b, nil
}

func (r *fakeRepo) DeleteBank(ctx context.Context, id string) error {
	if _, ok := r.banks[id]; !ok {
		return errFakeNotFound
	}
	delete(r.banks, id)
	r.version++
	return nil
}

func (r *fakeRepo) CreateAccount(ctx context.Context, a core.BillingAccount) error {
	r.accounts[a.ID] = a
	r.version++
	return nil
}

func (r *fakeRepo) ListAccounts(ctx context.Context) ([]core.BillingAccount, error) {
	out := []core.BillingAccount{}
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) GetAccount(ctx context.Context, id string) (core.BillingAccount, error) {
	a, ok := r.accounts[id]
	if !ok {
		return core.BillingAccount{}, errFakeNotFound
	}
	return a, nil
}

func (r *fakeRepo) UpdateAccount(ctx context.Context, a core.BillingAccount) error {
	if _, ok := r.accounts[a.ID]; !ok {
		return errFakeNotFound
	}
	r.accounts[a.ID] = a
	r.version++
	return nil
}

func (r *fakeRepo) DeleteAccount(ctx context.Context, id string) error {
	if _, ok := r.accounts[id]; !ok {
		return errFakeNotFound
	}
	delete(r.accounts, id)
	r.version++
	return nil
}

func (r *fakeRepo) CreateTransaction(ctx context.Context, t core.Transaction) error {
	r.txs[t.ID] = t
	r.version++
	return nil
}

func (r *fakeRepo) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, ok := r.txs[id]
	if !ok {
		return core.Transaction{}, errFakeNotFound
	}
	return t, nil
}

func (r *fakeRepo) UpdateTransactionDetails(ctx context.Context, id string, amount core.Money, storeName, memo string) error {
	t, ok := r.txs[id]
	if !ok {
		return errFakeNotFound
	}
	t.Amount = amount
	t.StoreName = storeName
	t.Memo = memo
	r.txs[id] = t
	r.version++
	return nil
}

func (r *fakeRepo) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := r.txs[id]; !ok {
		return errFakeNotFound
	}
	delete(r.txs, id)
	r.version++
	return nil
}

func (r *fakeRepo) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for _, t := range r.txs {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeRepo) ListTransactionsByScheduledMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for _, t := range r.txs {
		if t.ScheduledPayDate.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for _, t := range r.txs {
		if t.Date.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateScheduledDates(ctx context.Context, dates map[string]core.Date) error {
	for id, date := range dates {
		t, ok := r.txs[id]
		if !ok {
			return errFakeNotFound
		}
		t.ScheduledPayDate = date
		r.txs[id] = t
	}
	if len(dates) > 0 {
		r.version++
	}
	return nil
}

// fakePublisher records export requests.
type fakePublisher struct {
	requests [][2]int
	err      error
}

func (p *fakePublisher) PublishExportRequest(ctx context.Context, year, month int) error {
	if p.err != nil {
		return p.err
	}
	p.requests = append(p.requests, [2]int{year, month})
	return nil
}

func seedConfig(t *testing.T, repo *fakeRepo) (core.Bank, core.BillingAccount) {
	t.Helper()
	bank := core.Bank{ID: "bank-x", Name: "みずほ銀行"}
	repo.banks[bank.ID] = bank
	account := core.BillingAccount{
		ID:                "acct-a",
		BankID:            bank.ID,
		Name:              "楽天カード",
		ClosingDay:        core.MonthEnd(),
		PaymentDay:        core.MustNumericDay(27),
		PaymentMonthShift: 1,
		WeekendAdjustment: true,
	}
	repo.accounts[account.ID] = account
	return bank, account
}

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestCreateTransactionCardSchedulesWithdrawal(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(t, repo)
	pub := &fakePublisher{}
	svc := NewScheduleService(repo, pub)

	created, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Amount:    core.Money{Amount: 2500},
		Date:      date(t, "2025-02-15"),
		Kind:      core.KindCard,
		AccountID: "acct-a",
		StoreName: "スーパー",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if created.ID == "" {
		t.Error("transaction should get an id")
	}
	if got := created.ScheduledPayDate.String(); got != "2025-03-27" {
		t.Errorf("ScheduledPayDate = %s, want 2025-03-27", got)
	}
	if len(pub.requests) != 1 || pub.requests[0] != [2]int{2025, 3} {
		t.Errorf("export requests = %v, want [[2025 3]]", pub.requests)
	}
}

func TestCreateTransactionBankUsesOwnDate(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(t, repo)
	svc := NewScheduleService(repo, &fakePublisher{})

	created, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Amount: 8000},
		Date:   date(t, "2025-03-10"),
		Kind:   core.KindBank,
		BankID: "bank-x",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !created.ScheduledPayDate.Equal(created.Date.Time) {
		t.Errorf("bank debit should withdraw on its own date, got %s", created.ScheduledPayDate)
	}
}

func TestCreateTransactionUnknownAccount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewScheduleService(repo, &fakePublisher{})

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Amount:    core.Money{Amount: 100},
		Date:      date(t, "2025-02-15"),
		Kind:      core.KindCard,
		AccountID: "missing",
	})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestCreateTransactionSurvivesPublishFailure(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(t, repo)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewScheduleService(repo, pub)

	created, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Amount:    core.Money{Amount: 2500},
		Date:      date(t, "2025-02-15"),
		Kind:      core.KindCard,
		AccountID: "acct-a",
	})
	if err != nil {
		t.Fatalf("CreateTransaction should not fail on publish error: %v", err)
	}
	if _, err := repo.GetTransaction(context.Background(), created.ID); err != nil {
		t.Errorf("transaction should be stored despite publish failure: %v", err)
	}
}

func TestUpdateTransactionKeepsScheduledDate(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(t, repo)
	svc := NewScheduleService(repo, &fakePublisher{})

	created, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Amount:    core.Money{Amount: 2500},
		Date:      date(t, "2025-02-15"),
		Kind:      core.KindCard,
		AccountID: "acct-a",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := svc.UpdateTransaction(context.Background(), created.ID, core.Money{Amount: 9999}, "新店舗", "memo"); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	got, _ := repo.GetTransaction(context.Background(), created.ID)
	if got.Amount.Amount != 9999 || got.StoreName != "新店舗" {
		t.Errorf("details not updated: %+v", got)
	}
	if !got.ScheduledPayDate.Equal(created.ScheduledPayDate.Time) {
		t.Error("scheduled date must not change on detail edits")
	}
}

func TestMonthlyViewCachedPerVersion(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(t, repo)
	svc := NewScheduleService(repo, &fakePublisher{})
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		Amount:    core.Money{Amount: 2500},
		Date:      date(t, "2025-02-15"),
		Kind:      core.KindCard,
		AccountID: "acct-a",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	view, err := svc.MonthlyView(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("MonthlyView: %v", err)
	}
	if view.MonthTotal.Amount != 2500 {
		t.Fatalf("MonthTotal = %d", view.MonthTotal.Amount)
	}

	// A second write must be visible immediately: the version bump routes
	// the next lookup past the cached view.
	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		Amount:    core.Money{Amount: 1000},
		Date:      date(t, "2025-02-20"),
		Kind:      core.KindCard,
		AccountID: "acct-a",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	view, err = svc.MonthlyView(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("MonthlyView: %v", err)
	}
	if view.MonthTotal.Amount != 3500 {
		t.Errorf("MonthTotal after second write = %d, want 3500", view.MonthTotal.Amount)
	}
}

func TestCalendarMonthAgreesWithView(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(t, repo)
	svc := NewScheduleService(repo, &fakePublisher{})
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		Amount:    core.Money{Amount: 2500},
		Date:      date(t, "2025-02-15"),
		Kind:      core.KindCard,
		AccountID: "acct-a",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	days, err := svc.CalendarMonth(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("CalendarMonth: %v", err)
	}
	day, ok := days["2025-03-27"]
	if !ok {
		t.Fatalf("expected a day total on 2025-03-27, got keys %v", keys(days))
	}
	if day.ScheduleTotal.Amount != 2500 || !day.HasSchedule() {
		t.Errorf("day total = %+v", day)
	}
}

func keys(m map[string]schedule.DayTotal) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paysched/internal/cache"
	"paysched/internal/core"
	"paysched/internal/schedule"
)

// ScheduleService orchestrates transaction intake and the derived monthly
// views across SQLite, the read caches, and AMQP.
type ScheduleService struct {
	repo      Repository
	publisher ExportPublisher

	viewCache     *cache.LRUCache[schedule.MonthlyView]
	calendarCache *cache.LRUCache[map[string]schedule.DayTotal]
}

func NewScheduleService(repo Repository, publisher ExportPublisher) *ScheduleService {
	return &ScheduleService{
		repo:      repo,
		publisher: publisher,
		// A year of months is plenty; entries expire anyway and version-keyed
		// lookups make stale hits impossible.
		viewCache:     cache.NewLRUCache[schedule.MonthlyView](24, 10*time.Minute),
		calendarCache: cache.NewLRUCache[map[string]schedule.DayTotal](24, 10*time.Minute),
	}
}

// RegisterCaches adds the read caches to a cleanup manager.
func (s *ScheduleService) RegisterCaches(m *cache.Manager) {
	m.Register(s.viewCache)
	m.Register(s.calendarCache)
}

// --- banks ---

func (s *ScheduleService) CreateBank(ctx context.Context, name, memo string) (core.Bank, error) {
	b := core.Bank{ID: core.NewID(), Name: name, Memo: memo}
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	if err := s.repo.CreateBank(ctx, b); err != nil {
		return core.Bank{}, fmt.Errorf("save bank: %w", err)
	}
	return b, nil
}

func (s *ScheduleService) ListBanks(ctx context.Context) ([]core.Bank, error) {
	return s.repo.ListBanks(ctx)
}

func (s *ScheduleService) GetBank(ctx context.Context, id string) (core.Bank, error) {
	return s.repo.GetBank(ctx, id)
}

func (s *ScheduleService) DeleteBank(ctx context.Context, id string) error {
	return s.repo.DeleteBank(ctx, id)
}

// --- billing accounts ---

func (s *ScheduleService) CreateAccount(ctx context.Context, a core.BillingAccount) (core.BillingAccount, error) {
	a.ID = core.NewID()
	if err := a.Validate(); err != nil {
		return core.BillingAccount{}, err
	}
	if _, err := s.repo.GetBank(ctx, a.BankID); err != nil {
		return core.BillingAccount{}, fmt.Errorf("settlement bank %s: %w", a.BankID, err)
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return core.BillingAccount{}, fmt.Errorf("save billing account: %w", err)
	}
	return a, nil
}

func (s *ScheduleService) ListAccounts(ctx context.Context) ([]core.BillingAccount, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *ScheduleService) GetAccount(ctx context.Context, id string) (core.BillingAccount, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *ScheduleService) UpdateAccount(ctx context.Context, a core.BillingAccount) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetBank(ctx, a.BankID); err != nil {
		return fmt.Errorf("settlement bank %s: %w", a.BankID, err)
	}
	return s.repo.UpdateAccount(ctx, a)
}

func (s *ScheduleService) DeleteAccount(ctx context.Context, id string) error {
	return s.repo.DeleteAccount(ctx, id)
}

// --- transactions ---

// CreateTransaction validates the input, resolves the scheduled withdrawal
// date once, and stores the transaction. The scheduled date never changes
// after this point; only the audit apply step may rewrite it.
func (s *ScheduleService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = core.NewID()

	switch t.Kind {
	case core.KindCard:
		account, err := s.repo.GetAccount(ctx, t.AccountID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("billing account %s: %w", t.AccountID, err)
		}
		t.BankID = ""
		t.ScheduledPayDate = schedule.PayDate(t, &account)
	case core.KindBank:
		if _, err := s.repo.GetBank(ctx, t.BankID); err != nil {
			return core.Transaction{}, fmt.Errorf("bank %s: %w", t.BankID, err)
		}
		t.AccountID = ""
		t.ScheduledPayDate = schedule.PayDate(t, nil)
	default:
		return core.Transaction{}, core.ErrInvalidKind
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	// Re-export is best-effort: the transaction is already durable and the
	// periodic worker pass will catch up if publishing fails here.
	s.requestExport(ctx, t.ScheduledPayDate.Year(), t.ScheduledPayDate.Month())

	return t, nil
}

func (s *ScheduleService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *ScheduleService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// ListTransactionsForMonth filters by withdrawal month ("scheduled", the
// default) or by transaction-date month ("transaction").
func (s *ScheduleService) ListTransactionsForMonth(ctx context.Context, year, month int, basis string) ([]core.Transaction, error) {
	switch basis {
	case "", "scheduled":
		return s.repo.ListTransactionsByScheduledMonth(ctx, year, month)
	case "transaction":
		return s.repo.ListTransactionsByMonth(ctx, year, month)
	default:
		return nil, fmt.Errorf("unknown basis %q", basis)
	}
}

// UpdateTransaction edits amount, store name, and memo. Date, kind, payer,
// and scheduled date are immutable.
func (s *ScheduleService) UpdateTransaction(ctx context.Context, id string, amount core.Money, storeName, memo string) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateTransactionDetails(ctx, id, amount, storeName, memo); err != nil {
		return err
	}

	if t, err := s.repo.GetTransaction(ctx, id); err == nil {
		s.requestExport(ctx, t.ScheduledPayDate.Year(), t.ScheduledPayDate.Month())
	}
	return nil
}

func (s *ScheduleService) DeleteTransaction(ctx context.Context, id string) error {
	t, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.requestExport(ctx, t.ScheduledPayDate.Year(), t.ScheduledPayDate.Month())
	return nil
}

// --- derived views ---

// MonthlyView returns the withdrawal cross-table for (year, month). Results
// are cached under a version-stamped key: any write bumps the dataset
// version, so stale entries are simply never looked up again.
func (s *ScheduleService) MonthlyView(ctx context.Context, year, month int) (schedule.MonthlyView, error) {
	version, err := s.repo.DataVersion(ctx)
	if err != nil {
		return schedule.MonthlyView{}, err
	}

	key := cache.MonthKey("schedule", year, month, version)
	if view, ok := s.viewCache.Get(key); ok {
		return view, nil
	}

	txs, err := s.repo.ListTransactionsByScheduledMonth(ctx, year, month)
	if err != nil {
		return schedule.MonthlyView{}, fmt.Errorf("load scheduled transactions: %w", err)
	}
	banks, accounts, err := s.loadConfig(ctx)
	if err != nil {
		return schedule.MonthlyView{}, err
	}

	view := schedule.BuildMonthlyView(txs, banks, accounts, year, month)
	s.viewCache.Set(key, view)

	slog.DebugContext(ctx, "Built monthly view",
		"year", year,
		"month", month,
		"entries", len(view.Entries),
		"data_version", version)

	return view, nil
}

// CalendarMonth returns per-day totals for (year, month): transactions on
// their own dates plus scheduled withdrawals falling in the month.
func (s *ScheduleService) CalendarMonth(ctx context.Context, year, month int) (map[string]schedule.DayTotal, error) {
	version, err := s.repo.DataVersion(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.MonthKey("calendar", year, month, version)
	if days, ok := s.calendarCache.Get(key); ok {
		return days, nil
	}

	view, err := s.MonthlyView(ctx, year, month)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactionsByMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("load dated transactions: %w", err)
	}
	banks, accounts, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	days := schedule.BuildDayTotals(txs, view.Entries, banks, accounts)
	s.calendarCache.Set(key, days)

	return days, nil
}

// RequestExport publishes a re-export request for the given month.
func (s *ScheduleService) RequestExport(ctx context.Context, year, month int) error {
	if s.publisher == nil {
		return fmt.Errorf("export publisher not configured")
	}
	return s.publisher.PublishExportRequest(ctx, year, month)
}

func (s *ScheduleService) requestExport(ctx context.Context, year, month int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExportRequest(ctx, year, month); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export request",
			"year", year,
			"month", month,
			"error", err)
	}
}

func (s *ScheduleService) loadConfig(ctx context.Context) ([]core.Bank, []core.BillingAccount, error) {
	banks, err := s.repo.ListBanks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load banks: %w", err)
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load billing accounts: %w", err)
	}
	return banks, accounts, nil
}

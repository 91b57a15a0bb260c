// Package storage persists banks, billing accounts, and transactions in
// SQLite and maintains the dataset version the read-path caches key on.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paysched/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DataVersion returns the monotonically increasing dataset version. Every
// write bumps it, so it serves as the invalidation signal for all derived
// (cached) views.
func (r *SQLiteRepository) DataVersion(ctx context.Context) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'data_version'`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read data version: %w", err)
	}
	return version, nil
}

// write runs fn inside a transaction and bumps the dataset version with it.
func (r *SQLiteRepository) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = value + 1 WHERE key = 'data_version'`); err != nil {
		return fmt.Errorf("bump data version: %w", err)
	}
	return tx.Commit()
}

// --- banks ---

func (r *SQLiteRepository) CreateBank(ctx context.Context, b core.Bank) error {
	err := r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO banks (id, name, memo) VALUES (?, ?, ?)`,
			b.ID, b.Name, b.Memo)
		if err != nil {
			return fmt.Errorf("insert bank: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Bank saved", "bank_id", b.ID, "name", b.Name)
	return nil
}

func (r *SQLiteRepository) ListBanks(ctx context.Context) ([]core.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, memo FROM banks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	var banks []core.Bank
	for rows.Next() {
		var b core.Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.Memo); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (r *SQLiteRepository) GetBank(ctx context.Context, id string) (core.Bank, error) {
	var b core.Bank
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, memo FROM banks WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Memo)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bank{}, ErrNotFound
	}
	if err != nil {
		return core.Bank{}, fmt.Errorf("get bank: %w", err)
	}
	return b, nil
}

// DeleteBank removes a bank. Historical transactions referencing it are kept;
// the aggregators skip the dangling reference at read time.
func (r *SQLiteRepository) DeleteBank(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM banks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete bank: %w", err)
		}
		return requireAffected(res)
	})
}

// --- billing accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.BillingAccount) error {
	err := r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO billing_accounts
			 (id, bank_id, name, closing_day, payment_day, payment_month_shift, weekend_adjustment)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.BankID, a.Name, a.ClosingDay.String(), a.PaymentDay.String(),
			a.PaymentMonthShift, boolToInt(a.WeekendAdjustment))
		if err != nil {
			return fmt.Errorf("insert billing account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Billing account saved",
		"account_id", a.ID,
		"name", a.Name,
		"closing_day", a.ClosingDay.String(),
		"payment_day", a.PaymentDay.String())
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.BillingAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, bank_id, name, closing_day, payment_day, payment_month_shift, weekend_adjustment
		 FROM billing_accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list billing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.BillingAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.BillingAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, bank_id, name, closing_day, payment_day, payment_month_shift, weekend_adjustment
		 FROM billing_accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BillingAccount{}, ErrNotFound
	}
	if err != nil {
		return core.BillingAccount{}, err
	}
	return a, nil
}

// UpdateAccount rewrites an account's configuration. Scheduled dates of
// existing transactions are deliberately untouched: repairs happen only
// through the explicit audit apply step.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.BillingAccount) error {
	err := r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE billing_accounts
			 SET bank_id = ?, name = ?, closing_day = ?, payment_day = ?,
			     payment_month_shift = ?, weekend_adjustment = ?
			 WHERE id = ?`,
			a.BankID, a.Name, a.ClosingDay.String(), a.PaymentDay.String(),
			a.PaymentMonthShift, boolToInt(a.WeekendAdjustment), a.ID)
		if err != nil {
			return fmt.Errorf("update billing account: %w", err)
		}
		return requireAffected(res)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Billing account updated", "account_id", a.ID, "name", a.Name)
	return nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM billing_accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete billing account: %w", err)
		}
		return requireAffected(res)
	})
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions
			 (id, amount, date, kind, account_id, bank_id, scheduled_pay_date, store_name, memo)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Amount.Amount, t.Date.String(), string(t.Kind),
			nullable(t.AccountID), nullable(t.BankID),
			t.ScheduledPayDate.String(), t.StoreName, t.Memo)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"kind", string(t.Kind),
		"amount", t.Amount.Amount,
		"date", t.Date.String(),
		"scheduled_date", t.ScheduledPayDate.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// UpdateTransactionDetails edits the mutable fields of a transaction. The
// scheduled pay date is immutable after creation, so it is not part of the
// statement.
func (r *SQLiteRepository) UpdateTransactionDetails(ctx context.Context, id string, amount core.Money, storeName, memo string) error {
	err := r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET amount = ?, store_name = ?, memo = ? WHERE id = ?`,
			amount.Amount, storeName, memo, id)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return requireAffected(res)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id, "amount", amount.Amount)
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return requireAffected(res)
	})
}

// ListTransactions returns every stored transaction, oldest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, selectTransaction+` ORDER BY date, created_at, id`)
}

// ListTransactionsByScheduledMonth returns transactions withdrawn in the
// given month.
func (r *SQLiteRepository) ListTransactionsByScheduledMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from, to := monthBounds(year, month)
	return r.queryTransactions(ctx,
		selectTransaction+` WHERE scheduled_pay_date >= ? AND scheduled_pay_date < ? ORDER BY scheduled_pay_date, created_at, id`,
		from, to)
}

// ListTransactionsByMonth returns transactions dated in the given month.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from, to := monthBounds(year, month)
	return r.queryTransactions(ctx,
		selectTransaction+` WHERE date >= ? AND date < ? ORDER BY date, created_at, id`,
		from, to)
}

// UpdateScheduledDates rewrites the scheduled pay dates of the given
// transactions in one transaction. This is the only way a stored scheduled
// date ever changes, and it is driven by the operator-approved audit repair.
func (r *SQLiteRepository) UpdateScheduledDates(ctx context.Context, dates map[string]core.Date) error {
	if len(dates) == 0 {
		return nil
	}
	err := r.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE transactions SET scheduled_pay_date = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare scheduled date update: %w", err)
		}
		defer stmt.Close()

		for id, date := range dates {
			if _, err := stmt.ExecContext(ctx, date.String(), id); err != nil {
				return fmt.Errorf("update scheduled date for %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Scheduled dates rewritten", "count", len(dates))
	return nil
}

// --- helpers ---

const selectTransaction = `SELECT id, amount, date, kind, account_id, bank_id, scheduled_pay_date, store_name, memo FROM transactions`

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.BillingAccount, error) {
	var (
		a                core.BillingAccount
		closing, payment string
		weekendAdj       int
	)
	err := row.Scan(&a.ID, &a.BankID, &a.Name, &closing, &payment, &a.PaymentMonthShift, &weekendAdj)
	if err != nil {
		return core.BillingAccount{}, err
	}
	if a.ClosingDay, err = core.ParseDayRule(closing); err != nil {
		return core.BillingAccount{}, fmt.Errorf("account %s closing day %q: %w", a.ID, closing, err)
	}
	if a.PaymentDay, err = core.ParseDayRule(payment); err != nil {
		return core.BillingAccount{}, fmt.Errorf("account %s payment day %q: %w", a.ID, payment, err)
	}
	a.WeekendAdjustment = weekendAdj != 0
	return a, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                 core.Transaction
		kind              string
		date, scheduled   string
		accountID, bankID sql.NullString
	)
	err := row.Scan(&t.ID, &t.Amount.Amount, &date, &kind, &accountID, &bankID, &scheduled, &t.StoreName, &t.Memo)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.PaymentKind(kind)
	t.AccountID = accountID.String
	t.BankID = bankID.String
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
	}
	if t.ScheduledPayDate, err = core.ParseDate(scheduled); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s scheduled date %q: %w", t.ID, scheduled, err)
	}
	return t, nil
}

// monthBounds returns the half-open YYYY-MM-DD range covering a month.
func monthBounds(year, month int) (from, to string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Format("2006-01-02"), start.AddDate(0, 1, 0).Format("2006-01-02")
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

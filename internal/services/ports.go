package services

import (
	"context"

	"paysched/internal/core"
)

// Repository is the persistence surface the services need. Implemented by
// storage.SQLiteRepository; tests substitute in-memory fakes.
type Repository interface {
	DataVersion(ctx context.Context) (int64, error)

	CreateBank(ctx context.Context, b core.Bank) error
	ListBanks(ctx context.Context) ([]core.Bank, error)
	GetBank(ctx context.Context, id string) (core.Bank, error)
	DeleteBank(ctx context.Context, id string) error

	CreateAccount(ctx context.Context, a core.BillingAccount) error
	ListAccounts(ctx context.Context) ([]core.BillingAccount, error)
	GetAccount(ctx context.Context, id string) (core.BillingAccount, error)
	UpdateAccount(ctx context.Context, a core.BillingAccount) error
	DeleteAccount(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransactionDetails(ctx context.Context, id string, amount core.Money, storeName, memo string) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListTransactionsByScheduledMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
	UpdateScheduledDates(ctx context.Context, dates map[string]core.Date) error
}

// ExportPublisher asks the worker to re-export a withdrawal month.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, year, month int) error
}

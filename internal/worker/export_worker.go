// Package worker rebuilds monthly withdrawal views from storage and pushes
// them to the configured export destination.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paysched/internal/amqp"
	"paysched/internal/core"
	"paysched/internal/export"
	"paysched/internal/schedule"
)

// Store is the storage surface the worker reads from.
type Store interface {
	ListTransactionsByScheduledMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
	ListBanks(ctx context.Context) ([]core.Bank, error)
	ListAccounts(ctx context.Context) ([]core.BillingAccount, error)
}

// ExportWorker consumes export requests and rewrites the requested month in
// the export destination. Exports are idempotent, so duplicate or requeued
// messages are harmless.
type ExportWorker struct {
	store    Store
	exporter export.ScheduleExporter
}

func NewExportWorker(store Store, exporter export.ScheduleExporter) *ExportWorker {
	return &ExportWorker{
		store:    store,
		exporter: exporter,
	}
}

// HandleExportRequest processes a single export request from AMQP.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	if msg.Month < 1 || msg.Month > 12 {
		// Malformed months must not requeue forever.
		slog.WarnContext(ctx, "Dropping export request with invalid month",
			"year", msg.Year,
			"month", msg.Month)
		return nil
	}
	return w.ExportMonth(ctx, msg.Year, msg.Month)
}

// ExportMonth rebuilds the view for (year, month) from storage and exports it.
func (w *ExportWorker) ExportMonth(ctx context.Context, year, month int) error {
	txs, err := w.store.ListTransactionsByScheduledMonth(ctx, year, month)
	if err != nil {
		return fmt.Errorf("load scheduled transactions: %w", err)
	}
	banks, err := w.store.ListBanks(ctx)
	if err != nil {
		return fmt.Errorf("load banks: %w", err)
	}
	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("load billing accounts: %w", err)
	}

	view := schedule.BuildMonthlyView(txs, banks, accounts, year, month)

	ref, err := w.exporter.ExportMonthlyView(ctx, view)
	if err != nil {
		return fmt.Errorf("export monthly view: %w", err)
	}

	slog.InfoContext(ctx, "Exported month",
		"year", year,
		"month", month,
		"entries", len(view.Entries),
		"total", view.MonthTotal.Amount,
		"range", ref)

	return nil
}

// ExportUpcomingMonths re-exports the current withdrawal month and the two
// following ones. Payment month shifts reach at most two months ahead, so
// this window covers every month a new transaction can land in.
func (w *ExportWorker) ExportUpcomingMonths(ctx context.Context) error {
	now := time.Now()
	for i := 0; i < 3; i++ {
		m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		if err := w.ExportMonth(ctx, m.Year(), int(m.Month())); err != nil {
			return fmt.Errorf("export %d-%02d: %w", m.Year(), int(m.Month()), err)
		}
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"paysched/internal/core"
	"paysched/internal/schedule"
)

// AuditService runs the configuration audit over stored data. Analysis,
// recommendation, and validation are read-only; ApplyFixes is the single
// write path and the only operation anywhere that rewrites stored
// scheduled dates.
type AuditService struct {
	repo Repository
}

func NewAuditService(repo Repository) *AuditService {
	return &AuditService{repo: repo}
}

// ApplyResult summarizes what an apply run changed.
type ApplyResult struct {
	UpdatedAccounts        []string             `json:"updatedAccounts"`
	RewrittenTransactions  int                  `json:"rewrittenTransactions"`
	RescheduledTransaction map[string]core.Date `json:"rescheduledTransactions"`
}

func (s *AuditService) Analyze(ctx context.Context) (schedule.Report, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return schedule.Report{}, fmt.Errorf("load billing accounts: %w", err)
	}
	return schedule.Analyze(accounts), nil
}

func (s *AuditService) RecommendFixes(ctx context.Context) ([]schedule.Fix, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load billing accounts: %w", err)
	}
	return schedule.RecommendFixes(accounts), nil
}

// AffectedTransactions previews the scheduled-date shifts the given fixes
// would cause, without writing anything.
func (s *AuditService) AffectedTransactions(ctx context.Context, fixes []schedule.Fix) ([]schedule.AffectedTransaction, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load billing accounts: %w", err)
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return schedule.AffectedTransactions(txs, fixes, accounts), nil
}

func (s *AuditService) ValidateFixes(ctx context.Context, fixes []schedule.Fix) (schedule.Validation, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return schedule.Validation{}, fmt.Errorf("load billing accounts: %w", err)
	}
	return schedule.ValidateFixes(fixes, accounts), nil
}

// ApplyFixes validates and applies the given fixes to the stored account
// configurations. When rewriteSchedules is set, the scheduled dates of the
// affected card transactions are recalculated under the new settings and
// rewritten in one storage transaction.
func (s *AuditService) ApplyFixes(ctx context.Context, fixes []schedule.Fix, rewriteSchedules bool) (ApplyResult, error) {
	if len(fixes) == 0 {
		return ApplyResult{}, fmt.Errorf("no fixes to apply")
	}

	validation, err := s.ValidateFixes(ctx, fixes)
	if err != nil {
		return ApplyResult{}, err
	}
	if !validation.IsValid {
		return ApplyResult{}, fmt.Errorf("fixes rejected: %s", strings.Join(validation.Errors, "; "))
	}
	for _, w := range validation.Warnings {
		slog.WarnContext(ctx, "Applying fix with warning", "warning", w)
	}

	// Preview first: the recalculation must run against the settings as
	// proposed, before any account row changes.
	var affected []schedule.AffectedTransaction
	if rewriteSchedules {
		affected, err = s.AffectedTransactions(ctx, fixes)
		if err != nil {
			return ApplyResult{}, err
		}
	}

	result := ApplyResult{RescheduledTransaction: map[string]core.Date{}}
	for _, fix := range fixes {
		account, err := s.repo.GetAccount(ctx, fix.AccountID)
		if err != nil {
			return result, fmt.Errorf("billing account %s: %w", fix.AccountID, err)
		}
		account.ClosingDay = fix.Recommended.ClosingDay
		account.PaymentDay = fix.Recommended.PaymentDay
		account.PaymentMonthShift = fix.Recommended.PaymentMonthShift
		account.WeekendAdjustment = fix.Recommended.WeekendAdjustment

		if err := s.repo.UpdateAccount(ctx, account); err != nil {
			return result, fmt.Errorf("update billing account %s: %w", fix.AccountID, err)
		}
		result.UpdatedAccounts = append(result.UpdatedAccounts, fix.AccountID)

		slog.InfoContext(ctx, "Applied configuration fix",
			"account_id", fix.AccountID,
			"weekend_adjustment", account.WeekendAdjustment)
	}

	if rewriteSchedules {
		dates := make(map[string]core.Date, len(affected))
		for _, a := range affected {
			if a.DayDifference == 0 {
				continue
			}
			dates[a.TransactionID] = a.RecalculatedDate
		}
		if err := s.repo.UpdateScheduledDates(ctx, dates); err != nil {
			return result, fmt.Errorf("rewrite scheduled dates: %w", err)
		}
		result.RewrittenTransactions = len(dates)
		result.RescheduledTransaction = dates
	}

	slog.InfoContext(ctx, "Audit fixes applied",
		"accounts", len(result.UpdatedAccounts),
		"rescheduled", result.RewrittenTransactions)

	return result, nil
}

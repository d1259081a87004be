package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// TransactionAppender is the slice of the session the processor needs:
// something that takes a materialized transaction into the table.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) (core.Transaction, error)
}

// RecurringProcessor turns due recurrence rules into ordinary transactions.
type RecurringProcessor struct {
	storage  *storage.SQLiteRepository
	appender TransactionAppender
}

// NewRecurringProcessor creates a new recurrence rule processor
func NewRecurringProcessor(storage *storage.SQLiteRepository, appender TransactionAppender) *RecurringProcessor {
	return &RecurringProcessor{
		storage:  storage,
		appender: appender,
	}
}

// ProcessDueRules applies every active rule that is due at the given time.
// Each due rule becomes one appended transaction; a rule that fails to
// append is left unmarked so the next run retries it.
func (p *RecurringProcessor) ProcessDueRules(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.appender == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	rules, err := p.storage.ActiveRules(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to get active recurrence rules: %w", err)
	}

	slog.InfoContext(ctx, "processing recurrence rules",
		"total_active", len(rules),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0

	for _, stored := range rules {
		rule := stored.Rule

		checker, err := GetDuenessChecker(rule.Every)
		if err != nil {
			slog.ErrorContext(ctx, "rule has an unknown cadence",
				"rule_id", rule.ID,
				"every", rule.Every,
				"error", err)
			continue
		}

		if !checker.IsDue(stored.LastApplied, now, rule.StartDate) {
			continue
		}

		txn := core.Transaction{
			Date:        core.NewDate(now.Year(), int(now.Month()), now.Day()),
			Kind:        core.KindOf(rule.Value),
			Category:    rule.Category,
			Value:       rule.Value,
			Description: rule.Description,
			CostCenter:  rule.CostCenter,
		}

		created, err := p.appender.Append(ctx, txn)
		if err != nil {
			slog.ErrorContext(ctx, "failed to append transaction from rule",
				"rule_id", rule.ID,
				"description", rule.Description,
				"error", err)
			continue
		}

		if err := p.storage.MarkRuleApplied(ctx, rule.ID, now); err != nil {
			// The transaction exists, so keep going. Worst case the rule
			// fires again and the duplicate is removed by hand.
			slog.ErrorContext(ctx, "failed to update last applied date",
				"rule_id", rule.ID,
				"error", err)
		}

		processedCount++
		slog.InfoContext(ctx, "created transaction from recurrence rule",
			"rule_id", rule.ID,
			"transaction_id", created.ID,
			"description", rule.Description,
			"value", rule.Value.String(),
			"every", rule.Every)
	}

	slog.InfoContext(ctx, "recurrence rule processing complete",
		"processed", processedCount,
		"total_checked", len(rules))

	return processedCount, nil
}

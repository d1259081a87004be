package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

type fakeAppender struct {
	rows []core.Transaction
	err  error
}

func (a *fakeAppender) Append(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if a.err != nil {
		return core.Transaction{}, a.err
	}
	tx.ID = fmt.Sprintf("txn-%d", len(a.rows)+1)
	a.rows = append(a.rows, tx)
	return tx, nil
}

func testRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "rules.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rehearsalRoomRule() core.RecurrenceRule {
	return core.RecurrenceRule{
		StartDate:   core.NewDate(2024, 1, 5),
		Every:       core.Monthly,
		Description: "Sala de ensaio",
		Category:    "Estrutura",
		Value:       decimal.NewFromInt(-350),
		CostCenter:  "Banda",
	}
}

func TestProcessDueRulesMaterializesTransaction(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	appender := &fakeAppender{}
	processor := NewRecurringProcessor(repo, appender)

	id, err := repo.CreateRule(ctx, rehearsalRoomRule())
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	n, err := processor.ProcessDueRules(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 processed rule, got %d", n)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("expected 1 appended transaction, got %d", len(appender.rows))
	}
	tx := appender.rows[0]
	if !tx.Date.Equal(core.NewDate(2024, 3, 10).Time) {
		t.Errorf("expected transaction dated 2024-03-10, got %s", tx.Date.ISO())
	}
	if tx.Kind != core.KindExpense {
		t.Errorf("expected despesa, got %s", tx.Kind)
	}
	if !tx.Value.Equal(decimal.NewFromInt(-350)) {
		t.Errorf("expected value -350, got %s", tx.Value)
	}
	if tx.Description != "Sala de ensaio" || tx.Category != "Estrutura" || tx.CostCenter != "Banda" {
		t.Errorf("rule fields not carried over: %+v", tx)
	}

	stored, err := repo.GetRule(ctx, id)
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	if !stored.LastApplied.Equal(now) {
		t.Errorf("expected last applied %s, got %s", now, stored.LastApplied)
	}

	// Same month again: nothing is due.
	n, err = processor.ProcessDueRules(ctx, now.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if n != 0 || len(appender.rows) != 1 {
		t.Fatalf("rule fired twice in one month: processed %d, rows %d", n, len(appender.rows))
	}

	// Next month on the target day it fires again.
	n, err = processor.ProcessDueRules(ctx, time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if n != 1 || len(appender.rows) != 2 {
		t.Fatalf("expected the rule to fire next month: processed %d, rows %d", n, len(appender.rows))
	}
}

func TestProcessDueRulesRetriesFailedAppend(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	appender := &fakeAppender{err: errors.New("table unavailable")}
	processor := NewRecurringProcessor(repo, appender)

	id, err := repo.CreateRule(ctx, rehearsalRoomRule())
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	n, err := processor.ProcessDueRules(ctx, now)
	if err != nil {
		t.Fatalf("a failing append must not abort the run: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 processed rules, got %d", n)
	}

	stored, err := repo.GetRule(ctx, id)
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	if !stored.LastApplied.IsZero() {
		t.Fatalf("failed rules must stay unmarked, got last applied %s", stored.LastApplied)
	}

	// The next run picks the rule up again.
	appender.err = nil
	n, err = processor.ProcessDueRules(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if n != 1 || len(appender.rows) != 1 {
		t.Fatalf("expected the retry to materialize the rule: processed %d, rows %d", n, len(appender.rows))
	}
}

func TestProcessDueRulesHonorsRuleWindow(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	appender := &fakeAppender{}
	processor := NewRecurringProcessor(repo, appender)

	ended := rehearsalRoomRule()
	ended.EndDate = core.NewDate(2024, 2, 1)
	if _, err := repo.CreateRule(ctx, ended); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	future := rehearsalRoomRule()
	future.StartDate = core.NewDate(2024, 6, 1)
	future.Description = "Armário no estúdio"
	if _, err := repo.CreateRule(ctx, future); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	n, err := processor.ProcessDueRules(ctx, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if n != 0 || len(appender.rows) != 0 {
		t.Fatalf("rules outside their window must not fire: processed %d, rows %d", n, len(appender.rows))
	}
}

func TestProcessDueRulesUninitialized(t *testing.T) {
	processor := NewRecurringProcessor(nil, nil)
	if _, err := processor.ProcessDueRules(context.Background(), time.Now()); err == nil {
		t.Fatal("expected an error from an uninitialized processor")
	}
}

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

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been saved
// yet, so callers can tell a fresh database from a failed read.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SQLiteRepository persists the last-known transaction table, the
// recurrence rules and the push bookkeeping. The snapshot is what a
// session falls back to when the remote sheet is unreachable.
type SQLiteRepository struct {
	db *sql.DB
}

// SnapshotMeta describes the stored table.
type SnapshotMeta struct {
	Version int64
	SavedAt time.Time
}

// StoredRule is a recurrence rule plus its processing bookkeeping.
type StoredRule struct {
	Rule        core.RecurrenceRule
	LastApplied time.Time
	CreatedAt   time.Time
}

// SyncState records the last table version pushed to the remote sheet.
type SyncState struct {
	PushedVersion int64
	PushedAt      time.Time
	LastError     string
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

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSnapshot replaces the stored table wholesale. Row order is
// preserved so a reloaded table looks exactly like the one saved.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, rows []core.Transaction, version int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_rows`); err != nil {
		return fmt.Errorf("clear snapshot rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_rows (position, id, event_date, kind, category, value, description, cost_center)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range rows {
		_, err := stmt.ExecContext(ctx, i, t.ID, t.Date.ISO(), string(t.Kind), t.Category,
			t.Value.String(), t.Description, t.CostCenter)
		if err != nil {
			return fmt.Errorf("insert snapshot row %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, version, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, saved_at = excluded.saved_at`,
		version, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("update snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "snapshot saved", "rows", len(rows), "version", version)
	return nil
}

// SnapshotInfo returns the stored table's metadata without loading the
// rows, or ErrNoSnapshot when nothing has been saved yet.
func (r *SQLiteRepository) SnapshotInfo(ctx context.Context) (SnapshotMeta, error) {
	var (
		meta    SnapshotMeta
		savedAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT version, saved_at FROM snapshot_meta WHERE id = 1`).
		Scan(&meta.Version, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotMeta{}, ErrNoSnapshot
	}
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("read snapshot meta: %w", err)
	}
	if meta.SavedAt, err = time.Parse(time.RFC3339, savedAt); err != nil {
		return SnapshotMeta{}, fmt.Errorf("parse snapshot timestamp: %w", err)
	}
	return meta, nil
}

// LoadSnapshot returns the stored table and its metadata, or
// ErrNoSnapshot when nothing has been saved yet.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) ([]core.Transaction, SnapshotMeta, error) {
	meta, err := r.SnapshotInfo(ctx)
	if err != nil {
		return nil, SnapshotMeta{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_date, kind, category, value, description, cost_center
		FROM snapshot_rows ORDER BY position`)
	if err != nil {
		return nil, SnapshotMeta{}, fmt.Errorf("read snapshot rows: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var id, eventDate, kind, category, value, description, costCenter string
		if err := rows.Scan(&id, &eventDate, &kind, &category, &value, &description, &costCenter); err != nil {
			return nil, SnapshotMeta{}, fmt.Errorf("scan snapshot row: %w", err)
		}
		t, err := transactionFromColumns(id, eventDate, kind, category, value, description, costCenter)
		if err != nil {
			return nil, SnapshotMeta{}, fmt.Errorf("snapshot row %s: %w", id, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, SnapshotMeta{}, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return out, meta, nil
}

// transactionFromColumns rebuilds a row from its stored form. Stored
// rows were validated before saving, so a parse failure here means the
// database was edited by hand and is surfaced as an error.
func transactionFromColumns(id, eventDate, kind, category, value, description, costCenter string) (core.Transaction, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("value %q: %w", value, err)
	}
	d, err := core.ParseDate(eventDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", eventDate, err)
	}
	return core.Transaction{
		ID:          id,
		Date:        d,
		Kind:        core.Kind(kind),
		Category:    category,
		Value:       v,
		Description: description,
		CostCenter:  costCenter,
	}, nil
}

// CreateRule stores a recurrence rule and returns its assigned ID.
func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurrenceRule) (int64, error) {
	if err := rule.Validate(); err != nil {
		return 0, fmt.Errorf("validate rule: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurrence_rules (start_date, end_date, every, description, category, value, cost_center, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.StartDate.ISO(), rule.EndDate.ISO(), string(rule.Every), rule.Description,
		rule.Category, rule.Value.String(), rule.CostCenter,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("rule id: %w", err)
	}

	slog.InfoContext(ctx, "recurrence rule created",
		"id", id, "every", rule.Every, "description", rule.Description)
	return id, nil
}

// ListRules returns every stored rule.
func (r *SQLiteRepository) ListRules(ctx context.Context) ([]StoredRule, error) {
	return r.queryRules(ctx, `
		SELECT id, start_date, end_date, every, description, category, value, cost_center, last_applied, created_at
		FROM recurrence_rules ORDER BY id`)
}

// ActiveRules returns the rules whose window covers the given day.
// Dates are stored ISO so string comparison orders correctly.
func (r *SQLiteRepository) ActiveRules(ctx context.Context, now time.Time) ([]StoredRule, error) {
	day := now.UTC().Format("2006-01-02")
	return r.queryRules(ctx, `
		SELECT id, start_date, end_date, every, description, category, value, cost_center, last_applied, created_at
		FROM recurrence_rules
		WHERE start_date <= ? AND (end_date = '' OR end_date >= ?)
		ORDER BY id`, day, day)
}

func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]StoredRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []StoredRule
	for rows.Next() {
		var (
			sr                            StoredRule
			startDate, endDate, every     string
			value, lastApplied, createdAt string
		)
		err := rows.Scan(&sr.Rule.ID, &startDate, &endDate, &every, &sr.Rule.Description,
			&sr.Rule.Category, &value, &sr.Rule.CostCenter, &lastApplied, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if sr.Rule.StartDate, err = core.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("rule %d start date: %w", sr.Rule.ID, err)
		}
		if sr.Rule.EndDate, err = core.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("rule %d end date: %w", sr.Rule.ID, err)
		}
		sr.Rule.Every = core.Repetition(every)
		if sr.Rule.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("rule %d value: %w", sr.Rule.ID, err)
		}
		if lastApplied != "" {
			if sr.LastApplied, err = time.Parse(time.RFC3339, lastApplied); err != nil {
				return nil, fmt.Errorf("rule %d last applied: %w", sr.Rule.ID, err)
			}
		}
		if sr.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("rule %d created at: %w", sr.Rule.ID, err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

// GetRule returns one rule by ID.
func (r *SQLiteRepository) GetRule(ctx context.Context, id int64) (StoredRule, error) {
	rules, err := r.queryRules(ctx, `
		SELECT id, start_date, end_date, every, description, category, value, cost_center, last_applied, created_at
		FROM recurrence_rules WHERE id = ?`, id)
	if err != nil {
		return StoredRule{}, err
	}
	if len(rules) == 0 {
		return StoredRule{}, fmt.Errorf("rule %d: %w", id, sql.ErrNoRows)
	}
	return rules[0], nil
}

// DeleteRule removes a rule. Deleting an unknown ID is not an error.
func (r *SQLiteRepository) DeleteRule(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recurrence_rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete rule %d: %w", id, err)
	}
	return nil
}

// MarkRuleApplied records that the rule materialized a transaction.
func (r *SQLiteRepository) MarkRuleApplied(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE recurrence_rules SET last_applied = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark rule %d applied: %w", id, err)
	}
	return nil
}

// SyncState returns the push bookkeeping. A missing row means nothing
// was ever pushed and comes back as the zero state.
func (r *SQLiteRepository) SyncState(ctx context.Context) (SyncState, error) {
	var (
		st       SyncState
		pushedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT pushed_version, pushed_at, last_error FROM sync_state WHERE id = 1`).
		Scan(&st.PushedVersion, &pushedAt, &st.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{}, nil
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("read sync state: %w", err)
	}
	if pushedAt != "" {
		if st.PushedAt, err = time.Parse(time.RFC3339, pushedAt); err != nil {
			return SyncState{}, fmt.Errorf("parse pushed_at: %w", err)
		}
	}
	return st, nil
}

// MarkPushed records a successful push of the given table version and
// clears any previous error.
func (r *SQLiteRepository) MarkPushed(ctx context.Context, version int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, pushed_version, pushed_at, last_error) VALUES (1, ?, ?, '')
		ON CONFLICT(id) DO UPDATE SET pushed_version = excluded.pushed_version,
			pushed_at = excluded.pushed_at, last_error = ''`,
		version, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mark pushed: %w", err)
	}
	slog.InfoContext(ctx, "push recorded", "version", version)
	return nil
}

// MarkPushError records a failed push attempt without touching the last
// successfully pushed version.
func (r *SQLiteRepository) MarkPushError(ctx context.Context, msg string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, pushed_version, pushed_at, last_error) VALUES (1, 0, '', ?)
		ON CONFLICT(id) DO UPDATE SET last_error = excluded.last_error`, msg)
	if err != nil {
		return fmt.Errorf("mark push error: %w", err)
	}
	slog.WarnContext(ctx, "push failure recorded", "error", msg)
	return nil
}

// Package ledger holds the canonical in-memory transaction table for a
// session. The table is rebuilt wholesale on load and mutated only
// through single-row append, replace and remove; callers aggregate over
// lazy views that never copy row data.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
)

var ErrNotFound = errors.New("transaction not found")

// RejectedRow records one row that failed validation during a load,
// kept with its reason for the caller's report.
type RejectedRow struct {
	Index  int // position in the submitted batch, 0-based
	Row    core.Transaction
	Reason string
}

// LoadReport summarizes a wholesale load: how many rows were accepted
// and which were rejected.
type LoadReport struct {
	Accepted int
	Rejected []RejectedRow
}

// Table owns the session's transactions. It is not synchronized; the
// session is the single mutator and serializes access.
type Table struct {
	rows    []core.Transaction
	version uint64
}

func NewTable() *Table {
	return &Table{}
}

// Load replaces the table contents. Each row is validated; failures go
// to the report instead of aborting the load. Rows without an ID get a
// fresh one.
func (t *Table) Load(rows []core.Transaction) LoadReport {
	report := LoadReport{}
	next := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			report.Rejected = append(report.Rejected, RejectedRow{Index: i, Row: row, Reason: err.Error()})
			continue
		}
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		next = append(next, row)
	}
	report.Accepted = len(next)
	t.rows = next
	t.version++
	return report
}

// Append validates and stores a single row, assigning it a fresh stable
// identifier.
func (t *Table) Append(row core.Transaction) (core.Transaction, error) {
	if err := row.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row.ID = uuid.NewString()
	next := make([]core.Transaction, len(t.rows), len(t.rows)+1)
	copy(next, t.rows)
	t.rows = append(next, row)
	t.version++
	return row, nil
}

// AppendAll validates and appends a batch of rows, collecting per-row
// failures the way Load does. The whole batch lands under one version
// bump; an all-rejected batch leaves the table untouched.
func (t *Table) AppendAll(rows []core.Transaction) LoadReport {
	report := LoadReport{}
	next := make([]core.Transaction, len(t.rows), len(t.rows)+len(rows))
	copy(next, t.rows)
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			report.Rejected = append(report.Rejected, RejectedRow{Index: i, Row: row, Reason: err.Error()})
			continue
		}
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		next = append(next, row)
		report.Accepted++
	}
	if report.Accepted > 0 {
		t.rows = next
		t.version++
	}
	return report
}

// Replace swaps the row with the given ID for a new validated row,
// reassigning the identifier. Edits never mutate in place.
func (t *Table) Replace(id string, row core.Transaction) (core.Transaction, error) {
	if err := row.Validate(); err != nil {
		return core.Transaction{}, err
	}
	i := t.index(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	row.ID = uuid.NewString()
	next := make([]core.Transaction, len(t.rows))
	copy(next, t.rows)
	next[i] = row
	t.rows = next
	t.version++
	return row, nil
}

// Remove deletes the row with the given ID.
func (t *Table) Remove(id string) error {
	i := t.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := make([]core.Transaction, 0, len(t.rows)-1)
	next = append(next, t.rows[:i]...)
	next = append(next, t.rows[i+1:]...)
	t.rows = next
	t.version++
	return nil
}

// Get returns the row with the given ID.
func (t *Table) Get(id string) (core.Transaction, error) {
	i := t.index(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.rows[i], nil
}

// Len is the number of rows currently loaded.
func (t *Table) Len() int {
	return len(t.rows)
}

// Version increases on every mutation. Caches key on it.
func (t *Table) Version() uint64 {
	return t.version
}

// Snapshot copies the current rows, e.g. for pushing to the remote
// sheet or persisting locally.
func (t *Table) Snapshot() []core.Transaction {
	out := make([]core.Transaction, len(t.rows))
	copy(out, t.rows)
	return out
}

// View returns a lazy view over the current rows. Mutations build new
// row slices, so a view taken earlier keeps seeing the rows it was
// created over.
func (t *Table) View() *View {
	return &View{rows: t.rows}
}

// Filter is shorthand for View().Filter(preds...).
func (t *Table) Filter(preds ...Predicate) *View {
	return t.View().Filter(preds...)
}

func (t *Table) index(id string) int {
	for i := range t.rows {
		if t.rows[i].ID == id {
			return i
		}
	}
	return -1
}

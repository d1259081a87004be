package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindRevenue Kind = "receita"
	KindExpense Kind = "despesa"
)

const (
	Monthly Repetition = "monthly"
	Yearly  Repetition = "yearly"
	Weekly  Repetition = "weekly"
	Daily   Repetition = "daily"
)

type (
	// Kind classifies a transaction as revenue or expense. It is always
	// consistent with the sign of the value: positive values are revenue,
	// negative values are expense.
	Kind string

	// Repetition is the cadence of a recurrence rule.
	Repetition string

	// Date is a calendar day. The zero value marks a transaction without
	// a date; such rows stay queryable but are excluded from period
	// rollups.
	Date struct {
		time.Time
	}

	// Transaction is one lançamento in the ledger. Rows are immutable:
	// edits replace the row, deletion removes it.
	Transaction struct {
		ID          string
		Date        Date
		Kind        Kind
		Category    string
		Value       decimal.Decimal
		Description string
		CostCenter  string
	}

	// RecurrenceRule describes a fixed cost or income that repeats on a
	// cadence, e.g. weekly rehearsal room rent. Due occurrences are
	// materialized as ordinary transactions.
	RecurrenceRule struct {
		ID          int64
		StartDate   Date
		EndDate     Date
		Every       Repetition
		Description string
		Category    string
		Value       decimal.Decimal
		CostCenter  string
	}
)

// Error classes. Row-scoped failures wrap one of these so callers can
// branch with errors.Is regardless of the specific cause.
var (
	ErrParse           = errors.New("unparseable value")
	ErrValidation      = errors.New("invalid row")
	ErrSyncUnavailable = errors.New("sync backend unavailable")
	ErrImportPartial   = errors.New("import finished with rejected rows")
)

var (
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrParse)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrParse)
	ErrInvalidKind      = fmt.Errorf("%w: kind must be receita or despesa", ErrValidation)
	ErrZeroValue        = fmt.Errorf("%w: value cannot be zero", ErrValidation)
	ErrSignMismatch     = fmt.Errorf("%w: kind disagrees with value sign", ErrValidation)
	ErrDescriptionLimit = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindRevenue || k == KindExpense
}

// ParseKind maps common spellings of the tipo column to a Kind. The raw
// string is expected lowercased and accent-stripped by the column
// normalizer, but trimming and lowercasing are repeated here so manual
// callers get the same result.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "receita", "revenue", "entrada", "credito":
		return KindRevenue, nil
	case "despesa", "expense", "saida", "debito":
		return KindExpense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, raw)
	}
}

// KindOf derives the kind from the sign of a value.
func KindOf(v decimal.Decimal) Kind {
	if v.IsNegative() {
		return KindExpense
	}
	return KindRevenue
}

// ParseRepetition maps common spellings of a cadence, including the
// Portuguese ones, to a Repetition.
func ParseRepetition(raw string) (Repetition, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly", "mensal":
		return Monthly, nil
	case "yearly", "annual", "anual":
		return Yearly, nil
	case "weekly", "semanal":
		return Weekly, nil
	case "daily", "diario", "diária", "diaria":
		return Daily, nil
	default:
		return "", fmt.Errorf("%w: unknown repetition %q", ErrValidation, raw)
	}
}

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Known reports whether the date is set.
func (d Date) Known() bool {
	return !d.IsZero()
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Quarter returns the calendar quarter as 1-4.
func (d Date) Quarter() int {
	return (d.Month()-1)/3 + 1
}

// ISO renders the date as yyyy-mm-dd, or "" when the date is unknown.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Brazilian renders the date as dd/mm/yyyy, or "" when the date is
// unknown.
func (d Date) Brazilian() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Validate checks the row invariants: a valid kind consistent with the
// sign of the value, a nonzero finite value and a bounded description.
// The date may be absent.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Value.IsZero() {
		return ErrZeroValue
	}
	if KindOf(t.Value) != t.Kind {
		return ErrSignMismatch
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLimit
	}
	return nil
}

// Event is the identity used when deduplicating rows into real-world
// events: the trimmed description, or "" for rows that carry none and
// therefore count individually.
func (t Transaction) Event() string {
	return strings.TrimSpace(t.Description)
}

func (r RecurrenceRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	switch r.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return errors.New("invalid repetition type")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("empty description")
	}
	if len(r.Description) > 200 {
		return ErrDescriptionLimit
	}
	if r.Value.IsZero() {
		return ErrZeroValue
	}
	return nil
}

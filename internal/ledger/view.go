package ledger

import (
	"strings"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
)

// Predicate decides whether a row belongs to a view.
type Predicate func(core.Transaction) bool

// View is a lazy, composable filter over table rows. It never copies
// row data; consumers iterate with Each.
type View struct {
	rows  []core.Transaction
	preds []Predicate
}

// Filter derives a narrower view with the extra predicates. The
// receiver is left untouched.
func (v *View) Filter(preds ...Predicate) *View {
	combined := make([]Predicate, 0, len(v.preds)+len(preds))
	combined = append(combined, v.preds...)
	combined = append(combined, preds...)
	return &View{rows: v.rows, preds: combined}
}

// Each calls fn for every matching row, stopping early when fn returns
// false.
func (v *View) Each(fn func(core.Transaction) bool) {
	for i := range v.rows {
		if !v.match(v.rows[i]) {
			continue
		}
		if !fn(v.rows[i]) {
			return
		}
	}
}

// Count returns the number of matching rows.
func (v *View) Count() int {
	n := 0
	v.Each(func(core.Transaction) bool {
		n++
		return true
	})
	return n
}

// Rows materializes the matching rows in table order.
func (v *View) Rows() []core.Transaction {
	var out []core.Transaction
	v.Each(func(tx core.Transaction) bool {
		out = append(out, tx)
		return true
	})
	return out
}

func (v *View) match(tx core.Transaction) bool {
	for _, p := range v.preds {
		if !p(tx) {
			return false
		}
	}
	return true
}

// ByKind keeps rows of one kind.
func ByKind(k core.Kind) Predicate {
	return func(tx core.Transaction) bool {
		return tx.Kind == k
	}
}

// ByCategory keeps rows whose category matches, ignoring case and
// surrounding whitespace.
func ByCategory(name string) Predicate {
	want := strings.TrimSpace(name)
	return func(tx core.Transaction) bool {
		return strings.EqualFold(strings.TrimSpace(tx.Category), want)
	}
}

// ByCostCenter keeps rows allocated to the given cost center.
func ByCostCenter(name string) Predicate {
	want := strings.TrimSpace(name)
	return func(tx core.Transaction) bool {
		return strings.EqualFold(strings.TrimSpace(tx.CostCenter), want)
	}
}

// Dated keeps rows with a known date. Period rollups run over this.
func Dated() Predicate {
	return func(tx core.Transaction) bool {
		return tx.Date.Known()
	}
}

// ByDateRange keeps dated rows within the inclusive bounds. A zero
// bound leaves that side open; undated rows never match a bounded
// range.
func ByDateRange(from, to core.Date) Predicate {
	return func(tx core.Transaction) bool {
		if !from.Known() && !to.Known() {
			return true
		}
		if !tx.Date.Known() {
			return false
		}
		if from.Known() && tx.Date.Before(from.Time) {
			return false
		}
		if to.Known() && tx.Date.After(to.Time) {
			return false
		}
		return true
	}
}

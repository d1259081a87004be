// Package report computes KPIs and period rollups over ledger views.
// Every function here is a pure read over an immutable row snapshot, so
// the overview builder may run them concurrently.
package report

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
)

// Qualifier marks rows whose events enter the average-ticket
// denominator, e.g. billable shows. A nil qualifier admits revenue
// rows.
type Qualifier func(core.Transaction) bool

// KPISet carries the summary metrics for one view.
type KPISet struct {
	TotalRevenue     decimal.Decimal
	TotalExpense     decimal.Decimal
	Balance          decimal.Decimal
	AverageTicket    decimal.Decimal
	EventCount       int
	QualifyingEvents int
}

// Label is one name/value pair of the structured dashboard data.
type Label struct {
	Name  string
	Value string
}

// KPIs aggregates a view in a single pass.
//
// Rows are deduplicated into real-world events: rows sharing a
// non-empty description are one event, rows without a description count
// individually. The two partitions are disjoint, so no row is ever
// counted twice. The qualifying-event count is computed here exactly
// once and reused for the average ticket.
func KPIs(v *ledger.View, qualifies Qualifier) KPISet {
	if qualifies == nil {
		qualifies = func(tx core.Transaction) bool { return tx.Value.IsPositive() }
	}

	var (
		revenue, expense decimal.Decimal
		described        = make(map[string]struct{})
		undescribed      int
		qualDescribed    = make(map[string]struct{})
		qualUndescribed  int
	)
	v.Each(func(tx core.Transaction) bool {
		switch {
		case tx.Value.IsPositive():
			revenue = revenue.Add(tx.Value)
		case tx.Value.IsNegative():
			expense = expense.Add(tx.Value.Abs())
		}

		event := tx.Event()
		if event == "" {
			undescribed++
		} else {
			described[event] = struct{}{}
		}
		if qualifies(tx) {
			if event == "" {
				qualUndescribed++
			} else {
				qualDescribed[event] = struct{}{}
			}
		}
		return true
	})

	set := KPISet{
		TotalRevenue:     revenue,
		TotalExpense:     expense,
		Balance:          revenue.Sub(expense),
		EventCount:       len(described) + undescribed,
		QualifyingEvents: len(qualDescribed) + qualUndescribed,
	}
	if set.QualifyingEvents > 0 {
		set.AverageTicket = revenue.Div(decimal.NewFromInt(int64(set.QualifyingEvents)))
	}
	return set
}

// Labels renders the set as ordered label/formatted-value pairs for the
// rendering surface.
func (k KPISet) Labels() []Label {
	return []Label{
		{Name: "Receita Total", Value: core.FormatBRL(k.TotalRevenue)},
		{Name: "Despesa Total", Value: core.FormatBRL(k.TotalExpense)},
		{Name: "Saldo", Value: core.FormatBRL(k.Balance)},
		{Name: "Ticket Médio", Value: core.FormatBRL(k.AverageTicket)},
		{Name: "Eventos", Value: strconv.Itoa(k.EventCount)},
	}
}

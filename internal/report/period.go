package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
)

const (
	ByMonth   Granularity = "month"
	ByQuarter Granularity = "quarter"
	ByYear    Granularity = "year"
)

// Granularity selects the calendar bucket for period rollups.
type Granularity string

func (g Granularity) Valid() bool {
	return g == ByMonth || g == ByQuarter || g == ByYear
}

// ParseGranularity maps request parameters to a granularity.
func ParseGranularity(raw string) (Granularity, error) {
	switch raw {
	case "month", "mensal", "":
		return ByMonth, nil
	case "quarter", "trimestral":
		return ByQuarter, nil
	case "year", "anual":
		return ByYear, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", raw)
	}
}

// Period is one calendar bucket. Index is the month (1-12) or quarter
// (1-4) within the year, and 0 for yearly buckets.
type Period struct {
	Granularity Granularity
	Year        int
	Index       int
}

// PeriodOf buckets a known date.
func PeriodOf(d core.Date, g Granularity) Period {
	p := Period{Granularity: g, Year: d.Year()}
	switch g {
	case ByMonth:
		p.Index = d.Month()
	case ByQuarter:
		p.Index = d.Quarter()
	}
	return p
}

// Label renders the period as a sortable string: 2024-03, 2024-Q1 or
// 2024.
func (p Period) Label() string {
	switch p.Granularity {
	case ByMonth:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Index)
	case ByQuarter:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Index)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// Next returns the immediately following period, used for gap filling.
func (p Period) Next() Period {
	switch p.Granularity {
	case ByMonth:
		if p.Index == 12 {
			return Period{Granularity: p.Granularity, Year: p.Year + 1, Index: 1}
		}
		return Period{Granularity: p.Granularity, Year: p.Year, Index: p.Index + 1}
	case ByQuarter:
		if p.Index == 4 {
			return Period{Granularity: p.Granularity, Year: p.Year + 1, Index: 1}
		}
		return Period{Granularity: p.Granularity, Year: p.Year, Index: p.Index + 1}
	default:
		return Period{Granularity: p.Granularity, Year: p.Year + 1}
	}
}

// Before orders periods chronologically.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Index < q.Index
}

// PeriodRow is the rollup of one period. Revenue and Expense are
// accumulated independently, so a period holding only one sign still
// reports the other as zero.
type PeriodRow struct {
	Period  Period
	Revenue decimal.Decimal
	Expense decimal.Decimal
}

// Balance is the period net result.
func (r PeriodRow) Balance() decimal.Decimal {
	return r.Revenue.Sub(r.Expense)
}

// ByPeriod groups the view's dated rows into calendar buckets with
// direct grouped sums in one pass. Undated rows never participate. The
// result is chronological; with fillGaps set, periods between the first
// and last observed bucket appear with zero values instead of being
// omitted.
func ByPeriod(v *ledger.View, g Granularity, fillGaps bool) []PeriodRow {
	acc := make(map[Period]*PeriodRow)
	v.Each(func(tx core.Transaction) bool {
		if !tx.Date.Known() {
			return true
		}
		p := PeriodOf(tx.Date, g)
		row, ok := acc[p]
		if !ok {
			row = &PeriodRow{Period: p}
			acc[p] = row
		}
		switch {
		case tx.Value.IsPositive():
			row.Revenue = row.Revenue.Add(tx.Value)
		case tx.Value.IsNegative():
			row.Expense = row.Expense.Add(tx.Value.Abs())
		}
		return true
	})

	if len(acc) == 0 {
		return nil
	}

	keys := make([]Period, 0, len(acc))
	for p := range acc {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	if !fillGaps {
		out := make([]PeriodRow, 0, len(keys))
		for _, p := range keys {
			out = append(out, *acc[p])
		}
		return out
	}

	var out []PeriodRow
	last := keys[len(keys)-1]
	for p := keys[0]; ; p = p.Next() {
		if row, ok := acc[p]; ok {
			out = append(out, *row)
		} else {
			out = append(out, PeriodRow{Period: p})
		}
		if p == last {
			return out
		}
	}
}

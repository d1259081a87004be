package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
)

// BucketSum is one grouped total, e.g. expenses of one category or the
// net result allocated to one cost center.
type BucketSum struct {
	Name  string
	Total decimal.Decimal
}

// ExpenseByCategory sums the absolute value of expense rows per
// category, largest first. Rows without a category group under "".
func ExpenseByCategory(v *ledger.View) []BucketSum {
	acc := make(map[string]decimal.Decimal)
	v.Each(func(tx core.Transaction) bool {
		if tx.Value.IsNegative() {
			name := strings.TrimSpace(tx.Category)
			acc[name] = acc[name].Add(tx.Value.Abs())
		}
		return true
	})
	return sorted(acc)
}

// AllocationByCostCenter nets every row's signed value per cost center,
// the rateio view. Rows without a cost center group under "".
func AllocationByCostCenter(v *ledger.View) []BucketSum {
	acc := make(map[string]decimal.Decimal)
	v.Each(func(tx core.Transaction) bool {
		name := strings.TrimSpace(tx.CostCenter)
		acc[name] = acc[name].Add(tx.Value)
		return true
	})
	return sorted(acc)
}

func sorted(acc map[string]decimal.Decimal) []BucketSum {
	out := make([]BucketSum, 0, len(acc))
	for name, total := range acc {
		out = append(out, BucketSum{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Total.Abs(), out[j].Total.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

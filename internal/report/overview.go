package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
)

// Overview bundles everything the dashboard shows for one view.
type Overview struct {
	KPIs              KPISet
	Monthly           []PeriodRow
	Quarterly         []PeriodRow
	Yearly            []PeriodRow
	ExpenseCategories []BucketSum
	Allocation        []BucketSum
}

// BuildOverview computes the full dashboard data set. The parts are
// independent pure reads over the same immutable snapshot, so they fan
// out concurrently; the context bounds the whole build.
func BuildOverview(ctx context.Context, v *ledger.View, qualifies Qualifier, fillGaps bool) (*Overview, error) {
	var o Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.KPIs = KPIs(v, qualifies)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Monthly = ByPeriod(v, ByMonth, fillGaps)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Quarterly = ByPeriod(v, ByQuarter, fillGaps)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Yearly = ByPeriod(v, ByYear, fillGaps)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.ExpenseCategories = ExpenseByCategory(v)
		o.Allocation = AllocationByCostCenter(v)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &o, nil
}

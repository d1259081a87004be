package report

import (
	"context"
	"testing"
)

func TestBuildOverview(t *testing.T) {
	v := loadedView(t,
		tx("01/03/2024", "1500.00", "Show", "Evento A"),
		tx("02/03/2024", "-200.50", "Transporte", ""),
		tx("15/05/2024", "900", "Show", "Evento B"),
	)

	o, err := BuildOverview(context.Background(), v, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := KPIs(v, nil)
	if !o.KPIs.Balance.Equal(want.Balance) || o.KPIs.EventCount != want.EventCount {
		t.Fatalf("overview KPIs diverge: %+v vs %+v", o.KPIs, want)
	}
	// March..May with the gap filled.
	if got := labels(o.Monthly); len(got) != 3 || got[1] != "2024-04" {
		t.Fatalf("unexpected monthly rollup: %v", got)
	}
	if got := labels(o.Quarterly); len(got) != 2 {
		t.Fatalf("unexpected quarterly rollup: %v", got)
	}
	if got := labels(o.Yearly); len(got) != 1 || got[0] != "2024" {
		t.Fatalf("unexpected yearly rollup: %v", got)
	}
	if len(o.ExpenseCategories) != 1 || o.ExpenseCategories[0].Name != "Transporte" {
		t.Fatalf("unexpected expense breakdown: %+v", o.ExpenseCategories)
	}
}

func TestBuildOverviewCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := BuildOverview(ctx, loadedView(t), nil, false); err == nil {
		t.Fatalf("expected context error")
	}
}

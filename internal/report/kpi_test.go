package report

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
)

func loadedView(t *testing.T, rows ...core.Transaction) *ledger.View {
	t.Helper()
	table := ledger.NewTable()
	report := table.Load(rows)
	if len(report.Rejected) != 0 {
		t.Fatalf("fixture rows rejected: %+v", report.Rejected)
	}
	return table.View()
}

func tx(date, value, category, desc string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	v := decimal.RequireFromString(value)
	return core.Transaction{
		Date:        d,
		Kind:        core.KindOf(v),
		Category:    category,
		Value:       v,
		Description: desc,
	}
}

func eq(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if w := decimal.RequireFromString(want); !got.Equal(w) {
		t.Fatalf("%s expected %s, got %s", name, w, got)
	}
}

func TestKPIsScenario(t *testing.T) {
	v := loadedView(t,
		tx("01/03/2024", "1500.00", "Show", "Evento A"),
		tx("02/03/2024", "-200.50", "Transporte", ""),
	)

	set := KPIs(v, nil)
	eq(t, "TotalRevenue", set.TotalRevenue, "1500.00")
	eq(t, "TotalExpense", set.TotalExpense, "200.50")
	eq(t, "Balance", set.Balance, "1299.50")
	if set.EventCount != 2 {
		t.Fatalf("expected 2 events, got %d", set.EventCount)
	}
	// Default qualifier admits revenue rows: one described event.
	if set.QualifyingEvents != 1 {
		t.Fatalf("expected 1 qualifying event, got %d", set.QualifyingEvents)
	}
	eq(t, "AverageTicket", set.AverageTicket, "1500.00")
}

func TestEventCountDisjointUnion(t *testing.T) {
	// 10 rows with distinct descriptions plus 5 without: 15 events,
	// never 10 or 20.
	var rows []core.Transaction
	for i := 0; i < 10; i++ {
		rows = append(rows, tx("01/03/2024", "100", "Show", fmt.Sprintf("Evento %d", i)))
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, tx("02/03/2024", "-10", "Equipe", ""))
	}

	set := KPIs(loadedView(t, rows...), nil)
	if set.EventCount != 15 {
		t.Fatalf("expected 15 events, got %d", set.EventCount)
	}
}

func TestEventCountDeduplicatesDescriptions(t *testing.T) {
	v := loadedView(t,
		tx("01/03/2024", "1000", "Show", "Evento A"),
		tx("01/03/2024", "-300", "Equipe", "Evento A"),
		tx("01/03/2024", "-150", "Transporte", "Evento A"),
		tx("05/03/2024", "800", "Show", "Evento B"),
		tx("06/03/2024", "-20", "Outros", ""),
	)
	set := KPIs(v, nil)
	if set.EventCount != 3 {
		t.Fatalf("expected 3 events (A, B, one undescribed), got %d", set.EventCount)
	}
}

func TestBalanceIdentity(t *testing.T) {
	v := loadedView(t,
		tx("01/01/2024", "123.45", "A", "x"),
		tx("02/01/2024", "-67.89", "B", "y"),
		tx("03/02/2024", "1000", "C", ""),
		tx("04/02/2024", "-0.01", "D", ""),
	)
	set := KPIs(v, nil)
	if !set.Balance.Equal(set.TotalRevenue.Sub(set.TotalExpense)) {
		t.Fatalf("balance %s != revenue %s - expense %s", set.Balance, set.TotalRevenue, set.TotalExpense)
	}
}

func TestAverageTicketUsesQualifierOnce(t *testing.T) {
	v := loadedView(t,
		tx("01/03/2024", "1500", "Show", "Evento A"),
		tx("08/03/2024", "2500", "Show", "Evento B"),
		tx("09/03/2024", "500", "Patrocínio", "Cota mensal"),
		tx("10/03/2024", "-800", "Equipe", "Evento A"),
	)
	shows := func(t core.Transaction) bool { return t.Category == "Show" }

	set := KPIs(v, Qualifier(shows))
	// Two described show events qualify; the sponsorship row does not,
	// but its revenue still enters the numerator.
	if set.QualifyingEvents != 2 {
		t.Fatalf("expected 2 qualifying events, got %d", set.QualifyingEvents)
	}
	eq(t, "TotalRevenue", set.TotalRevenue, "4500")
	eq(t, "AverageTicket", set.AverageTicket, "2250")
}

func TestKPIsEmptyView(t *testing.T) {
	set := KPIs(ledger.NewTable().View(), nil)
	if !set.TotalRevenue.IsZero() || !set.TotalExpense.IsZero() || !set.Balance.IsZero() {
		t.Fatalf("empty view should aggregate to zero: %+v", set)
	}
	if set.EventCount != 0 || set.QualifyingEvents != 0 {
		t.Fatalf("empty view should count no events: %+v", set)
	}
	if !set.AverageTicket.IsZero() {
		t.Fatalf("average ticket with no qualifying events should be zero, got %s", set.AverageTicket)
	}
}

func TestKPILabels(t *testing.T) {
	v := loadedView(t,
		tx("01/03/2024", "1500.00", "Show", "Evento A"),
		tx("02/03/2024", "-200.50", "Transporte", ""),
	)
	labels := KPIs(v, nil).Labels()

	want := map[string]string{
		"Receita Total": "R$ 1.500,00",
		"Despesa Total": "R$ 200,50",
		"Saldo":         "R$ 1.299,50",
		"Ticket Médio":  "R$ 1.500,00",
		"Eventos":       "2",
	}
	if len(labels) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(labels))
	}
	for _, l := range labels {
		if want[l.Name] != l.Value {
			t.Fatalf("label %q expected %q, got %q", l.Name, want[l.Name], l.Value)
		}
	}
}

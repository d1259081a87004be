package http

import (
	"net/http"
	"testing"
)

func TestOverviewPayload(t *testing.T) {
	srv := testServer(t, Config{}, seedRows())

	rec := doRequest(srv, http.MethodGet, "/api/overview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var o overviewPayload
	decodeBody(t, rec, &o)

	wantKPIs := map[string]string{
		"Receita Total": "R$ 1.500,00",
		"Despesa Total": "R$ 200,00",
		"Saldo":         "R$ 1.300,00",
		"Ticket Médio":  "R$ 1.500,00",
		"Eventos":       "2",
	}
	if len(o.KPIs) != len(wantKPIs) {
		t.Fatalf("kpis = %+v, want %d entries", o.KPIs, len(wantKPIs))
	}
	for _, kpi := range o.KPIs {
		if want := wantKPIs[kpi.Name]; kpi.Value != want {
			t.Errorf("%s = %q, want %q", kpi.Name, kpi.Value, want)
		}
	}

	if len(o.Monthly) != 1 || o.Monthly[0].Period != "2024-03" {
		t.Fatalf("monthly = %+v, want one 2024-03 row", o.Monthly)
	}
	m := o.Monthly[0]
	if !m.Revenue.Equal(decimalFrom(t, "1500")) || !m.Expense.Equal(decimalFrom(t, "200")) || !m.Balance.Equal(decimalFrom(t, "1300")) {
		t.Errorf("monthly row = %+v", m)
	}
	if len(o.Quarterly) != 1 || o.Quarterly[0].Period != "2024-Q1" {
		t.Errorf("quarterly = %+v, want one 2024-Q1 row", o.Quarterly)
	}
	if len(o.Yearly) != 1 || o.Yearly[0].Period != "2024" {
		t.Errorf("yearly = %+v, want one 2024 row", o.Yearly)
	}

	if len(o.ExpenseCategories) != 1 || o.ExpenseCategories[0].Name != "Transporte" || !o.ExpenseCategories[0].Total.Equal(decimalFrom(t, "200")) {
		t.Errorf("expense categories = %+v", o.ExpenseCategories)
	}
	if len(o.Allocation) != 1 || o.Allocation[0].Name != "Banda" || !o.Allocation[0].Total.Equal(decimalFrom(t, "1300")) {
		t.Errorf("allocation = %+v", o.Allocation)
	}
	if o.Version != 1 {
		t.Errorf("version = %d, want 1", o.Version)
	}
}

func TestOverviewFilters(t *testing.T) {
	srv := testServer(t, Config{}, seedRows())

	rec := doRequest(srv, http.MethodGet, "/api/overview?category=Transporte", nil)
	var o overviewPayload
	decodeBody(t, rec, &o)
	if len(o.KPIs) == 0 || o.KPIs[0].Value != "R$ 0,00" {
		t.Errorf("filtered revenue = %+v, want R$ 0,00", o.KPIs)
	}

	rec = doRequest(srv, http.MethodGet, "/api/overview?fill_gaps=maybe", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad fill_gaps = %d, want 400", rec.Code)
	}
}

func TestPeriodsGranularity(t *testing.T) {
	srv := testServer(t, Config{}, seedRows())

	rec := doRequest(srv, http.MethodGet, "/api/overview/periods?granularity=quarter", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("periods = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var p periodsPayload
	decodeBody(t, rec, &p)
	if p.Granularity != "quarter" {
		t.Errorf("granularity = %q, want quarter", p.Granularity)
	}
	if len(p.Periods) != 1 || p.Periods[0].Period != "2024-Q1" {
		t.Errorf("periods = %+v, want one 2024-Q1 row", p.Periods)
	}

	rec = doRequest(srv, http.MethodGet, "/api/overview/periods", nil)
	decodeBody(t, rec, &p)
	if p.Granularity != "month" {
		t.Errorf("default granularity = %q, want month", p.Granularity)
	}

	rec = doRequest(srv, http.MethodGet, "/api/overview/periods?granularity=weekly", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown granularity = %d, want 400", rec.Code)
	}
}

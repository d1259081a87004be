package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/report"
)

const overviewTimeout = 7 * time.Second

type kpiView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type periodView struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type bucketView struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type overviewPayload struct {
	KPIs              []kpiView    `json:"kpis"`
	Monthly           []periodView `json:"monthly"`
	Quarterly         []periodView `json:"quarterly"`
	Yearly            []periodView `json:"yearly"`
	ExpenseCategories []bucketView `json:"expense_categories"`
	Allocation        []bucketView `json:"allocation"`
	Version           int64        `json:"version"`
}

func kpiViews(k report.KPISet) []kpiView {
	labels := k.Labels()
	out := make([]kpiView, 0, len(labels))
	for _, l := range labels {
		out = append(out, kpiView{Name: l.Name, Value: l.Value})
	}
	return out
}

func periodViews(rows []report.PeriodRow) []periodView {
	out := make([]periodView, 0, len(rows))
	for _, row := range rows {
		out = append(out, periodView{
			Period:  row.Period.Label(),
			Revenue: row.Revenue,
			Expense: row.Expense,
			Balance: row.Balance(),
		})
	}
	return out
}

func bucketViews(buckets []report.BucketSum) []bucketView {
	out := make([]bucketView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketView{Name: b.Name, Total: b.Total})
	}
	return out
}

// handleOverview serves the full dashboard data set: KPI labels, the
// three period rollups and both breakdowns, all for one table version.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w, r)
		return
	}
	req, err := ParseOverviewRequest(r.URL.Query())
	if err != nil {
		DomainError(err).Write(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), overviewTimeout)
	defer cancel()

	o, err := s.session.Overview(ctx, req)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "overview build failed",
			applog.FieldOperation, applog.OpOverview,
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}

	NewJSONResponse().Payload(overviewPayload{
		KPIs:              kpiViews(o.KPIs),
		Monthly:           periodViews(o.Monthly),
		Quarterly:         periodViews(o.Quarterly),
		Yearly:            periodViews(o.Yearly),
		ExpenseCategories: bucketViews(o.ExpenseCategories),
		Allocation:        bucketViews(o.Allocation),
		Version:           s.session.Status().Version,
	}).Write(w, r)
}

type periodsPayload struct {
	Granularity string       `json:"granularity"`
	Periods     []periodView `json:"periods"`
	Version     int64        `json:"version"`
}

// handlePeriods serves one period series for chart refreshes, selected
// by the granularity parameter.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w, r)
		return
	}
	query := r.URL.Query()

	g, err := report.ParseGranularity(query.Get("granularity"))
	if err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}
	req, err := ParseOverviewRequest(query)
	if err != nil {
		DomainError(err).Write(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), overviewTimeout)
	defer cancel()

	o, err := s.session.Overview(ctx, req)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "overview build failed",
			applog.FieldOperation, applog.OpOverview,
			applog.FieldGranularity, string(g),
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}

	var rows []report.PeriodRow
	switch g {
	case report.ByQuarter:
		rows = o.Quarterly
	case report.ByYear:
		rows = o.Yearly
	default:
		rows = o.Monthly
	}

	NewJSONResponse().Payload(periodsPayload{
		Granularity: string(g),
		Periods:     periodViews(rows),
		Version:     s.session.Status().Version,
	}).Write(w, r)
}

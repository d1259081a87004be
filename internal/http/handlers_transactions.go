package http

import (
	"net/http"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
)

// transactionView is the wire shape of one row. Values are decimal
// strings so amounts survive the trip without float rounding.
type transactionView struct {
	ID          string          `json:"id"`
	Date        string          `json:"date,omitempty"`
	Kind        core.Kind       `json:"kind"`
	Category    string          `json:"category,omitempty"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description,omitempty"`
	CostCenter  string          `json:"cost_center,omitempty"`
}

func viewOf(tx core.Transaction) transactionView {
	return transactionView{
		ID:          tx.ID,
		Date:        tx.Date.ISO(),
		Kind:        tx.Kind,
		Category:    tx.Category,
		Value:       tx.Value,
		Description: tx.Description,
		CostCenter:  tx.CostCenter,
	}
}

func viewsOf(rows []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(rows))
	for _, tx := range rows {
		out = append(out, viewOf(tx))
	}
	return out
}

type listPayload struct {
	Rows    []transactionView `json:"rows"`
	Count   int               `json:"count"`
	Version int64             `json:"version"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w, r)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	req, err := ParseListRequest(r.URL.Query())
	if err != nil {
		DomainError(err).Write(w, r)
		return
	}
	rows := s.session.List(req)
	NewJSONResponse().Payload(listPayload{
		Rows:    viewsOf(rows),
		Count:   len(rows),
		Version: s.session.Status().Version,
	}).Write(w, r)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var payload TransactionPayload
	if err := DecodeJSONBody(w, r, &payload); err != nil {
		DomainError(err).Write(w, r)
		return
	}
	tx, err := payload.Transaction()
	if err != nil {
		DomainError(err).Write(w, r)
		return
	}

	ctx := r.Context()
	added, err := s.session.Append(ctx, tx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "transaction create failed",
			applog.FieldOperation, applog.OpAppend,
			applog.FieldDescription, tx.Description,
			applog.FieldValue, tx.Value.String(),
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}
	atomic.AddInt64(&s.appMetrics.rowsLanded, 1)

	NewJSONResponse().Status(http.StatusCreated).Payload(viewOf(added)).Write(w, r)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/api/transactions/")
	if !ok {
		NotFoundError("unknown transaction").Write(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, err := s.session.Get(id)
		if err != nil {
			DomainError(err).Write(w, r)
			return
		}
		NewJSONResponse().Payload(viewOf(tx)).Write(w, r)

	case http.MethodPut:
		s.replaceTransaction(w, r, id)

	case http.MethodDelete:
		ctx := r.Context()
		if err := s.session.Remove(ctx, id); err != nil {
			DomainError(err).Write(w, r)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w, r)

	default:
		MethodNotAllowedError("GET, PUT, DELETE").Write(w, r)
	}
}

func (s *Server) replaceTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var payload TransactionPayload
	if err := DecodeJSONBody(w, r, &payload); err != nil {
		DomainError(err).Write(w, r)
		return
	}
	tx, err := payload.Transaction()
	if err != nil {
		DomainError(err).Write(w, r)
		return
	}

	ctx := r.Context()
	updated, err := s.session.Replace(ctx, id, tx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "transaction replace failed",
			applog.FieldTransactionID, id,
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}
	NewJSONResponse().Payload(viewOf(updated)).Write(w, r)
}

package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// ruleView is the wire shape of one recurrence rule.
type ruleView struct {
	ID          int64           `json:"id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date,omitempty"`
	Every       core.Repetition `json:"every"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Value       decimal.Decimal `json:"value"`
	CostCenter  string          `json:"cost_center,omitempty"`
	LastApplied string          `json:"last_applied,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

func ruleViewOf(sr storage.StoredRule) ruleView {
	v := ruleView{
		ID:          sr.Rule.ID,
		StartDate:   sr.Rule.StartDate.ISO(),
		EndDate:     sr.Rule.EndDate.ISO(),
		Every:       sr.Rule.Every,
		Description: sr.Rule.Description,
		Category:    sr.Rule.Category,
		Value:       sr.Rule.Value,
		CostCenter:  sr.Rule.CostCenter,
	}
	if !sr.LastApplied.IsZero() {
		v.LastApplied = sr.LastApplied.UTC().Format(time.RFC3339)
	}
	if !sr.CreatedAt.IsZero() {
		v.CreatedAt = sr.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

// rulesUnavailable answers for every rules endpoint when the server
// runs without local storage.
func (s *Server) rulesUnavailable(w http.ResponseWriter, r *http.Request) bool {
	if s.rules != nil {
		return false
	}
	ServiceUnavailableError("recurrence rules need local storage").Write(w, r)
	return true
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if s.rulesUnavailable(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.listRules(w, r)
	case http.MethodPost:
		s.createRule(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w, r)
	}
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stored, err := s.rules.ListRules(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "rule listing failed",
			applog.FieldError, err.Error())
		InternalServerError("internal error").Write(w, r)
		return
	}
	views := make([]ruleView, 0, len(stored))
	for _, sr := range stored {
		views = append(views, ruleViewOf(sr))
	}
	NewJSONResponse().Payload(map[string]any{
		"rules": views,
		"count": len(views),
	}).Write(w, r)
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	var payload RulePayload
	if err := DecodeJSONBody(w, r, &payload); err != nil {
		DomainError(err).Write(w, r)
		return
	}
	rule, err := payload.Rule()
	if err != nil {
		DomainError(err).Write(w, r)
		return
	}
	if err := rule.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w, r)
		return
	}

	ctx := r.Context()
	id, err := s.rules.CreateRule(ctx, rule)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "rule create failed",
			applog.FieldDescription, rule.Description,
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}
	rule.ID = id

	NewJSONResponse().Status(http.StatusCreated).Payload(ruleViewOf(storage.StoredRule{Rule: rule})).Write(w, r)
}

func (s *Server) handleRuleByID(w http.ResponseWriter, r *http.Request) {
	if s.rulesUnavailable(w, r) {
		return
	}
	raw, ok := pathID(r.URL.Path, "/api/rules/")
	if !ok {
		NotFoundError("unknown rule").Write(w, r)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		BadRequestError("rule id must be numeric").Write(w, r)
		return
	}

	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		sr, err := s.rules.GetRule(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			NotFoundError(err.Error()).Write(w, r)
			return
		}
		if err != nil {
			applog.FromContext(ctx).ErrorContext(ctx, "rule lookup failed",
				applog.FieldRuleID, id,
				applog.FieldError, err.Error())
			InternalServerError("internal error").Write(w, r)
			return
		}
		NewJSONResponse().Payload(ruleViewOf(sr)).Write(w, r)

	case http.MethodDelete:
		if err := s.rules.DeleteRule(ctx, id); err != nil {
			applog.FromContext(ctx).ErrorContext(ctx, "rule delete failed",
				applog.FieldRuleID, id,
				applog.FieldError, err.Error())
			InternalServerError("internal error").Write(w, r)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w, r)

	default:
		MethodNotAllowedError("GET, DELETE").Write(w, r)
	}
}

// This file implements utilities for parsing and validating request
// data: query-string filters, JSON payloads for transactions and
// recurrence rules, and input sanitization.

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
)

// maxBodyBytes caps JSON request bodies. File uploads have their own,
// larger limit configured on the server.
const maxBodyBytes = 1 << 20

// flexString reads a JSON string or a bare number as a string, so
// money can arrive as "1.500,00" or 1500 and dates as "2024-03-01" or
// a spreadsheet serial.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

// TransactionPayload is the request body for creating or replacing a
// transaction. Kind is optional; when absent it is derived from the
// sign of the value.
type TransactionPayload struct {
	Date        flexString `json:"date"`
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	Value       flexString `json:"value"`
	Description string     `json:"description"`
	CostCenter  string     `json:"cost_center"`
}

// Transaction converts the payload into a domain row. Full validation
// happens when the row enters the table; this only normalizes scalars.
func (p TransactionPayload) Transaction() (core.Transaction, error) {
	date, err := core.ParseDate(string(p.Date))
	if err != nil {
		return core.Transaction{}, err
	}
	value, err := core.ParseAmount(string(p.Value))
	if err != nil {
		return core.Transaction{}, err
	}
	kind := core.KindOf(value)
	if strings.TrimSpace(p.Kind) != "" {
		if kind, err = core.ParseKind(p.Kind); err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		Date:        date,
		Kind:        kind,
		Category:    sanitizeInput(p.Category),
		Value:       value,
		Description: sanitizeInput(p.Description),
		CostCenter:  sanitizeInput(p.CostCenter),
	}, nil
}

// RulePayload is the request body for creating a recurrence rule.
type RulePayload struct {
	StartDate   flexString `json:"start_date"`
	EndDate     flexString `json:"end_date"`
	Every       string     `json:"every"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Value       flexString `json:"value"`
	CostCenter  string     `json:"cost_center"`
}

// Rule converts the payload into a domain rule.
func (p RulePayload) Rule() (core.RecurrenceRule, error) {
	start, err := core.ParseDate(string(p.StartDate))
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	end, err := core.ParseDate(string(p.EndDate))
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	every, err := core.ParseRepetition(p.Every)
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	value, err := core.ParseAmount(string(p.Value))
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	return core.RecurrenceRule{
		StartDate:   start,
		EndDate:     end,
		Every:       every,
		Description: sanitizeInput(p.Description),
		Category:    sanitizeInput(p.Category),
		Value:       value,
		CostCenter:  sanitizeInput(p.CostCenter),
	}, nil
}

// DecodeJSONBody reads a bounded JSON request body into v.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", core.ErrParse, err)
	}
	return nil
}

// ParseListRequest extracts row filters from query parameters.
func ParseListRequest(query url.Values) (session.ListRequest, error) {
	var req session.ListRequest

	if raw := strings.TrimSpace(query.Get("kind")); raw != "" {
		kind, err := core.ParseKind(raw)
		if err != nil {
			return session.ListRequest{}, err
		}
		req.Kind = kind
	}
	req.Category = sanitizeInput(query.Get("category"))
	req.CostCenter = sanitizeInput(query.Get("cost_center"))

	var err error
	if req.From, err = core.ParseDate(query.Get("from")); err != nil {
		return session.ListRequest{}, err
	}
	if req.To, err = core.ParseDate(query.Get("to")); err != nil {
		return session.ListRequest{}, err
	}
	return req, nil
}

// ParseOverviewRequest extracts dashboard filters from query
// parameters. fill_gaps asks for zero-valued rows in the periods
// between the first and last observed bucket.
func ParseOverviewRequest(query url.Values) (session.OverviewRequest, error) {
	var req session.OverviewRequest

	req.Category = sanitizeInput(query.Get("category"))
	req.CostCenter = sanitizeInput(query.Get("cost_center"))

	var err error
	if req.From, err = core.ParseDate(query.Get("from")); err != nil {
		return session.OverviewRequest{}, err
	}
	if req.To, err = core.ParseDate(query.Get("to")); err != nil {
		return session.OverviewRequest{}, err
	}
	if raw := strings.TrimSpace(query.Get("fill_gaps")); raw != "" {
		fill, err := strconv.ParseBool(raw)
		if err != nil {
			return session.OverviewRequest{}, fmt.Errorf("%w: fill_gaps must be a boolean", core.ErrParse)
		}
		req.FillGaps = fill
	}
	return req, nil
}

// RequireMethod checks if the request method matches the expected
// method(s). Returns an error response builder if the method doesn't
// match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for GET-only handlers.
func RequireGET(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodGet)
}

// pathID extracts the trailing identifier from paths like
// /api/transactions/{id}. Nested paths are rejected.
func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || id == path || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// sanitizeInput strips control characters that have no business in
// descriptions or category names. Printable text passes unchanged.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s))
}

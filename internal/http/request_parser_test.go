package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
)

func TestTransactionPayloadForms(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantDate string
		wantKind core.Kind
		wantVal  string
	}{
		{
			name:     "brazilian money and date",
			body:     `{"date": "01/03/2024", "value": "1.500,00"}`,
			wantDate: "2024-03-01",
			wantKind: core.KindRevenue,
			wantVal:  "1500",
		},
		{
			name:     "bare numbers",
			body:     `{"date": 45352, "value": -200.5}`,
			wantDate: "2024-03-01",
			wantKind: core.KindExpense,
			wantVal:  "-200.5",
		},
		{
			name:     "iso date explicit kind",
			body:     `{"date": "2024-03-15", "kind": "receita", "value": "900"}`,
			wantDate: "2024-03-15",
			wantKind: core.KindRevenue,
			wantVal:  "900",
		},
		{
			name:     "undated row",
			body:     `{"value": "R$ 50,00"}`,
			wantDate: "",
			wantKind: core.KindRevenue,
			wantVal:  "50",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p TransactionPayload
			if err := json.Unmarshal([]byte(tc.body), &p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			tx, err := p.Transaction()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := tx.Date.ISO(); got != tc.wantDate {
				t.Errorf("date = %q, want %q", got, tc.wantDate)
			}
			if tx.Kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", tx.Kind, tc.wantKind)
			}
			if want := decimalFrom(t, tc.wantVal); !tx.Value.Equal(want) {
				t.Errorf("value = %s, want %s", tx.Value, want)
			}
		})
	}
}

func TestTransactionPayloadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"unparseable value", `{"value": "abc"}`, core.ErrParse},
		{"empty value", `{}`, core.ErrParse},
		{"unparseable date", `{"date": "amanhã", "value": "10"}`, core.ErrParse},
		{"unknown kind", `{"kind": "transfer", "value": "10"}`, core.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p TransactionPayload
			if err := json.Unmarshal([]byte(tc.body), &p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			_, err := p.Transaction()
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTransactionPayloadSanitizesText(t *testing.T) {
	body := `{"value": "10", "description": "  Show  do\ncentro  ", "category": "Cachê"}`
	var p TransactionPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	tx, err := p.Transaction()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Description != "Show docentro" {
		t.Errorf("description = %q", tx.Description)
	}
	if tx.Category != "Cachê" {
		t.Errorf("category = %q", tx.Category)
	}
}

func TestRulePayloadAliases(t *testing.T) {
	body := `{"start_date": "01/01/2024", "every": "mensal", "description": "Ensaio", "value": "300,00"}`
	var p RulePayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rule, err := p.Rule()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Every != core.Monthly {
		t.Errorf("every = %q, want monthly", rule.Every)
	}
	if !rule.EndDate.IsZero() {
		t.Errorf("end date should stay open, got %s", rule.EndDate.ISO())
	}
	if err := rule.Validate(); err != nil {
		t.Errorf("rule should validate: %v", err)
	}

	p.Every = "anual"
	if rule, err = p.Rule(); err != nil || rule.Every != core.Yearly {
		t.Errorf("anual = (%q, %v), want yearly", rule.Every, err)
	}
	p.Every = "sometimes"
	if _, err = p.Rule(); !errors.Is(err, core.ErrValidation) {
		t.Errorf("unknown cadence error = %v, want validation", err)
	}
}

func TestParseListRequest(t *testing.T) {
	req, err := ParseListRequest(url.Values{
		"kind":        {"despesa"},
		"category":    {" Transporte "},
		"cost_center": {"Banda"},
		"from":        {"01/03/2024"},
		"to":          {"2024-03-31"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != core.KindExpense {
		t.Errorf("kind = %q", req.Kind)
	}
	if req.Category != "Transporte" {
		t.Errorf("category = %q, want trimmed", req.Category)
	}
	if req.From.ISO() != "2024-03-01" || req.To.ISO() != "2024-03-31" {
		t.Errorf("window = %s..%s", req.From.ISO(), req.To.ISO())
	}

	if _, err := ParseListRequest(url.Values{"kind": {"other"}}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("bad kind error = %v", err)
	}
	if _, err := ParseListRequest(url.Values{"from": {"xx"}}); !errors.Is(err, core.ErrParse) {
		t.Errorf("bad date error = %v", err)
	}
}

func TestParseOverviewRequest(t *testing.T) {
	req, err := ParseOverviewRequest(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.FillGaps {
		t.Error("fill_gaps should default to false")
	}

	req, err = ParseOverviewRequest(url.Values{"fill_gaps": {"true"}})
	if err != nil || !req.FillGaps {
		t.Errorf("fill_gaps=true = (%v, %v)", req.FillGaps, err)
	}
	if _, err := ParseOverviewRequest(url.Values{"fill_gaps": {"banana"}}); !errors.Is(err, core.ErrParse) {
		t.Errorf("bad fill_gaps error = %v", err)
	}
}

func TestPathID(t *testing.T) {
	cases := []struct {
		path   string
		wantID string
		ok     bool
	}{
		{"/api/transactions/abc-123", "abc-123", true},
		{"/api/transactions/", "", false},
		{"/api/transactions/a/b", "", false},
		{"/other/abc", "", false},
	}
	for _, tc := range cases {
		id, ok := pathID(tc.path, "/api/transactions/")
		if id != tc.wantID || ok != tc.ok {
			t.Errorf("pathID(%q) = (%q, %v), want (%q, %v)", tc.path, id, ok, tc.wantID, tc.ok)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Show do centro  ", "Show do centro"},
		{"a\tb", "a\tb"},
		{"a\r\nb", "ab"},
		{"a\x00b\x7f", "ab"},
		{"Cachê", "Cachê"},
	}
	for _, tc := range cases {
		if got := sanitizeInput(tc.in); got != tc.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeJSONBodyLimitsSize(t *testing.T) {
	srv := testServer(t, Config{}, nil)

	big := `{"description": "` + strings.Repeat("x", maxBodyBytes) + `", "value": "10"}`
	rec := doRequest(srv, http.MethodPost, "/api/transactions", strings.NewReader(big))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized body = %d, want 400", rec.Code)
	}
}

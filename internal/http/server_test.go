package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets/memory"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

const testSheet = "backstage-2024"

func seedRow(day int, value, category, description string) core.Transaction {
	v := decimal.RequireFromString(value)
	return core.Transaction{
		Date:        core.NewDate(2024, 3, day),
		Kind:        core.KindOf(v),
		Category:    category,
		Value:       v,
		Description: description,
		CostCenter:  "Banda",
	}
}

func seedRows() []core.Transaction {
	return []core.Transaction{
		seedRow(1, "1500", "Cachê", "Show bar do centro"),
		seedRow(2, "-200", "Transporte", "Van"),
	}
}

func testRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finance.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testSession(t *testing.T, rows []core.Transaction) *session.Session {
	t.Helper()
	sess, err := session.New(context.Background(), session.Options{
		Backend: memory.NewSeeded(testSheet, rows),
		SheetID: testSheet,
		Local:   testRepo(t),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func testServer(t *testing.T, cfg Config, rows []core.Transaction) *Server {
	t.Helper()
	srv, err := NewServer(cfg, testSession(t, rows), testRepo(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := testServer(t, Config{}, seedRows())

	rec := doRequest(srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
	var health map[string]any
	decodeBody(t, rec, &health)
	if health["status"] != "ok" {
		t.Errorf("health status = %v, want ok", health["status"])
	}

	rec = doRequest(srv, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d, want 200", rec.Code)
	}
	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	decodeBody(t, rec, &ready)
	if ready.Status != "ready" {
		t.Errorf("ready status = %q", ready.Status)
	}
	if ready.Checks["session"] != "ok" {
		t.Errorf("session check = %v, want ok", ready.Checks["session"])
	}
	if ready.Checks["local_storage"] != "ok" {
		t.Errorf("local_storage check = %v, want ok", ready.Checks["local_storage"])
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := testServer(t, Config{}, nil)

	rec := doRequest(srv, http.MethodGet, "/healthz", nil)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	srv := testServer(t, Config{RequestsPerMinute: 2}, nil)

	for i := 0; i < 2; i++ {
		rec := doRequest(srv, http.MethodPost, "/api/transactions", strings.NewReader("{"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("request %d = %d, want 400", i+1, rec.Code)
		}
	}

	rec := doRequest(srv, http.MethodPost, "/api/transactions", strings.NewReader("{"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third mutation = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After header")
	}

	// Reads stay unlimited.
	for i := 0; i < 5; i++ {
		if rec := doRequest(srv, http.MethodGet, "/api/transactions", nil); rec.Code != http.StatusOK {
			t.Fatalf("read %d rate limited: %d", i+1, rec.Code)
		}
	}
}

func TestMetricsExposition(t *testing.T) {
	srv := testServer(t, Config{}, seedRows())

	doRequest(srv, http.MethodGet, "/api/transactions", nil)
	doRequest(srv, http.MethodGet, "/.env", nil)

	rec := doRequest(srv, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("metrics content type = %q", ct)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		"table_rows 2",
		"table_version 1",
		"sync_degraded 0",
		"suspicious_requests_total 1",
		"uptime_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %q:\n%s", metric, body)
		}
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := testServer(t, Config{}, nil)
	if rec := doRequest(srv, http.MethodGet, "/api/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path = %d, want 404", rec.Code)
	}
}

func TestNewServerRejectsBadProxy(t *testing.T) {
	sess := testSession(t, nil)
	if _, err := NewServer(Config{TrustedProxies: []string{"not-a-cidr"}}, sess, nil); err == nil {
		t.Fatal("expected error for malformed trusted proxy CIDR")
	}
}

func TestNewServerRejectsNilSession(t *testing.T) {
	if _, err := NewServer(Config{}, nil, nil); err == nil {
		t.Fatal("expected error for nil session")
	}
}

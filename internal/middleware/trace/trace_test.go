package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(nil)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/overview", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q, want req_ prefix", seen)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, handler status lost", rec.Code)
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Fatalf("two generated ids collide: %q", a)
	}
	if len(a) != len("req_")+16 {
		t.Errorf("id %q has unexpected length", a)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Fatalf("id without middleware = %q, want empty", id)
	}
}

func TestMetricsCountRequests(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.9" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 {
		t.Errorf("total requests = %d, want 3", got.TotalRequests)
	}
	if got.AverageResponseTime < 0 {
		t.Errorf("average response time = %d", got.AverageResponseTime)
	}
}

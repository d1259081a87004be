package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func applyTo(r *http.Request) *httptest.ResponseRecorder {
	h := NewHeadersMiddleware(DefaultHeadersConfig())
	rec := httptest.NewRecorder()
	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, r)
	return rec
}

func TestDefaultHeaders(t *testing.T) {
	rec := applyTo(httptest.NewRequest("GET", "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("CSP = %q, want default-src 'none'", csp)
	}
}

func TestHSTSOnlyOverTLS(t *testing.T) {
	rec := applyTo(httptest.NewRequest("GET", "http://example.com/", nil))
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on a plaintext request")
	}

	r := httptest.NewRequest("GET", "https://example.com/", nil)
	r.TLS = &tls.ConnectionState{}
	rec = applyTo(r)
	hsts := rec.Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=31536000") || !strings.Contains(hsts, "includeSubDomains") || !strings.Contains(hsts, "preload") {
		t.Errorf("HSTS = %q", hsts)
	}
}

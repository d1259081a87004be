package security

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"ordinary api call", "GET", "/api/transactions?kind=receita", "curl/8.0", false},
		{"env probe", "GET", "/.env", "", true},
		{"traversal in query", "GET", "/download?file=../../etc/passwd", "", true},
		{"wordpress probe", "GET", "/wp-admin/setup.php", "", true},
		{"scanner agent", "GET", "/api/overview", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/api/overview", "", true},
		{"overlong url", "GET", "/api/transactions?pad=" + strings.Repeat("a", 2100), "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.agent != "" {
				r.Header.Set("User-Agent", tc.agent)
			}
			if got := d.DetectSuspiciousRequest(r); got != tc.want {
				t.Fatalf("suspicious = %v, want %v", got, tc.want)
			}
			wantCount := int64(0)
			if tc.want {
				wantCount = 1
			}
			if m := d.GetMetrics(); m.SuspiciousRequests != wantCount {
				t.Errorf("suspicious counter = %d, want %d", m.SuspiciousRequests, wantCount)
			}
		})
	}
}

func TestDetectStackedForwardingHeaders(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest("GET", "/api/overview", nil)
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
	r.Header.Set("X-Real-IP", "1.1.1.1")
	if !d.DetectSuspiciousRequest(r) {
		t.Fatal("many forwarding hops should look suspicious")
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct peer", "203.0.113.9:4412", "", "", "203.0.113.9"},
		{"forwarded via trusted proxy", "127.0.0.1:80", "198.51.100.7, 10.0.0.1", "", "198.51.100.7"},
		{"real ip via trusted proxy", "10.0.0.2:80", "", "198.51.100.8", "198.51.100.8"},
		{"untrusted peer cannot forward", "203.0.113.9:4412", "198.51.100.7", "", "203.0.113.9"},
		{"garbage forward falls through", "127.0.0.1:80", "not-an-ip", "198.51.100.9", "198.51.100.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := d.ExtractClientIP(r); got != tc.want {
				t.Fatalf("ip = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInvalidForwardCountsAttempt(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:80"
	r.Header.Set("X-Forwarded-For", "not-an-ip")

	if got := d.ExtractClientIP(r); got != "127.0.0.1" {
		t.Fatalf("ip = %q, want direct peer", got)
	}
	if m := d.GetMetrics(); m.InvalidIPAttempts != 1 {
		t.Errorf("invalid ip attempts = %d, want 1", m.InvalidIPAttempts)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("expected error for bad CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:4412"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := d.ExtractClientIP(r); got != "198.51.100.7" {
		t.Fatalf("ip = %q, forward from added proxy should be honored", got)
	}
}

// Package http serves the finance API over JSON: the live transaction
// table, dashboard rollups, statement imports, recurrence rules and
// sync control. Every handler reads and mutates through one session,
// so responses always reflect a consistent table version.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/cache"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/middleware/ratelimit"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/middleware/security"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/middleware/trace"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// Config tunes the HTTP server. Zero fields fall back to the defaults.
type Config struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestsPerMinute int
	MaxUploadBytes    int64
	TrustedProxies    []string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		RequestsPerMinute: 60,
		MaxUploadBytes:    8 << 20,
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	return cfg
}

// Server hosts the JSON API over one session.
type Server struct {
	http.Server

	session *session.Session
	rules   *storage.SQLiteRepository

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	maxUploadBytes int64
	appMetrics     appMetrics
	shutdownOnce   sync.Once
}

// appMetrics tracks application-level counters for /metrics.
type appMetrics struct {
	startedAt  time.Time
	rowsLanded int64
}

// NewServer wires routes and middleware around the session. The rules
// repository may be nil; the recurrence endpoints then answer 503.
func NewServer(cfg Config, sess *session.Session, rules *storage.SQLiteRepository) (*Server, error) {
	if sess == nil {
		return nil, fmt.Errorf("nil session")
	}
	cfg = withDefaults(cfg)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy: %w", err)
		}
	}

	s := &Server{
		session:  sess,
		rules:    rules,
		detector: detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		maxUploadBytes: cfg.MaxUploadBytes,
		appMetrics:     appMetrics{startedAt: time.Now()},
	}
	s.tracer = trace.NewMiddleware(detector.ExtractClientIP)

	// Cached overviews for stale table versions age out on their own.
	s.caches = cache.NewManager()
	s.caches.Register(sess.OverviewCache())
	s.caches.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/api/overview", s.handleOverview)
	mux.HandleFunc("/api/overview/periods", s.handlePeriods)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/rules", s.handleRules)
	mux.HandleFunc("/api/rules/", s.handleRuleByID)
	mux.HandleFunc("/api/sync/status", s.handleSyncStatus)
	mux.HandleFunc("/api/sync/push", s.handleSyncPush)
	mux.HandleFunc("/api/sync/pull", s.handleSyncPull)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := s.tracer.Middleware(headers.Middleware(s.guard(mux)))

	s.Server = http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

// guard screens requests before they reach a handler: suspicious
// patterns are logged and mutations are rate limited per client IP.
// Reads stay unlimited so dashboards can poll freely.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(ctx).WarnContext(ctx, "suspicious request",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			ip := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(ip) {
				applog.FromContext(ctx).WarnContext(ctx, "rate limit exceeded",
					applog.FieldComponent, applog.ComponentRateLimit,
					applog.FieldClientIP, ip,
					applog.FieldPath, r.URL.Path)
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
					Header("Retry-After", "60").
					Write(w, r)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully stops the listener and the background cleanup
// goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

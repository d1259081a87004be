package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
)

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.startedAt).String(),
	}).Write(w, r)
}

// handleReady reports per-dependency state. A degraded session still
// serves the local copy, so degradation shows up in the checks without
// failing readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]any)

	st := s.session.Status()
	switch {
	case st.Degraded:
		checks["session"] = fmt.Sprintf("degraded: %s", st.LastError)
	case !st.Capable:
		checks["session"] = "local_only"
	default:
		checks["session"] = "ok"
	}

	if s.rules == nil {
		checks["local_storage"] = "not_configured"
	} else if err := s.rules.Ping(ctx); err != nil {
		checks["local_storage"] = fmt.Sprintf("failed: %v", err)
	} else {
		checks["local_storage"] = "ok"
	}

	checks["cache"] = map[string]any{
		"overview_entries": s.session.OverviewCache().Size(),
		"status":           "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Payload(map[string]any{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w, r)
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	st := s.session.Status()
	rowsLanded := atomic.LoadInt64(&s.appMetrics.rowsLanded)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_us Average response time in microseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_us gauge\n")
	fmt.Fprintf(w, "http_response_time_us %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP rows_landed_total Rows created through this instance\n")
	fmt.Fprintf(w, "# TYPE rows_landed_total counter\n")
	fmt.Fprintf(w, "rows_landed_total %d\n\n", rowsLanded)

	fmt.Fprintf(w, "# HELP table_rows Current rows in the live table\n")
	fmt.Fprintf(w, "# TYPE table_rows gauge\n")
	fmt.Fprintf(w, "table_rows %d\n\n", st.Rows)

	fmt.Fprintf(w, "# HELP table_version Current table version\n")
	fmt.Fprintf(w, "# TYPE table_version gauge\n")
	fmt.Fprintf(w, "table_version %d\n\n", st.Version)

	fmt.Fprintf(w, "# HELP sync_degraded Whether the session serves the local fallback\n")
	fmt.Fprintf(w, "# TYPE sync_degraded gauge\n")
	fmt.Fprintf(w, "sync_degraded %d\n\n", boolGauge(st.Degraded))

	fmt.Fprintf(w, "# HELP overview_cache_entries Current overview cache entries\n")
	fmt.Fprintf(w, "# TYPE overview_cache_entries gauge\n")
	fmt.Fprintf(w, "overview_cache_entries %d\n\n", s.session.OverviewCache().Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limited requests\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", limitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.limiter.ActiveClients())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.startedAt).Seconds())
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// syncStatusPayload mirrors session.Status on the wire.
type syncStatusPayload struct {
	Capable   bool   `json:"capable"`
	Degraded  bool   `json:"degraded"`
	Version   int64  `json:"version"`
	Rows      int    `json:"rows"`
	LastSync  string `json:"last_sync,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

func statusPayload(st session.Status) syncStatusPayload {
	p := syncStatusPayload{
		Capable:   st.Capable,
		Degraded:  st.Degraded,
		Version:   st.Version,
		Rows:      st.Rows,
		LastError: st.LastError,
	}
	if !st.LastSync.IsZero() {
		p.LastSync = st.LastSync.UTC().Format(time.RFC3339)
	}
	return p
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w, r)
		return
	}
	NewJSONResponse().Payload(statusPayload(s.session.Status())).Write(w, r)
}

// handleSyncPush writes the whole table to the remote sheet right now,
// without waiting for the background sync.
func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w, r)
		return
	}
	ctx := r.Context()
	if err := s.session.Push(ctx); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "manual push failed",
			applog.FieldOperation, applog.OpPush,
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}
	NewJSONResponse().Payload(statusPayload(s.session.Status())).Write(w, r)
}

// handleSyncPull re-reads the remote sheet into the table. When the
// pull fails the session keeps serving what it has; the returned
// status says which copy that is.
func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w, r)
		return
	}
	ctx := r.Context()
	if err := s.session.Refresh(ctx); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "manual pull failed",
			applog.FieldOperation, applog.OpPull,
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}
	NewJSONResponse().Payload(statusPayload(s.session.Status())).Write(w, r)
}

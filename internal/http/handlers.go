package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the blob store and reports cache and limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}

	checks["ledger"] = map[string]any{"revision": s.session.Revision()}
	if s.dashCache != nil {
		st := s.dashCache.Stats()
		checks["dashboard_cache"] = map[string]any{"entries": st.Entries, "hits": st.Hits, "misses": st.Misses}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()

	fmt.Fprintf(&b, "# Application metrics\n")
	fmt.Fprintf(&b, "myfinance_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(&b, "myfinance_ledger_revision %d\n", s.session.Revision())
	fmt.Fprintf(&b, "myfinance_http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(&b, "myfinance_http_response_time_avg_us %d\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(&b, "\n# Security metrics\n")
	fmt.Fprintf(&b, "myfinance_rate_limit_hits_total %d\n", limitMetrics.TotalHits)
	fmt.Fprintf(&b, "myfinance_rate_limit_clients %d\n", limitMetrics.ClientCount)
	fmt.Fprintf(&b, "myfinance_suspicious_requests_total %d\n", s.detector.SuspiciousRequests())

	if s.dashCache != nil {
		st := s.dashCache.Stats()
		fmt.Fprintf(&b, "\n# Cache metrics\n")
		fmt.Fprintf(&b, "myfinance_dashboard_cache_hits_total %d\n", st.Hits)
		fmt.Fprintf(&b, "myfinance_dashboard_cache_misses_total %d\n", st.Misses)
		fmt.Fprintf(&b, "myfinance_dashboard_cache_entries %d\n", st.Entries)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

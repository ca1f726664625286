package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"myfinance/internal/cache"
	"myfinance/internal/ledger"
	"myfinance/internal/log"
	"myfinance/internal/middleware/ratelimit"
	"myfinance/internal/middleware/security"
	"myfinance/internal/middleware/trace"
	"myfinance/internal/report"
)

const (
	dashboardCacheSize   = 32
	cacheCleanupInterval = 5 * time.Minute
	readyTimeout         = 5 * time.Second
)

// Options configures NewServer.
type Options struct {
	Addr    string
	Session *ledger.Session
	Logger  *log.Logger

	// Ready reports whether the blob store is reachable. Nil means always.
	Ready func(ctx context.Context) error

	RateLimitPerMinute int
	// DashboardCacheTTL of zero disables the dashboard cache.
	DashboardCacheTTL time.Duration
	TrustedProxies    []string
}

type Server struct {
	http.Server
	session *ledger.Session
	logger  *log.Logger
	ready   func(ctx context.Context) error

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	dashCache  *cache.LRUCache[report.Dashboard]
	dashboards *cache.Loader[report.Dashboard]
	cacheMgr   *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around the session, returning a
// ready-to-run http.Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Session == nil {
		return nil, errors.New("http server requires a ledger session")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector, err := security.NewDetector(logger, opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		session:  opts.Session,
		logger:   logger,
		ready:    opts.Ready,
		detector: detector,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(logger, detector.ClientIP),
		cacheMgr: cache.NewManager(logger),
		started:  time.Now(),
	}
	if opts.DashboardCacheTTL > 0 {
		s.dashCache = cache.NewLRUCache[report.Dashboard](dashboardCacheSize, opts.DashboardCacheTTL)
		s.dashboards = cache.NewLoader[report.Dashboard](s.dashCache)
		s.cacheMgr.Register(s.dashCache)
		s.cacheMgr.StartCleanup(cacheCleanupInterval)
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/reports/trailing", s.handleTrailing)
	mux.HandleFunc("GET /api/reports/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/settings", s.handleSettings)
	mux.HandleFunc("PUT /api/settings/dark-mode", s.handleDarkMode)
	mux.HandleFunc("GET /api/verify", s.handleVerify)
}

// middleware wraps the mux, outermost first: tracing, request-scoped logger,
// security headers, probe detection, then rate limiting of mutations.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := func(r *http.Request) bool { return r.Method != http.MethodGet && r.Method != http.MethodHead }
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").Write(w)
	}

	h = s.limiter.Middleware(s.detector.ClientIP, limited, onLimit)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.logger)(h)
	return s.tracer.Middleware(h)
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// fail writes err as a JSON error, logging server-side failures at error
// level and client mistakes at warn.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var b *JSONResponseBuilder
	if errors.Is(err, errBadRequest) {
		b = BadRequestError(err.Error())
	} else {
		b = FromError(err)
	}

	if b.statusCode >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "Request failed", log.FieldOperation, op, log.FieldError, err, log.FieldStatusCode, b.statusCode)
	} else {
		logger.WarnContext(ctx, "Request rejected", log.FieldOperation, op, log.FieldError, err, log.FieldStatusCode, b.statusCode)
	}
	b.Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}

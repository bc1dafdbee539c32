// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/log"
	"budgetbook/internal/metrics"
)

// Ledger is the part of ledger.Service the handlers use.
type Ledger interface {
	AddTransaction(ctx context.Context, date, description string, amount float64, typ core.TransactionType) error
	UpdateTransaction(ctx context.Context, index int, date, description string, amount float64, typ core.TransactionType) error
	RemoveTransaction(ctx context.Context, date, description string, amount float64, typ core.TransactionType) (bool, error)
	GetAllTransactions() []core.Transaction
	GetWeeklySpending() map[string]float64
	GetExpenseCategories() map[string]float64
	Summary() core.Summary
}

// Authenticator is the credential store.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

// Deps are the collaborators of a Server. Metrics is optional.
type Deps struct {
	Ledger  Ledger
	Auth    Authenticator
	Metrics *metrics.Recorder
	Logger  *log.Logger
	// RateLimit is the number of mutating requests allowed per client per
	// minute; zero means 60.
	RateLimit int
}

type Server struct {
	http.Server
	ledger  Ledger
	auth    Authenticator
	metrics *metrics.Recorder
	logger  *log.Logger

	rateLimiter  *rateLimiter
	security     securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	limit := deps.RateLimit
	if limit <= 0 {
		limit = 60
	}

	mux := http.NewServeMux()
	s := &Server{
		ledger:      deps.Ledger,
		auth:        deps.Auth,
		metrics:     deps.Metrics,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(limit),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleAddTransaction)
	mux.HandleFunc("PUT /api/transactions/{index}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleRemoveTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/spending/weekly", s.handleWeeklySpending)
	mux.HandleFunc("GET /api/spending/categories", s.handleExpenseCategories)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// withSecurity sets security headers, rate-limits mutating requests per
// client IP and records request metrics.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		if detectSuspiciousRequest(r, &s.security) {
			s.logger.WarnContext(ctx, "Suspicious request",
				"request_id", requestID, "client_ip", clientIP,
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if s.metrics != nil {
				s.metrics.ObserveHTTP(r.Method, rw.statusCode, time.Since(start))
			}
		}()

		setSecurityHeaders(rw)

		if r.Method != http.MethodGet && r.Method != http.MethodHead &&
			!s.rateLimiter.allow(clientIP, &s.security) {
			s.logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(rw)
			return
		}

		next.ServeHTTP(rw, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil || s.auth == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

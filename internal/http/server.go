// Package http exposes the JSON API: auth, groups, expenses, payments,
// balances, activity, and the receipt total helper.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"centsible/internal/auth"
	"centsible/internal/log"
	"centsible/internal/middleware/ratelimit"
	"centsible/internal/middleware/security"
	"centsible/internal/services"
)

// Deps carries everything the server needs. All services are required;
// the server does not degrade.
type Deps struct {
	Auth      *services.AuthService
	Groups    *services.GroupService
	Expenses  *services.ExpenseService
	Payments  *services.PaymentService
	Reporting *services.ReportingService
	Tokens    *auth.TokenManager
	Logger    *log.Logger
}

type Server struct {
	http.Server

	authService *services.AuthService
	groups      *services.GroupService
	expenses    *services.ExpenseService
	payments    *services.PaymentService
	reporting   *services.ReportingService
	tokens      *auth.TokenManager

	validate   *validator.Validate
	detector   *security.Detector
	limiter    *ratelimit.Limiter
	logger     *log.Logger
	structured *log.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		authService: deps.Auth,
		groups:      deps.Groups,
		expenses:    deps.Expenses,
		payments:    deps.Payments,
		reporting:   deps.Reporting,
		tokens:      deps.Tokens,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		detector:    security.NewDetector(),
		limiter:     ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:      deps.Logger.WithComponent(log.ComponentHTTP),
	}
	s.structured = log.NewStructuredLogger(s.logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	mux.Handle("POST /api/groups", s.requireAuth(s.handleCreateGroup))
	mux.Handle("GET /api/groups", s.requireAuth(s.handleListGroups))
	mux.Handle("POST /api/groups/join", s.requireAuth(s.handleJoinGroup))
	mux.Handle("GET /api/groups/{id}", s.requireAuth(s.handleGetGroup))
	mux.Handle("GET /api/groups/{id}/members", s.requireAuth(s.handleGroupMembers))
	mux.Handle("GET /api/groups/{id}/expenses", s.requireAuth(s.handleListGroupExpenses))
	mux.Handle("GET /api/groups/{id}/balance", s.requireAuth(s.handleGroupBreakdown))

	mux.Handle("POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	mux.Handle("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	mux.Handle("POST /api/payments", s.requireAuth(s.handleCreatePayment))

	mux.Handle("GET /api/balance", s.requireAuth(s.handleBalance))
	mux.Handle("GET /api/activity", s.requireAuth(s.handleActivity))

	mux.Handle("POST /api/receipts/suggest", s.requireAuth(s.handleReceiptSuggest))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = s.withRequestLog(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// withRequestLog logs request start and completion with a request id and
// flags probe-looking traffic.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := s.detector.ExtractClientIP(r)

		ctx := r.Context()
		requestID := generateRequestID()
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx = context.WithValue(ctx, log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		if s.detector.DetectSuspiciousRequest(r) {
			logger.WarnContext(ctx, "Suspicious request",
				"method", r.Method, "url", r.URL.Path, "client_ip", clientIP)
		}

		s.structured.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/services"
	"dompet/internal/storage"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Stores        storage.Provider
	Transactions  *services.TransactionService
	Summary       *services.SummaryService
	Ledger        *services.Ledger
	Notifications *services.NotificationService

	// Optional
	Metrics *metrics.Metrics
	Logger  *log.Logger

	DefaultUserID      string
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	stores        storage.Provider
	transactions  *services.TransactionService
	summary       *services.SummaryService
	ledger        *services.Ledger
	notifications *services.NotificationService
	metrics       *metrics.Metrics
	userID        string

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		stores:        d.Stores,
		transactions:  d.Transactions,
		summary:       d.Summary,
		ledger:        d.Ledger,
		notifications: d.Notifications,
		metrics:       d.Metrics,
		userID:        d.DefaultUserID,
		rateLimiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleEditTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/home", s.handleHome)
	mux.HandleFunc("POST /api/home/expenses", s.handleRecordExpense)
	mux.HandleFunc("POST /api/home/balance", s.handleAdjustBalance)
	mux.HandleFunc("PATCH /api/home/budget-limit", s.handleSetBudgetLimit)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications", s.handleCreateNotification)
	mux.HandleFunc("PATCH /api/notifications", s.handleMarkNotificationRead)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		s.metrics.RegisterGauge("http_rate_limit_clients", "Clients tracked by the rate limiter.", func() float64 {
			return float64(s.rateLimiter.ActiveClients())
		})
	}

	var handler http.Handler = mux
	if s.metrics != nil {
		handler = s.metrics.Middleware(handler)
	}

	clientIP := security.NewClientIPResolver()
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		if s.metrics != nil {
			s.metrics.RateLimited()
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, clientIP.ClientIP(r), log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	}
	handler = s.rateLimiter.Middleware(clientIP.ClientIP, onLimit, http.MethodPost, http.MethodPatch, http.MethodDelete)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(clientIP.ClientIP).Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store, err := s.stores.Get(ctx)
	if err == nil {
		err = store.Ping(ctx)
	}
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		ServiceUnavailableError("Store unavailable").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}


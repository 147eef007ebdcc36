// Package api exposes the JSON HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Chat        ChatService      // Required
	Todos       TodoService      // Required
	Events      EventService     // Required
	Notes       NoteService      // Required
	Goals       GoalService      // Required
	Habits      HabitService     // Required
	Expenses    ExpenseService   // Required
	Documents   DocumentService  // Required
	Dashboard   DashboardService // Required
	Pool        *pgxpool.Pool    // Optional: nil disables pool stats in /ready
	CORSOrigins []string         // Allowed origins for CORS
	IsDev       bool             // Disables HSTS
	TrustProxy  bool             // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int              // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{svc: cfg.Chat, logger: logger}
	th := &todoHandler{svc: cfg.Todos, logger: logger}
	eh := &eventHandler{svc: cfg.Events, logger: logger}
	nh := &noteHandler{svc: cfg.Notes, logger: logger}
	gh := &goalHandler{svc: cfg.Goals, logger: logger}
	hh := &habitHandler{svc: cfg.Habits, logger: logger}
	xh := &expenseHandler{svc: cfg.Expenses, logger: logger}
	dh := &documentHandler{svc: cfg.Documents, logger: logger}
	bh := &dashboardHandler{svc: cfg.Dashboard, logger: logger}

	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("GET /api/v1/chat/messages", ch.history)
	mux.HandleFunc("DELETE /api/v1/chat/messages", ch.clear)

	// Todos
	mux.HandleFunc("GET /api/v1/todos", th.list)
	mux.HandleFunc("POST /api/v1/todos", th.create)
	mux.HandleFunc("PATCH /api/v1/todos/{id}", th.update)
	mux.HandleFunc("DELETE /api/v1/todos/{id}", th.delete)

	// Calendar
	mux.HandleFunc("GET /api/v1/events", eh.list)
	mux.HandleFunc("POST /api/v1/events", eh.create)
	mux.HandleFunc("PUT /api/v1/events/{id}", eh.update)
	mux.HandleFunc("DELETE /api/v1/events/{id}", eh.delete)

	// Notes
	mux.HandleFunc("GET /api/v1/notes", nh.list)
	mux.HandleFunc("POST /api/v1/notes", nh.create)
	mux.HandleFunc("PUT /api/v1/notes/{id}", nh.update)
	mux.HandleFunc("DELETE /api/v1/notes/{id}", nh.delete)

	// Goals
	mux.HandleFunc("GET /api/v1/goals", gh.list)
	mux.HandleFunc("POST /api/v1/goals", gh.create)
	mux.HandleFunc("PATCH /api/v1/goals/{id}", gh.update)
	mux.HandleFunc("DELETE /api/v1/goals/{id}", gh.delete)

	// Habits
	mux.HandleFunc("GET /api/v1/habits", hh.list)
	mux.HandleFunc("POST /api/v1/habits", hh.create)
	mux.HandleFunc("POST /api/v1/habits/{id}/complete", hh.complete)
	mux.HandleFunc("DELETE /api/v1/habits/{id}", hh.delete)

	// Expenses
	mux.HandleFunc("GET /api/v1/expenses", xh.list)
	mux.HandleFunc("POST /api/v1/expenses", xh.create)
	mux.HandleFunc("GET /api/v1/expenses/summary", xh.summary)
	mux.HandleFunc("DELETE /api/v1/expenses/{id}", xh.delete)

	// Documents
	mux.HandleFunc("GET /api/v1/documents", dh.list)
	mux.HandleFunc("POST /api/v1/documents", dh.upload)
	mux.HandleFunc("POST /api/v1/documents/url", dh.ingestURL)
	mux.HandleFunc("GET /api/v1/documents/search", dh.search)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", dh.delete)

	// Dashboard
	mux.HandleFunc("GET /api/v1/dashboard", bh.get)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newIPLimiter(defaultRefillPerSec, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

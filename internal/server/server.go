// Package server provides the HTTP API for the Kredible verification workflow.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/db"
	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/server/middleware"
	"github.com/jonathan/kredible/internal/server/ratelimit"
)

// shutdownTimeout bounds how long in-flight requests get after a stop signal.
const shutdownTimeout = 30 * time.Second

// EmailService is everything the HTTP layer sends mail through.
type EmailService interface {
	Mailer
	SendTestEmail(ctx context.Context, to string) (*email.Receipt, error)
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store db.Store
	Email EmailService
	// JWT switches on dashboard authentication. Nil leaves the dashboard open.
	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
	// RateLimit overrides the environment-derived limiter settings.
	RateLimit *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         *config.Config
	store       db.Store
	requests    *RequestService
	email       EmailService
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	passwords   *config.PasswordConfig
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("server requires a store")
	}
	if deps.Email == nil {
		return nil, fmt.Errorf("server requires an email service")
	}

	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		email:     deps.Email,
		requests:  NewRequestService(deps.Store, deps.Email, cfg),
		passwords: deps.Passwords,
	}

	rlConfig := deps.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)

	if deps.JWT != nil {
		s.jwtService = NewJWTService(deps.JWT)
		if s.passwords == nil {
			passwords, err := config.NewPasswordConfig()
			if err != nil {
				return nil, fmt.Errorf("failed to create password config: %w", err)
			}
			s.passwords = passwords
		}
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the mux and wraps it in the middleware chain.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Recruiter flow
	mux.HandleFunc("POST /recruiter-request", s.handleCreateRequest)
	mux.HandleFunc("GET /recruiter-request", s.handleGetRequest)

	// Candidate flow
	mux.HandleFunc("POST /candidate-submit", s.handleCandidateSubmit)
	mux.HandleFunc("GET /candidate-submit", s.handleValidateToken)
	mux.HandleFunc("GET /candidate-form/{token}", s.handleCandidateForm)

	// Dashboard
	dashboard := http.NewServeMux()
	dashboard.HandleFunc("GET /dashboard/requests", s.handleDashboardRequests)
	dashboard.HandleFunc("GET /dashboard/profiles", s.handleDashboardProfiles)
	if s.cfg.DebugEndpoints {
		dashboard.HandleFunc("GET /debug/storage", s.handleDebugStorage)
		dashboard.HandleFunc("POST /debug/storage", s.handleDebugStorageAction)
	}
	protected := s.protect(dashboard)
	mux.Handle("/dashboard/", protected)
	if s.cfg.DebugEndpoints {
		mux.Handle("/debug/", protected)
	}

	// Operations
	mux.HandleFunc("POST /test-email", s.handleTestEmail)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRecovery(s.withCORS(s.withRateLimit(s.withLogging(mux))))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// protect puts h behind bearer authentication when dashboard auth is enabled.
func (s *Server) protect(h http.Handler) http.Handler {
	if s.jwtService == nil {
		return h
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[http] Server starting on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("[http] Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	log.Println("[http] Server stopped")
	return err
}

// Start serves until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// withCORS applies the configured origin policy.
func (s *Server) withCORS(next http.Handler) http.Handler {
	origins := s.cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	})(next)
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// withRecovery turns a handler panic into a generic 500.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("[http] Panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				s.errorResponse(w, http.StatusInternalServerError, MsgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": s.cfg.StorageDriver,
		"auth":    s.jwtService != nil,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[http] Error encoding JSON response: %v", err)
	}
}

// errorResponse writes the failure envelope.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, envelope{Success: false, Error: message})
}

// failure maps err to its status and public message. Server-side faults are logged.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[http] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	s.errorResponse(w, status, PublicMessage(err))
}

// extractClientID uses the IP address from RemoteAddr.
// X-Forwarded-For is ignored since the service is not deployed behind a trusted proxy.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"success":   false,
		"error":     "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

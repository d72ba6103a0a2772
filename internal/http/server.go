// Package http serves the ComCard JSON API.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/ggonsajang/comcard/internal/artifact"
	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/export"
	"github.com/ggonsajang/comcard/internal/handoff"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/metrics"
	"github.com/ggonsajang/comcard/internal/middleware/ratelimit"
	"github.com/ggonsajang/comcard/internal/middleware/security"
	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/session"
	"github.com/ggonsajang/comcard/internal/store"
)

// ExportsPath is where generated files are downloaded from.
const ExportsPath = "/api/exports"

// Exporter runs an interactive export.
type Exporter interface {
	Export(ctx context.Context, p report.Period, alsoMail bool, h handoff.Handoff) (*export.Result, error)
}

// Backup is the backup-on-write path.
type Backup interface {
	Trigger(ctx context.Context)
	Run(ctx context.Context) (*export.BackupResult, error)
}

// Authenticator opens and checks sessions.
type Authenticator interface {
	Login(ctx context.Context, password string) (session.Token, error)
	Authenticated(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
}

// FormState remembers the last form values.
type FormState interface {
	Defaults(ctx context.Context) (session.FormDefaults, error)
	SaveDefaults(ctx context.Context, d session.FormDefaults) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server. Backup may be nil when
// backups are disabled.
type Deps struct {
	Store        store.ExpenseStore
	Exporter     Exporter
	Backup       Backup
	Artifacts    artifact.Store
	Auth         Authenticator
	State        FormState
	Pingers      []Pinger
	Logger       *log.Logger
	RateLimitRPM int
	SecureCookie bool
}

type Server struct {
	http.Server
	deps         Deps
	validate     *validator.Validate
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		deps:     deps,
		validate: newValidator(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{PerWindow: deps.RateLimitRPM}),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.deps.Logger))
	r.Use(log.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Handler(ratelimit.Rule{Key: clientIP, Match: isWrite, Reject: s.handleRateLimited}))

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Put("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Get("/form-defaults", s.handleFormDefaults)
			r.Get("/options", handleOptions)
			r.Post("/receipts", s.handleUploadReceipt)

			r.Post("/exports", s.handleExport)
			r.Get("/exports/{key}", s.handleDownload)
			r.Post("/backups", s.handleBackup)
		})
	})
	return r
}

// Shutdown stops the rate limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimitedTotal.Inc()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate_limited", "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
}

// clientIP returns the address set by middleware.RealIP without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isWrite(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings every backend connection.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := 0
	for _, p := range s.deps.Pingers {
		if err := p.Ping(ctx); err != nil {
			failed++
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		}
	}
	if failed > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type optionsResponse struct {
	Categories []core.Category `json:"categories"`
	WorkTypes  []core.WorkType `json:"workTypes"`
	Periods    []report.Period `json:"periods"`
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Categories: core.Categories(),
		WorkTypes:  core.WorkTypes(),
		Periods:    report.Periods(),
	})
}

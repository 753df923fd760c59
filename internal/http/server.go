package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"myrupee/internal/auth"
	"myrupee/internal/dashboard"
	applog "myrupee/internal/log"
	"myrupee/internal/middleware/ratelimit"
	"myrupee/internal/middleware/security"
	"myrupee/internal/middleware/trace"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 5 << 20
)

// Deps are the collaborators the API serves.
type Deps struct {
	Auth     *auth.Service
	Sessions *dashboard.Registry
	// Ready reports whether backing stores are reachable. Nil means always
	// ready.
	Ready      func(ctx context.Context) error
	Logger     *applog.Logger
	RateLimit  ratelimit.Config
	SessionTTL time.Duration
}

// Server is the JSON API. It embeds http.Server so callers can
// ListenAndServe directly.
type Server struct {
	http.Server

	auth       *auth.Service
	sessions   *dashboard.Registry
	ready      func(ctx context.Context) error
	logger     *applog.Logger
	events     *applog.StructuredLogger
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	sessionTTL time.Duration
	started    time.Time
	now        func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	s := &Server{
		auth:       deps.Auth,
		sessions:   deps.Sessions,
		ready:      deps.Ready,
		logger:     logger,
		events:     applog.NewStructuredLogger(logger),
		limiter:    ratelimit.NewLimiter(deps.RateLimit),
		detector:   security.NewDetector(),
		sessionTTL: ttl,
		started:    time.Now(),
		now:        time.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.events)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /auth/signout", s.handleSignOut)

	mux.HandleFunc("GET /api/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/theme", s.handleSetTheme)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)

	mux.Handle("GET /api/me", s.requireSession(s.handleMe))
	mux.Handle("GET /api/dashboard", s.requireSession(s.handleDashboard))
	mux.Handle("GET /api/transactions", s.requireSession(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.requireSession(s.handleCreateTransaction))
	mux.Handle("POST /api/transactions/import", s.requireSession(s.handleImport))
	mux.Handle("GET /api/transactions/export", s.requireSession(s.handleExport))
	mux.Handle("POST /api/balance/reset", s.requireSession(s.handleResetBalance))

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, isMutating, s.onRateLimited)(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func isMutating(r *http.Request) bool {
	return r.Method != http.MethodGet && r.Method != http.MethodHead && r.Method != http.MethodOptions
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

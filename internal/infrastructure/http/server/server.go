package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"sellerpromotions/admin-api/internal/infrastructure/config"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
	"sellerpromotions/admin-api/internal/infrastructure/metrics"
)

const defaultShutdownTimeout = 30 * time.Second

// Route mounts a router group below /api. Several routes may share a prefix.
type Route struct {
	Prefix   string
	Register func(r chi.Router)
}

// Options configures the HTTP server.
type Options struct {
	Config  config.AppConfig
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Authenticator guards every /api route. Nil leaves /api open, which only
	// tests rely on.
	Authenticator func(http.Handler) http.Handler
	HealthHandler http.Handler
	Routes        []Route
}

// Server wraps the HTTP server and its router.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New builds the router: /health and /metrics stay public, everything below
// /api goes through the authenticator.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if opts.Authenticator != nil {
			api.Use(opts.Authenticator)
		}
		for _, group := range groupByPrefix(opts.Routes) {
			registers := group.registers
			api.Route(group.prefix, func(sub chi.Router) {
				for _, register := range registers {
					register(sub)
				}
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found", nil, opts.Logger)
	})

	shutdownTimeout := opts.Config.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &Server{
		log: opts.Logger,
		httpServer: &http.Server{
			Addr:         opts.Config.HTTP.Address(),
			Handler:      r,
			ReadTimeout:  opts.Config.HTTP.ReadTimeout,
			WriteTimeout: opts.Config.HTTP.WriteTimeout,
			IdleTimeout:  opts.Config.HTTP.IdleTimeout,
		},
		shutdownTimeout: shutdownTimeout,
	}, nil
}

type prefixGroup struct {
	prefix    string
	registers []func(chi.Router)
}

// groupByPrefix keeps the first-seen order of prefixes; chi rejects mounting
// the same prefix twice.
func groupByPrefix(routes []Route) []prefixGroup {
	var groups []prefixGroup
	index := map[string]int{}
	for _, route := range routes {
		if route.Register == nil {
			continue
		}
		i, ok := index[route.Prefix]
		if !ok {
			i = len(groups)
			index[route.Prefix] = i
			groups = append(groups, prefixGroup{prefix: route.Prefix})
		}
		groups[i].registers = append(groups[i].registers, route.Register)
	}
	return groups
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server", "timeout", s.shutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

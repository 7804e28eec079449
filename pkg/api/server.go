// Package api serves reqlab over HTTP: cURL import and export, snippet
// generation, the request proxy, sharing, and per-user saved requests,
// collections and history.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/logging"
	"github.com/reqlab/reqlab/pkg/metrics"
	"github.com/reqlab/reqlab/pkg/proxy"
	"github.com/reqlab/reqlab/pkg/ratelimit"
	"github.com/reqlab/reqlab/pkg/share"
)

// UserHeader carries the caller's user id, set by the auth layer in front of
// the API.
const UserHeader = "X-User-ID"

// Server is the reqlab HTTP API.
type Server struct {
	store     storage.Store
	shares    *share.Service
	proxy     *proxy.Executor
	limiter   *ratelimit.Limiter
	registry  *metrics.Registry
	metrics   *metrics.Collectors
	log       *slog.Logger
	cors      CORSConfig
	version   string
	startTime time.Time

	handler    http.Handler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = logging.OrNop(log) }
}

// WithShareService replaces the default share service.
func WithShareService(svc *share.Service) Option {
	return func(s *Server) { s.shares = svc }
}

// WithProxy replaces the default proxy executor.
func WithProxy(ex *proxy.Executor) Option {
	return func(s *Server) { s.proxy = ex }
}

// WithRateLimiter throttles the proxy endpoint per user, or per client
// address for anonymous callers.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithMetrics registers the server's collectors on reg and exposes it at
// GET /metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithCORS sets the CORS policy. The default allows all origins.
func WithCORS(cfg CORSConfig) Option {
	return func(s *Server) { s.cors = cfg }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a Server over store.
func New(store storage.Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		log:       logging.Nop(),
		cors:      DefaultCORSConfig(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shares == nil {
		s.shares = share.NewService(store, "http://localhost:8080", share.WithLogger(s.log))
	}
	if s.proxy == nil {
		s.proxy = proxy.NewExecutor(proxy.DefaultTimeout, proxy.WithLogger(s.log))
	}
	if s.registry != nil {
		s.metrics = metrics.NewCollectors(s.registry)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = s.withMiddleware(mux)
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return s
}

// Handler returns the API with its middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on l until Shutdown is called. A Server serves
// at most once.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("api listening", "addr", l.Addr().String())
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown gracefully stops the server. It does not close the store.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tomlord1122/todos-api/internal/config"
	"github.com/Tomlord1122/todos-api/internal/metrics"
	"github.com/Tomlord1122/todos-api/internal/service"
)

// HealthChecker reports storage health. status "down" turns /health into a 503.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	cfg         *config.Config
	todoService service.TodoService
	health      HealthChecker
	log         *slog.Logger
	metrics     metrics.Recorder
	gatherer    prometheus.Gatherer
	limiter     *RateLimiter
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithMetrics records traffic into rec and, when gatherer is non-nil,
// exposes it on /metrics.
func WithMetrics(rec metrics.Recorder, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = rec
		s.gatherer = gatherer
	}
}

// New assembles a Server. Call Close to stop background work.
func New(cfg *config.Config, todoService service.TodoService, health HealthChecker, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		todoService: todoService,
		health:      health,
		log:         slog.Default(),
		metrics:     metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(DefaultRateLimiterConfig(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	return s
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// NewServer wraps the routes in an *http.Server configured from cfg.
func NewServer(cfg *config.Config, todoService service.TodoService, health HealthChecker, opts ...Option) *http.Server {
	appServer := New(cfg, todoService, health, opts...)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  cfg.IdleTimeout.Duration,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		ErrorLog:     slog.NewLogLogger(appServer.log.Handler(), slog.LevelError),
	}
	server.RegisterOnShutdown(appServer.Close)

	return server
}

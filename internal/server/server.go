// internal/server/server.go
// Package server exposes the assessment HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/observability"
	"aiq-assessment/internal/content"
	"aiq-assessment/internal/ratelimit"
	"aiq-assessment/internal/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	maxBodyBytes = 64 << 10
)

// AssessmentStore persists scored submissions. *store.Store satisfies it.
type AssessmentStore interface {
	Save(ctx context.Context, result *assessment.Result) error
	Get(ctx context.Context, id string) (*store.Record, error)
}

// RateLimiter decides whether a client may submit. *ratelimit.Limiter satisfies it.
type RateLimiter interface {
	Allow(ctx context.Context, ip string) ratelimit.Decision
}

// LeadDispatcher hands stored results to the lead pipeline without blocking.
type LeadDispatcher interface {
	Dispatch(result *assessment.Result)
}

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	Config        config.ServerConfig
	Content       *content.Registry
	Engine        *assessment.Engine
	Store         AssessmentStore
	Limiter       RateLimiter
	Leads         LeadDispatcher
	Checks        []ReadinessCheck
	Logger        logger.Logger
	Observability *observability.Observability

	// NewID and Now default to random UUIDs and time.Now.
	NewID func() string
	Now   func() time.Time
}

type Server struct {
	cfg     config.ServerConfig
	content *content.Registry
	engine  *assessment.Engine
	store   AssessmentStore
	limiter RateLimiter
	leads   LeadDispatcher
	checks  []ReadinessCheck
	logger  logger.Logger
	obs     *observability.Observability
	newID   func() string
	now     func() time.Time

	handler    http.Handler
	httpServer *http.Server
}

func New(opts Options) (*Server, error) {
	if opts.Content == nil {
		return nil, fmt.Errorf("content registry is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("assessment store is required")
	}

	s := &Server{
		cfg:     opts.Config,
		content: opts.Content,
		engine:  opts.Engine,
		store:   opts.Store,
		limiter: opts.Limiter,
		leads:   opts.Leads,
		checks:  opts.Checks,
		logger:  opts.Logger,
		obs:     opts.Observability,
		newID:   opts.NewID,
		now:     opts.Now,
	}
	if s.engine == nil {
		s.engine = assessment.NewEngine(opts.Content)
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	s.logger = s.logger.With(map[string]interface{}{"component": "http"})
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("POST /preview", s.handlePreview)
	mux.HandleFunc("GET /content/{industry}", s.handleContent)
	mux.HandleFunc("GET /industries", s.handleIndustries)
	mux.HandleFunc("GET /assessments/{id}", s.handleGetAssessment)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleNotFound)

	s.handler = s.withCORS(s.withMetrics(s.withLogging(s.withRecovery(mux))))

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  millisOr(s.cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: millisOr(s.cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), millisOr(s.cfg.ShutdownTimeout, defaultShutdownTimeout))
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func millisOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/health"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/router"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

const (
	routeKey         = "route"
	cacheHeader      = "X-Cache"
	defaultMediaType = "text/html; charset=utf-8"
	notFoundBody     = "<!DOCTYPE html><html><head><title>Not Found</title></head>" +
		"<body><h1>404 Not Found</h1><p>The requested page does not exist.</p></body></html>"
)

// Dispatcher resolves a raw URI. *router.Router implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, rawURI string, ambient router.Ambient) (*router.Resolution, error)
}

// Server is the HTTP host. Every request that does not hit a built-in
// endpoint is handed to the dispatcher.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	dispatcher  Dispatcher
	config      *config.ServerConfig
	logger      observability.Logger
	metrics     *observability.Metrics
	health      *health.Checker
	uploadLimit int64

	mu      sync.RWMutex
	running bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the registry on config.MetricsPath.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealth serves liveness on /healthz and readiness on /readyz.
func WithHealth(c *health.Checker) Option {
	return func(s *Server) {
		s.health = c
	}
}

// WithUploadLimit caps each uploaded file.
func WithUploadLimit(limit int64) Option {
	return func(s *Server) {
		s.uploadLimit = limit
	}
}

// New creates the HTTP host. A nil cfg uses the defaults.
func New(cfg *config.ServerConfig, d Dispatcher, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig().Spec.Server
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:      gin.New(),
		dispatcher:  d,
		config:      cfg,
		logger:      observability.NopLogger(),
		uploadLimit: config.DefaultUploadMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(requestID(), logging(s.logger), recovery(s.logger), securityHeaders(cfg.Headers))
	if cfg.MaxBodySize > 0 {
		s.engine.Use(maxBodySize(cfg.MaxBodySize))
	}

	if s.health == nil {
		s.health = health.NewChecker("")
	}
	s.engine.GET("/healthz", gin.WrapF(s.health.HealthHandler()))
	s.engine.GET("/readyz", gin.WrapF(s.health.ReadinessHandler()))
	if s.metrics != nil && cfg.MetricsPath != "" {
		s.engine.GET(cfg.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}
	s.engine.NoRoute(s.handleDispatch)

	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout.Duration(),
		WriteTimeout: s.config.WriteTimeout.Duration(),
		IdleTimeout:  s.config.IdleTimeout.Duration(),
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", s.config.Address),
		observability.Duration("readTimeout", s.config.ReadTimeout.Duration()),
		observability.Duration("writeTimeout", s.config.WriteTimeout.Duration()),
	)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) handleDispatch(c *gin.Context) {
	ambient, err := AmbientFromRequest(c.Request, s.uploadLimit)
	if err != nil {
		_ = c.Error(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.String(http.StatusBadRequest, "malformed request")
		return
	}

	res, err := s.dispatcher.Dispatch(c.Request.Context(), c.Request.URL.RequestURI(), ambient)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			c.Data(http.StatusNotFound, defaultMediaType, []byte(notFoundBody))
			return
		}
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.Set(routeKey, res.Route.Name)
	writeResponse(c, res)
}

func writeResponse(c *gin.Context, res *router.Resolution) {
	resp := res.Request.Response
	h := c.Writer.Header()
	for name, values := range resp.Header {
		h.Del(name)
		for _, v := range values {
			h.Add(name, v)
		}
	}
	if res.Replayed {
		h.Set(cacheHeader, "HIT")
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = defaultMediaType
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.Data(status, mediaType, resp.Body())
}

package main

import (
	"context"
	"time"

	"github.com/vyrodovalexey/avactions/internal/cache"
	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/health"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/router"
	"github.com/vyrodovalexey/avactions/internal/security"
	"github.com/vyrodovalexey/avactions/internal/server"
	"github.com/vyrodovalexey/avactions/internal/site"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// application holds all application components.
type application struct {
	config  *config.ActionsConfig
	logger  observability.Logger
	caches  *cache.Providers
	router  *router.Router
	server  *server.Server
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// newApplication builds the route table from cfg and freezes it.
func newApplication(cfg *config.ActionsConfig, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("actions")
	metrics.SetBuildInfo(version, gitCommit)
	registerMetrics(metrics)

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, util.WrapError(err, "tracer")
	}

	caches, err := cache.NewProviders(cfg.Spec.Cache, logger)
	if err != nil {
		return nil, util.WrapError(err, "cache")
	}

	guard, err := security.NewGuard(cfg.Spec.Security, logger)
	if err != nil {
		_ = caches.Close()
		return nil, util.WrapError(err, "security")
	}

	demo, err := site.New(cfg.Spec.Site, guard, logger)
	if err != nil {
		_ = caches.Close()
		return nil, err
	}
	registry := router.NewHandlerRegistry()
	demo.Register(registry)

	r := router.New(registry, guard,
		router.WithCaches(caches),
		router.WithLogger(logger),
	)
	if err := r.Load(cfg.Spec.Routes); err != nil {
		_ = caches.Close()
		return nil, util.WrapError(err, "routes")
	}
	r.Freeze()

	logger.Info("route table frozen",
		observability.Int("routes", len(r.Routes())),
		observability.Strings("handlers", registry.List()),
	)

	srv := server.New(cfg.Spec.Server, r,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithHealth(newHealthChecker(caches)),
		server.WithUploadLimit(cfg.Spec.Security.Upload.MaxSize),
	)

	return &application{
		config:  cfg,
		logger:  logger,
		caches:  caches,
		router:  r,
		server:  srv,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// readinessProbeKey is looked up by cache readiness checks.
const readinessProbeKey = "readiness-probe"

// newHealthChecker reports each cache provider. Cache failures degrade
// dispatch to misses, so the checks are not critical.
func newHealthChecker(caches *cache.Providers) *health.Checker {
	checker := health.NewChecker(version)
	for _, name := range caches.Names() {
		c, _ := caches.Get(name)
		checker.RegisterCheck("cache."+name, false, func(ctx context.Context) error {
			_, err := c.Exists(ctx, readinessProbeKey)
			return err
		})
	}
	return checker
}

// registerMetrics registers every package's collectors with the exposed
// registry.
func registerMetrics(m *observability.Metrics) {
	routerMetrics := router.GetMetrics()
	routerMetrics.Init()
	routerMetrics.MustRegister(m.Registry())

	cacheMetrics := cache.GetCacheMetrics()
	cacheMetrics.Init()
	cacheMetrics.MustRegister(m.Registry())

	securityMetrics := security.GetSecurityMetrics()
	securityMetrics.Init()
	securityMetrics.MustRegister(m.Registry())
}

// initTracer initializes the tracer.
func initTracer(cfg *config.ActionsConfig) (*observability.Tracer, error) {
	tc := cfg.Spec.Tracing
	return observability.NewTracer(observability.TracerConfig{
		ServiceName:    tc.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   tc.OTLPEndpoint,
		SamplingRate:   tc.SamplingRate,
		Enabled:        tc.Enabled,
		Insecure:       tc.Insecure,
	})
}

// run serves HTTP until ctx is cancelled and then shuts down.
func (a *application) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return err
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Spec.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Error("failed to stop server gracefully", observability.Error(err))
	}
	a.close(shutdownCtx)
	a.logger.Info("avactions stopped")
	return <-errCh
}

// close releases the cache connections and flushes the tracer.
func (a *application) close(ctx context.Context) {
	stats := a.caches.Stats()
	for _, name := range a.caches.Names() {
		if s, ok := stats[name]; ok {
			a.logger.Info("cache provider stats",
				observability.String("provider", name),
				observability.Int("hits", int(s.Hits)),
				observability.Int("misses", int(s.Misses)),
				observability.Float64("hit_rate", s.HitRate()))
		}
	}
	if err := a.caches.Close(); err != nil {
		a.logger.Error("failed to close cache providers", observability.Error(err))
	}
	tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(tctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}

// configuredLogger rebuilds the logger from the logging section. Flags set
// on the command line win over the file.
func configuredLogger(flags cliFlags, cfg *config.LoggingConfig) (observability.Logger, error) {
	lc := observability.LogConfig{Level: cfg.Level, Format: cfg.Format, Output: cfg.Output}
	if flags.logLevel != "" {
		lc.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		lc.Format = flags.logFormat
	}
	if flags.uri != "" {
		lc.Output = "stderr"
	}
	return observability.NewLogger(lc)
}

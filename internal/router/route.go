package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avactions/internal/cache"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/security"
	"github.com/vyrodovalexey/avactions/internal/timeout"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// Reasons recorded for NotProductive runs.
const (
	reasonNotProductive  = "handler not productive"
	reasonCSRF           = "csrf check failed"
	reasonNotRegistered  = "route is not registered"
	reasonCachedRejected = "cached outcome not productive"
)

// CachePolicy enables full-response caching for a route.
type CachePolicy struct {
	// Provider names a cache provider.
	Provider string
	// KeyPrefix defaults to the route name.
	KeyPrefix string
	// TTL of zero uses the provider default.
	TTL time.Duration
}

// Route binds a RequestSpec to a handler token. It is immutable once
// registered.
type Route struct {
	Name       string
	Handler    string
	Spec       *RequestSpec
	Cache      *CachePolicy
	BruteForce *BruteForcePolicy
	// Timeout is the cooperative handler budget. Zero means none.
	Timeout time.Duration

	deps *deps
}

// RouteOption configures a Route.
type RouteOption func(*Route)

// WithCache enables response caching.
func WithCache(provider, keyPrefix string, ttl time.Duration) RouteOption {
	return func(r *Route) {
		r.Cache = &CachePolicy{Provider: provider, KeyPrefix: keyPrefix, TTL: ttl}
	}
}

// WithBruteForce throttles NotProductive outcomes.
func WithBruteForce(lo, hi time.Duration) RouteOption {
	return func(r *Route) {
		r.BruteForce = &BruteForcePolicy{Min: lo, Max: hi}
	}
}

// WithTimeout sets the handler budget.
func WithTimeout(d time.Duration) RouteOption {
	return func(r *Route) {
		r.Timeout = d
	}
}

// NewRoute creates a route. A nil spec matches only the root path.
func NewRoute(name, handler string, spec *RequestSpec, opts ...RouteOption) *Route {
	if spec == nil {
		spec = NewRequestSpec()
	}
	r := &Route{Name: name, Handler: handler, Spec: spec}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunResult is the terminal state of one Run.
type RunResult struct {
	Outcome  Outcome
	Replayed bool
	// Reason explains a NotProductive outcome.
	Reason string
	// Stage is the util.Stage* at which a NotProductive run stopped.
	Stage string
}

func (r *Route) keyPrefix() string {
	if r.Cache.KeyPrefix != "" {
		return r.Cache.KeyPrefix
	}
	return r.Name
}

// cacheEntry returns the provider and key for values, or nil when the
// route is not cached or its provider is gone.
func (r *Route) cacheEntry(values Values, files map[string]*security.UploadedFile, header http.Header) (cache.Cache, string) {
	if r.Cache == nil || r.deps == nil || r.deps.caches == nil {
		return nil, ""
	}
	store, ok := r.deps.caches.Get(r.Cache.Provider)
	if !ok {
		r.deps.logger.Warn("cache provider not found",
			observability.String("route", r.Name),
			observability.String("provider", r.Cache.Provider))
		return nil, ""
	}
	prefix := r.keyPrefix()
	return store, cache.Key(r.deps.caches.Namespace(), prefix, r.Spec.CacheKey(prefix, values, files, header))
}

// Run executes the route for a request whose values were already
// extracted and validated.
func (r *Route) Run(ctx context.Context, req *Request) RunResult {
	d := r.deps
	if d == nil {
		return RunResult{Outcome: NotProductive, Reason: reasonNotRegistered, Stage: util.StageHandler}
	}

	ctx, span := d.tracer.Start(ctx, "router.Route.Run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("route.name", r.Name),
			attribute.String("route.handler", r.Handler),
		),
	)
	defer span.End()

	logger := d.logger.WithContext(ctx)

	store, key := r.cacheEntry(req.values, req.files, req.Ambient.Header)
	if store != nil {
		if res, ok := r.replay(ctx, store, key, req, logger); ok {
			span.SetAttributes(attribute.Bool("route.replayed", true))
			return res
		}
	}

	h, ok := d.registry.Lookup(r.Handler)
	if !ok {
		err := util.NewHandlerMissingError(r.Name, r.Handler)
		logger.Error("handler missing", observability.Error(err))
		span.SetStatus(codes.Error, err.Error())
		return RunResult{Outcome: NotProductive, Reason: err.Error(), Stage: util.StageHandler}
	}

	if r.Spec.CSRF && !d.guard.CheckRequestCsrf(req.Ambient.csrfRequest()) {
		logger.Debug("csrf check failed")
		return RunResult{Outcome: NotProductive, Reason: reasonCSRF, Stage: util.StageIdentity}
	}

	outcome := r.invoke(ctx, h, req, logger)
	span.SetAttributes(attribute.String("route.outcome", outcome.String()))

	if store != nil {
		r.store(ctx, store, key, outcome, req, logger)
	}

	if r.BruteForce != nil && outcome == NotProductive {
		delay := r.BruteForce.Delay()
		logger.Info("throttling failed attempt", observability.Duration("delay", delay))
		d.metrics.bruteForceDelays.WithLabelValues(r.Name).Inc()
		d.sleep(ctx, delay)
	}

	if outcome == NotProductive {
		return RunResult{Outcome: NotProductive, Reason: reasonNotProductive, Stage: util.StageHandler}
	}
	return RunResult{Outcome: Productive}
}

func (r *Route) replay(ctx context.Context, store cache.Cache, key string, req *Request, logger observability.Logger) (RunResult, bool) {
	data, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheDisabled) {
			logger.Warn("cache read failed, treating as miss",
				observability.String("provider", r.Cache.Provider),
				observability.Error(err))
		}
		return RunResult{}, false
	}

	outcome, snapshot, err := decodeEnvelope(data)
	if err != nil {
		logger.Warn("cached entry unreadable, treating as miss",
			observability.String("key", key),
			observability.Error(err))
		return RunResult{}, false
	}

	req.Response.Restore(snapshot)
	r.deps.metrics.cacheReplays.WithLabelValues(r.Name).Inc()
	logger.Debug("replayed cached response", observability.String("outcome", outcome.String()))

	res := RunResult{Outcome: outcome, Replayed: true}
	if outcome == NotProductive {
		res.Reason = reasonCachedRejected
		res.Stage = util.StageHandler
	}
	return res, true
}

func (r *Route) store(ctx context.Context, store cache.Cache, key string, outcome Outcome, req *Request, logger observability.Logger) {
	data, err := encodeEnvelope(outcome, req.Response)
	if err != nil {
		logger.Warn("response not cacheable", observability.Error(err))
		return
	}
	if err := store.Set(ctx, key, data, r.Cache.TTL); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		logger.Warn("cache write failed",
			observability.String("provider", r.Cache.Provider),
			observability.Error(err))
	}
}

// invoke runs h within the route's budget.
func (r *Route) invoke(ctx context.Context, h Handler, req *Request, logger observability.Logger) Outcome {
	hctx, cancel := timeout.NewBudget(r.Timeout).Context(ctx)
	defer cancel()

	start := time.Now()
	outcome := h.Handle(hctx, req)
	elapsed := time.Since(start)

	r.deps.metrics.handlerDuration.WithLabelValues(r.Name, outcome.String()).Observe(elapsed.Seconds())
	if timeout.Exceeded(hctx) {
		logger.Warn("handler exceeded its budget",
			observability.Duration("elapsed", elapsed),
			observability.Error(util.NewTimeoutError(r.Name, r.Timeout)))
	}
	return outcome
}

// ClearCache deletes the cached entry for values. Entries keyed on an
// uploaded file are not addressable here and expire by TTL.
func (r *Route) ClearCache(ctx context.Context, values Values, header http.Header) error {
	if r.Cache == nil {
		return nil
	}
	store, key := r.cacheEntry(values, nil, header)
	if store == nil {
		return fmt.Errorf("route %s: %w", r.Name, util.ErrCacheUnavailable)
	}
	return store.Delete(ctx, key)
}

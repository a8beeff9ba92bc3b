package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avactions/internal/cache"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// routerTracerName is the OpenTelemetry tracer name for dispatch.
const routerTracerName = "avactions/router"

// Router errors.
var (
	// ErrTableFrozen is returned by Register after Freeze.
	ErrTableFrozen = errors.New("route table is frozen")

	// ErrRouteUnknown is returned when a route name is not registered.
	ErrRouteUnknown = errors.New("route not registered")
)

// CacheResolver looks up cache providers by name. *cache.Providers
// implements it.
type CacheResolver interface {
	Get(name string) (cache.Cache, bool)
	Namespace() string
}

// deps are the collaborators shared by every registered route.
type deps struct {
	registry *HandlerRegistry
	guard    SecurityChecker
	caches   CacheResolver
	logger   observability.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	sleep    SleepFunc
}

// Router is the route table and dispatcher. Routes are registered during
// start-up; after Freeze the table is read-only and Dispatch may be called
// from any number of goroutines.
type Router struct {
	mu     sync.RWMutex
	routes []*Route
	index  map[string]int
	frozen bool

	deps  *deps
	newID func() string
}

// Option configures a Router.
type Option func(*Router)

// WithCaches sets the cache providers used by cached routes.
func WithCaches(c CacheResolver) Option {
	return func(r *Router) {
		r.deps.caches = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Router) {
		r.deps.logger = logger
	}
}

// WithSleep replaces the brute-force sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(r *Router) {
		r.deps.sleep = sleep
	}
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Router) {
		r.newID = fn
	}
}

// New creates an empty router.
func New(registry *HandlerRegistry, guard SecurityChecker, opts ...Option) *Router {
	r := &Router{
		index: make(map[string]int),
		deps: &deps{
			registry: registry,
			guard:    guard,
			logger:   observability.NopLogger(),
			metrics:  GetMetrics(),
			tracer:   otel.Tracer(routerTracerName),
			sleep:    sleepContext,
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.deps.registry == nil {
		r.deps.registry = NewHandlerRegistry()
	}
	return r
}

// Register adds route to the table. A route with an existing name replaces
// the earlier one and takes over its position.
func (r *Router) Register(route *Route) error {
	if route == nil || route.Name == "" {
		return fmt.Errorf("%w: route name is required", util.ErrInvalidInput)
	}
	if err := route.Spec.Validate(); err != nil {
		return fmt.Errorf("route %s: %w", route.Name, err)
	}
	if bf := route.BruteForce; bf != nil && (bf.Min < 0 || bf.Min > bf.Max) {
		return fmt.Errorf("route %s: brute-force range [%s, %s] is invalid", route.Name, bf.Min, bf.Max)
	}
	if route.Cache != nil {
		if r.deps.caches == nil {
			return fmt.Errorf("route %s: %w", route.Name, util.ErrCacheUnavailable)
		}
		if _, ok := r.deps.caches.Get(route.Cache.Provider); !ok {
			return fmt.Errorf("route %s: unknown cache provider %q", route.Name, route.Cache.Provider)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrTableFrozen
	}

	if !r.deps.registry.Has(route.Handler) {
		r.deps.logger.Warn("route handler not registered yet",
			observability.String("route", route.Name),
			observability.String("handler", route.Handler))
	}

	route.deps = r.deps
	if i, ok := r.index[route.Name]; ok {
		r.deps.logger.Warn("route overridden", observability.String("route", route.Name))
		r.routes[i] = route
		return nil
	}
	r.index[route.Name] = len(r.routes)
	r.routes = append(r.routes, route)
	return nil
}

// Freeze makes the table read-only.
func (r *Router) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Router) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Routes returns the routes in registration order.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Lookup returns the route registered under name.
func (r *Router) Lookup(name string) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.routes[i], true
}

// Resolution is the terminal state of a dispatch.
type Resolution struct {
	Status Status
	// Route is the productive route, nil when NotFound.
	Route *Route
	// Replayed is true when the response came from the cache.
	Replayed bool
	Request  *Request
	// Attempts lists every rejected candidate in the order tried.
	Attempts []util.Attempt
}

// SplitURI strips the query string and fragment, trims surrounding slashes
// and splits the path into unescaped segments. The root path yields none.
func SplitURI(rawURI string) []string {
	path := rawURI
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			parts[i] = u
		}
	}
	return parts
}

// candidates returns the structurally matching routes in registration order.
func (r *Router) candidates(segments []string) []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Route
	for _, route := range r.routes {
		if route.Spec.IsCurrentRequest(segments) {
			out = append(out, route)
		}
	}
	return out
}

// Dispatch resolves rawURI to one productive route. A NotFound result is
// accompanied by a *util.RouteNotFoundError carrying the same attempts.
// Candidates run strictly one after the other. A request id already on ctx
// is reused.
func (r *Router) Dispatch(ctx context.Context, rawURI string, ambient Ambient) (*Resolution, error) {
	segments := SplitURI(rawURI)
	id := util.RequestIDFromContext(ctx)
	if id == "" {
		id = r.newID()
	}
	req := newRequest(id, rawURI, segments, ambient)

	ctx = util.ContextWithStartTime(util.ContextWithRequestID(ctx, req.ID), time.Now())
	ctx, span := r.deps.tracer.Start(ctx, "router.Dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("request.id", req.ID),
			attribute.String("request.uri", rawURI),
			attribute.Int("request.segments", len(segments)),
		),
	)
	defer span.End()

	logger := r.deps.logger.WithContext(ctx)
	res := &Resolution{Status: NotFound, Request: req}

	candidates := r.candidates(segments)
	span.SetAttributes(attribute.Int("dispatch.candidates", len(candidates)))

	for i, route := range candidates {
		cctx := util.ContextWithCandidate(util.ContextWithRoute(ctx, route.Name), i)
		req.Response.Reset()

		values, files, check := route.Spec.ExtractAndValidate(req, r.deps.guard)
		if !check.OK {
			r.reject(res, route, util.StageSecurity, check.String(), logger)
			continue
		}

		req.bind(route, values, files)
		run := route.Run(cctx, req)
		if run.Outcome == Productive {
			res.Status = Resolved
			res.Route = route
			res.Replayed = run.Replayed
			r.deps.metrics.dispatchTotal.WithLabelValues(Resolved.String()).Inc()
			span.SetAttributes(
				attribute.String("dispatch.route", route.Name),
				attribute.Bool("dispatch.replayed", run.Replayed),
			)
			logger.Debug("route resolved",
				observability.String("route", route.Name),
				observability.Bool("replayed", run.Replayed),
				observability.Duration("elapsed", util.ElapsedTime(ctx)))
			return res, nil
		}
		r.reject(res, route, run.Stage, run.Reason, logger)
	}

	req.Response.Reset()
	req.route = nil
	r.deps.metrics.dispatchTotal.WithLabelValues(NotFound.String()).Inc()
	err := util.NewRouteNotFoundError(rawURI, res.Attempts)
	logger.Debug("no route found",
		observability.Duration("elapsed", util.ElapsedTime(ctx)),
		observability.Error(err))
	span.SetAttributes(attribute.String("dispatch.status", NotFound.String()))
	return res, err
}

func (r *Router) reject(res *Resolution, route *Route, stage, reason string, logger observability.Logger) {
	if stage == "" {
		stage = util.StageHandler
	}
	res.Attempts = append(res.Attempts, util.Attempt{Route: route.Name, Stage: stage, Reason: reason})
	r.deps.metrics.candidateRejections.WithLabelValues(route.Name, stage).Inc()
	logger.Debug("candidate disqualified",
		observability.String("candidate", route.Name),
		observability.String("stage", stage),
		observability.String("reason", reason))
}

// URL builds a link to the named route. withCSRF appends a fresh token
// when the route is CSRF protected.
func (r *Router) URL(name string, values Values, withCSRF bool) (string, error) {
	route, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteUnknown, name)
	}
	var token *CSRFToken
	if withCSRF && route.Spec.CSRF && r.deps.guard != nil {
		token = &CSRFToken{Field: r.deps.guard.CSRFFieldName(), Value: r.deps.guard.IssueCSRFToken()}
	}
	return route.Spec.BuildURL(values, token)
}

// ClearCache deletes the cached response of the named route for values.
func (r *Router) ClearCache(ctx context.Context, name string, values Values, header http.Header) error {
	route, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRouteUnknown, name)
	}
	return route.ClearCache(ctx, values, header)
}

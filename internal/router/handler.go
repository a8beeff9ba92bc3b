package router

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vyrodovalexey/avactions/internal/security"
)

// Handler handles a request that matched its route. It writes output to
// req.Response and signals failure through the returned outcome, never by
// panicking.
type Handler interface {
	Handle(ctx context.Context, req *Request) Outcome
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) Outcome

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) Outcome {
	return f(ctx, req)
}

// HandlerRegistry maps handler tokens declared by routes to handlers.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}

// Register binds token to h, replacing any earlier binding.
func (r *HandlerRegistry) Register(token string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[token] = h
}

// RegisterFunc binds token to f.
func (r *HandlerRegistry) RegisterFunc(token string, f func(ctx context.Context, req *Request) Outcome) {
	r.Register(token, HandlerFunc(f))
}

// Lookup returns the handler bound to token.
func (r *HandlerRegistry) Lookup(token string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[token]
	return h, ok
}

// Has reports whether token is bound.
func (r *HandlerRegistry) Has(token string) bool {
	_, ok := r.Lookup(token)
	return ok
}

// List returns the registered tokens in sorted order.
func (r *HandlerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.handlers))
	for token := range r.handlers {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// String implements fmt.Stringer.
func (r *HandlerRegistry) String() string {
	return fmt.Sprintf("HandlerRegistry%v", r.List())
}

// SecurityChecker validates and filters request input. security.Guard is
// the production implementation.
type SecurityChecker interface {
	CheckValue(value string, rules []security.Rule) security.Result
	CheckFile(file *security.UploadedFile, rules security.FileRules) security.Result
	FilterValue(value string, filters []security.Filter) string
	CheckRequestCsrf(req security.CSRFRequest) bool
	IssueCSRFToken() string
	CSRFFieldName() string
}

package router

import (
	"net/http"
	"net/url"

	"github.com/vyrodovalexey/avactions/internal/security"
)

// Ambient holds the collections the host transport extracted from the
// incoming request.
type Ambient struct {
	Method     string
	Query      url.Values
	Body       url.Values
	Files      map[string]*security.UploadedFile
	Header     http.Header
	RemoteAddr string
}

// csrfRequest returns the view read by the CSRF check.
func (a Ambient) csrfRequest() security.CSRFRequest {
	return security.CSRFRequest{Query: a.Query, Body: a.Body, Header: a.Header}
}

// Values maps segment and parameter names to their values.
type Values map[string]string

// ParamState says whether a name was declared and received.
type ParamState uint8

// Parameter states.
const (
	NotDeclared ParamState = iota
	NotReceived
	Received
)

// String returns the state name.
func (s ParamState) String() string {
	switch s {
	case NotReceived:
		return "not_received"
	case Received:
		return "received"
	default:
		return "not_declared"
	}
}

// ParameterValue is the result of Request.Parameter.
type ParameterValue struct {
	State ParamState
	Value string
	File  *security.UploadedFile
}

// Received reports whether the value was supplied.
func (v ParameterValue) Received() bool {
	return v.State == Received
}

// Request is the per-dispatch context passed to handlers. It lives for one
// Dispatch call and is never shared between goroutines.
type Request struct {
	// ID identifies the dispatch in logs and traces.
	ID string
	// URI is the raw URI given to Dispatch.
	URI string
	// Segments are the raw path segments.
	Segments []string
	Ambient  Ambient
	Response *Response

	route    *Route
	values   Values
	files    map[string]*security.UploadedFile
	declared map[string]bool
}

func newRequest(id, uri string, segments []string, ambient Ambient) *Request {
	return &Request{
		ID:       id,
		URI:      uri,
		Segments: segments,
		Ambient:  ambient,
		Response: NewResponse(),
	}
}

// bind attaches a candidate's resolved values. Values of earlier candidates
// are discarded.
func (r *Request) bind(route *Route, values Values, files map[string]*security.UploadedFile) {
	r.route = route
	r.values = values
	r.files = files
	r.declared = route.Spec.names()
}

// Route returns the candidate currently being run, nil outside a run.
func (r *Request) Route() *Route {
	return r.route
}

// Parameter returns the resolved value of a declared segment or parameter.
func (r *Request) Parameter(name string) ParameterValue {
	if !r.declared[name] {
		return ParameterValue{State: NotDeclared}
	}
	v, ok := r.values[name]
	if !ok {
		return ParameterValue{State: NotReceived}
	}
	return ParameterValue{State: Received, Value: v, File: r.files[name]}
}

// Param returns the resolved value or "" when it is not available.
func (r *Request) Param(name string) string {
	return r.values[name]
}

// Values returns a copy of the resolved values.
func (r *Request) Values() Values {
	out := make(Values, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

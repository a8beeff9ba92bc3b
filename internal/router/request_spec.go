package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/avactions/internal/security"
)

const (
	fingerprintSeparator = "|"
	headerKeyPrefix      = "header:"
)

// CacheKey is an extra name=value input of a route's cache key. A Value of
// the form "header:<Name>" is read from the request header.
type CacheKey struct {
	Name  string
	Value string
}

func (k CacheKey) resolve(h http.Header) string {
	if name, ok := strings.CutPrefix(k.Value, headerKeyPrefix); ok {
		return h.Get(name)
	}
	return k.Value
}

// CSRFToken is appended to URLs built for CSRF protected routes.
type CSRFToken struct {
	Field string
	Value string
}

// RequestSpec is the declared shape of a request.
type RequestSpec struct {
	Segments   []Segment
	Parameters []Parameter
	CSRF       bool
	CacheKeys  []CacheKey
}

// NewRequestSpec declares a request with the given path segments. No
// segments matches only the root path.
func NewRequestSpec(segments ...Segment) *RequestSpec {
	return &RequestSpec{Segments: segments}
}

// WithParameters appends parameter declarations.
func (s *RequestSpec) WithParameters(params ...Parameter) *RequestSpec {
	s.Parameters = append(s.Parameters, params...)
	return s
}

// WithCSRF marks the request as CSRF protected.
func (s *RequestSpec) WithCSRF() *RequestSpec {
	s.CSRF = true
	return s
}

// WithCacheKeys appends additional cache key inputs.
func (s *RequestSpec) WithCacheKeys(keys ...CacheKey) *RequestSpec {
	s.CacheKeys = append(s.CacheKeys, keys...)
	return s
}

// Validate checks that the declaration is well formed.
func (s *RequestSpec) Validate() error {
	seen := make(map[string]bool)
	for i, seg := range s.Segments {
		switch {
		case seg.Kind == SegmentFixed && seg.Literal == "":
			return fmt.Errorf("segment %d: fixed segment needs a literal", i)
		case seg.Kind == SegmentFixed && strings.Contains(seg.Literal, "/"):
			return fmt.Errorf("segment %d: literal %q contains '/'", i, seg.Literal)
		case seg.IsVariable() && seg.Name == "":
			return fmt.Errorf("segment %d: variable segment needs a name", i)
		case seg.IsVariable() && seen[seg.Name]:
			return fmt.Errorf("segment %d: duplicate name %q", i, seg.Name)
		}
		if seg.IsVariable() {
			seen[seg.Name] = true
		}
	}
	for i, p := range s.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %d: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// names returns every declared segment and parameter name.
func (s *RequestSpec) names() map[string]bool {
	names := make(map[string]bool, len(s.Segments)+len(s.Parameters))
	for _, seg := range s.Segments {
		if seg.IsVariable() {
			names[seg.Name] = true
		}
	}
	for _, p := range s.Parameters {
		names[p.Name] = true
	}
	return names
}

// IsCurrentRequest reports whether raw structurally matches the declared
// segments. There is no prefix matching.
func (s *RequestSpec) IsCurrentRequest(raw []string) bool {
	if len(s.Segments) != len(raw) {
		return false
	}
	for i, seg := range s.Segments {
		if !seg.Matches(raw[i]) {
			return false
		}
	}
	return true
}

// ExtractAndValidate resolves every variable segment and every received
// parameter of req. Failures are collected rather than stopping at the
// first one. Only values that passed their checks are returned.
func (s *RequestSpec) ExtractAndValidate(req *Request, guard SecurityChecker) (Values, map[string]*security.UploadedFile, security.Result) {
	values := make(Values, len(s.Segments)+len(s.Parameters))
	var files map[string]*security.UploadedFile
	result := security.Pass()

	for i, seg := range s.Segments {
		if !seg.IsVariable() || i >= len(req.Segments) {
			continue
		}
		value, res := seg.Resolve(req.Segments[i], guard)
		if !res.OK {
			result = result.Merge(res.Prefix(seg.Name))
			continue
		}
		values[seg.Name] = value
	}

	for _, p := range s.Parameters {
		raw, file, received := p.Retrieve(req.Ambient)
		if !received {
			continue
		}
		value := p.Value(raw, guard)
		res := p.Check(value, file, guard)
		if !res.OK {
			result = result.Merge(res.Prefix(p.Name))
			continue
		}
		values[p.Name] = value
		if file != nil {
			if files == nil {
				files = make(map[string]*security.UploadedFile)
			}
			files[p.Name] = file
		}
	}

	return values, files, result
}

// BuildURL reconstructs the path and query string from values. The token
// is appended only when the request is CSRF protected.
func (s *RequestSpec) BuildURL(values Values, token *CSRFToken) (string, error) {
	var b strings.Builder
	for _, seg := range s.Segments {
		b.WriteByte('/')
		if !seg.IsVariable() {
			b.WriteString(url.PathEscape(seg.Literal))
			continue
		}
		v, ok := values[seg.Name]
		if !ok || v == "" {
			return "", fmt.Errorf("missing value for segment %q", seg.Name)
		}
		b.WriteString(url.PathEscape(v))
	}
	if b.Len() == 0 {
		b.WriteByte('/')
	}

	var query []string
	for _, p := range s.Parameters {
		if p.Source != SourceQuery {
			continue
		}
		if v, ok := values[p.Name]; ok {
			query = append(query, url.QueryEscape(p.Name)+"="+url.QueryEscape(v))
		}
	}
	if s.CSRF && token != nil && token.Value != "" {
		query = append(query, url.QueryEscape(token.Field)+"="+url.QueryEscape(token.Value))
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(query, "&"))
	}
	return b.String(), nil
}

// CacheKey returns the request fingerprint: prefix, segment literals and
// values, parameter pairs and additional key pairs in declaration order.
// A parameter that was not received contributes its bare name so that it
// differs from an empty value. An uploaded file in files adds its content
// digest to the pair.
func (s *RequestSpec) CacheKey(prefix string, values Values, files map[string]*security.UploadedFile, header http.Header) string {
	parts := make([]string, 0, 1+len(s.Segments)+len(s.Parameters)+len(s.CacheKeys))
	parts = append(parts, url.QueryEscape(prefix))

	for _, seg := range s.Segments {
		if seg.IsVariable() {
			parts = append(parts, url.QueryEscape(values[seg.Name]))
		} else {
			parts = append(parts, url.QueryEscape(strings.ToLower(seg.Literal)))
		}
	}
	for _, p := range s.Parameters {
		name := url.QueryEscape(p.Name)
		v, ok := values[p.Name]
		if !ok {
			parts = append(parts, name)
			continue
		}
		pair := name + "=" + url.QueryEscape(v)
		if f := files[p.Name]; p.Source == SourceFile && f != nil {
			pair += "@" + f.Digest()
		}
		parts = append(parts, pair)
	}
	for _, k := range s.CacheKeys {
		parts = append(parts, url.QueryEscape(k.Name)+"="+url.QueryEscape(k.resolve(header)))
	}
	return strings.Join(parts, fingerprintSeparator)
}

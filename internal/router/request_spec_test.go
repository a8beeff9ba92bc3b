package router

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avactions/internal/security"
)

func TestRequestSpec_IsCurrentRequest_Length(t *testing.T) {
	t.Parallel()

	specs := []*RequestSpec{
		NewRequestSpec(Fixed("a")),
		NewRequestSpec(Var("x"), Var("y")),
		NewRequestSpec(Fixed("blog"), Numeric("id"), Var("slug")),
	}
	raws := [][]string{
		{},
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
		{"a", "b", "c", "d"},
	}

	for _, spec := range specs {
		for _, raw := range raws {
			if len(raw) != len(spec.Segments) {
				assert.False(t, spec.IsCurrentRequest(raw), "%v vs %v", spec.Segments, raw)
			}
		}
	}

	root := NewRequestSpec()
	assert.True(t, root.IsCurrentRequest([]string{}))
	assert.True(t, root.IsCurrentRequest(nil))
	assert.False(t, root.IsCurrentRequest([]string{"a"}))
	assert.False(t, NewRequestSpec(Var("x")).IsCurrentRequest([]string{}))
}

func TestRequestSpec_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    *RequestSpec
		wantErr string
	}{
		{name: "ok", spec: NewRequestSpec(Fixed("a"), Var("b")).WithParameters(Query("c"))},
		{name: "empty literal", spec: NewRequestSpec(Fixed("")), wantErr: "literal"},
		{name: "slash literal", spec: NewRequestSpec(Fixed("a/b")), wantErr: "contains"},
		{name: "unnamed variable", spec: NewRequestSpec(Var("")), wantErr: "name"},
		{name: "duplicate segment", spec: NewRequestSpec(Var("a"), Var("a")), wantErr: "duplicate"},
		{name: "duplicate parameter", spec: NewRequestSpec(Var("a")).WithParameters(Query("a")), wantErr: "duplicate"},
		{name: "unnamed parameter", spec: NewRequestSpec().WithParameters(Query("")), wantErr: "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequestSpec_CacheKey(t *testing.T) {
	t.Parallel()

	spec := NewRequestSpec(Fixed("blog"), Numeric("id")).
		WithParameters(Query("page"), Query("sort")).
		WithCacheKeys(CacheKey{Name: "lang", Value: "header:Accept-Language"}, CacheKey{Name: "v", Value: "2"})

	header := http.Header{}
	header.Set("Accept-Language", "en")
	values := Values{"id": "17", "page": "1"}

	base := spec.CacheKey("blog", values, nil, header)
	assert.Equal(t, "blog|blog|17|page=1|sort|lang=en|v=2", base)
	assert.Equal(t, base, spec.CacheKey("blog", Values{"page": "1", "id": "17"}, nil, header.Clone()))

	variants := map[string]string{
		"prefix":       spec.CacheKey("other", values, nil, header),
		"segment":      spec.CacheKey("blog", Values{"id": "18", "page": "1"}, nil, header),
		"parameter":    spec.CacheKey("blog", Values{"id": "17", "page": "2"}, nil, header),
		"received":     spec.CacheKey("blog", Values{"id": "17", "page": "1", "sort": ""}, nil, header),
		"header":       spec.CacheKey("blog", values, nil, http.Header{"Accept-Language": {"de"}}),
		"separator":    spec.CacheKey("blog", Values{"id": "17", "page": "1|sort"}, nil, header),
		"empty prefix": spec.CacheKey("", values, nil, header),
	}
	for name, k := range variants {
		assert.NotEqual(t, base, k, name)
	}
}

func TestRequestSpec_CacheKey_FileContent(t *testing.T) {
	t.Parallel()

	spec := NewRequestSpec(Fixed("upload")).WithParameters(File("doc"))
	values := Values{"doc": "a.txt"}
	first := map[string]*security.UploadedFile{"doc": {Filename: "a.txt", Content: []byte("first file")}}
	second := map[string]*security.UploadedFile{"doc": {Filename: "a.txt", Content: []byte("second file")}}

	k1 := spec.CacheKey("upload", values, first, nil)
	k2 := spec.CacheKey("upload", values, second, nil)

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, spec.CacheKey("upload", values, first, nil))
	assert.True(t, strings.HasPrefix(k1, "upload|upload|doc=a.txt@"))
}

func TestRequestSpec_BuildURL(t *testing.T) {
	t.Parallel()

	spec := NewRequestSpec(Fixed("blog"), Var("slug")).
		WithParameters(Query("page"), Body("comment"))

	u, err := spec.BuildURL(Values{"slug": "hello world", "page": "2", "comment": "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/blog/hello%20world?page=2", u)

	_, err = spec.BuildURL(Values{}, nil)
	assert.Error(t, err)

	root, err := NewRequestSpec().BuildURL(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/", root)

	token := &CSRFToken{Field: "csrf_token", Value: "abc"}
	u, err = spec.BuildURL(Values{"slug": "a"}, token)
	require.NoError(t, err)
	assert.Equal(t, "/blog/a", u, "token only added to protected requests")

	u, err = NewRequestSpec(Fixed("form")).WithCSRF().BuildURL(nil, token)
	require.NoError(t, err)
	assert.Equal(t, "/form?csrf_token=abc", u)
}

func TestRequestSpec_ExtractAndValidate_CollectsAll(t *testing.T) {
	guard := newTestGuard(t)

	spec := NewRequestSpec(Var("a", WithRules(security.MustParseRules("slug")...)), Var("b", WithRules(security.MustParseRules("alpha")...))).
		WithParameters(
			Query("q", ParamRules(security.MustParseRules("maxLength:2")...)),
			Query("ok"),
			Query("absent"),
		)

	req := newRequest("id", "/x y/123?q=long", []string{"x y", "123"}, Ambient{
		Query: url.Values{"q": {"long"}, "ok": {"fine"}},
	})

	values, files, res := spec.ExtractAndValidate(req, guard)
	assert.False(t, res.OK)
	assert.Len(t, res.Violations, 3)
	assert.Contains(t, res.String(), "a: ")
	assert.Contains(t, res.String(), "b: ")
	assert.Contains(t, res.String(), "q: ")
	assert.Equal(t, Values{"ok": "fine"}, values)
	assert.Nil(t, files)
}

func TestRequestSpec_ExtractAndValidate_Files(t *testing.T) {
	guard := newTestGuard(t)

	upload := &security.UploadedFile{Field: "doc", Filename: "notes.txt", Content: []byte("hello")}
	spec := NewRequestSpec().WithParameters(File("doc"))
	req := newRequest("id", "/", nil, Ambient{Files: map[string]*security.UploadedFile{"doc": upload}})

	values, files, res := spec.ExtractAndValidate(req, guard)
	require.True(t, res.OK, res.String())
	assert.Equal(t, "notes.txt", values["doc"])
	assert.Same(t, upload, files["doc"])
}

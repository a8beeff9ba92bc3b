package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/avactions/internal/security"
)

func TestSegment_Matches(t *testing.T) {
	t.Parallel()

	about := Fixed("about")
	for _, raw := range []string{"about", "About", "ABOUT"} {
		assert.True(t, about.Matches(raw), raw)
	}
	assert.False(t, about.Matches("abouts"))

	assert.True(t, Var("slug").Matches("anything at all"))
	assert.True(t, Var("slug").Matches(""))

	num := Numeric("id")
	for _, raw := range []string{"42", "42.5", "-3"} {
		assert.True(t, num.Matches(raw), raw)
	}
	for _, raw := range []string{"about", "12ab"} {
		assert.False(t, num.Matches(raw), raw)
	}
}

func TestSegment_Resolve(t *testing.T) {
	guard := newTestGuard(t)

	slug := Var("slug", WithRules(security.MustParseRules("slug")...))

	v, res := slug.Resolve("hello-world", guard)
	assert.True(t, res.OK)
	assert.Equal(t, "hello-world", v)

	_, res = slug.Resolve("hello world", guard)
	assert.False(t, res.OK)

	_, res = slug.Resolve("a/b", guard)
	assert.False(t, res.OK)

	filtered := Var("name", WithFilters(security.FilterTrim, security.FilterLower))
	v, res = filtered.Resolve("  MiXed ", guard)
	assert.True(t, res.OK)
	assert.Equal(t, "mixed", v)

	v, res = Fixed("blog").Resolve("BLOG", guard)
	assert.True(t, res.OK)
	assert.Equal(t, "BLOG", v)
}

func TestSegment_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "blog", Fixed("blog").String())
	assert.Equal(t, "{id}", Numeric("id").String())
	assert.Equal(t, "numeric", SegmentNumeric.String())
	assert.Equal(t, "fixed", SegmentFixed.String())
	assert.Equal(t, "string", SegmentString.String())
}

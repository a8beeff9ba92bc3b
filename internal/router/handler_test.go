package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRegistry(t *testing.T) {
	t.Parallel()

	r := NewHandlerRegistry()
	assert.False(t, r.Has("pages.home"))

	r.RegisterFunc("pages.home", func(context.Context, *Request) Outcome { return Productive })
	r.Register("pages.about", &counter{outcome: NotProductive})

	h, ok := r.Lookup("pages.home")
	require.True(t, ok)
	assert.Equal(t, Productive, h.Handle(context.Background(), newRequest("id", "/", nil, Ambient{})))

	assert.Equal(t, []string{"pages.about", "pages.home"}, r.List())
	assert.Equal(t, "HandlerRegistry[pages.about pages.home]", r.String())

	r.RegisterFunc("pages.about", func(context.Context, *Request) Outcome { return Productive })
	h, _ = r.Lookup("pages.about")
	assert.Equal(t, Productive, h.Handle(context.Background(), newRequest("id", "/", nil, Ambient{})))
}

// Package site is the demo handler set bundled with the binary. It shows
// the public/authenticated fallback and a throttled login on top of the
// dispatcher.
package site

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/router"
)

// Handler tokens registered by Register.
const (
	HandlerHome             = "pages.home"
	HandlerAbout            = "pages.about"
	HandlerBlogShow         = "blog.show"
	HandlerDashboardPrivate = "dashboard.private"
	HandlerDashboardPublic  = "dashboard.public"
	HandlerLogin            = "auth.login"
	HandlerLoginForm        = "auth.loginForm"
)

const defaultTitle = "avactions"

// ErrUnauthorized is returned by Authenticate for unknown users and wrong
// passwords alike.
var ErrUnauthorized = errors.New("invalid credentials")

// TokenIssuer issues CSRF tokens for rendered forms. *security.Guard
// implements it.
type TokenIssuer interface {
	IssueCSRFToken() string
	CSRFFieldName() string
}

// Post is a blog entry.
type Post struct {
	ID    int
	Title string
	Body  string
}

// Site holds the demo content and credentials.
type Site struct {
	title     string
	users     map[string][]byte
	dummyHash []byte
	posts     map[int]Post
	tokens    TokenIssuer
	logger    observability.Logger
}

// New builds the site. Passwords that are not bcrypt hashes are hashed
// here.
func New(cfg *config.SiteConfig, tokens TokenIssuer, logger observability.Logger) (*Site, error) {
	if cfg == nil {
		cfg = &config.SiteConfig{}
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	title := cfg.Title
	if title == "" {
		title = defaultTitle
	}

	// Pre-compute a dummy hash so unknown users cost as much as known ones.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	s := &Site{
		title:     title,
		users:     make(map[string][]byte, len(cfg.Users)),
		dummyHash: dummyHash,
		posts:     defaultPosts(),
		tokens:    tokens,
		logger:    logger,
	}
	for _, u := range cfg.Users {
		hash, err := passwordHash(u.Password)
		if err != nil {
			return nil, fmt.Errorf("site: user %s: %w", u.Name, err)
		}
		s.users[u.Name] = hash
	}
	return s, nil
}

func passwordHash(password string) ([]byte, error) {
	if _, err := bcrypt.Cost([]byte(password)); err == nil {
		return []byte(password), nil
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func defaultPosts() map[int]Post {
	return map[int]Post{
		1: {ID: 1, Title: "Hello", Body: "The first post."},
		2: {ID: 2, Title: "Routing", Body: "Candidates are tried in registration order."},
		3: {ID: 3, Title: "Caching", Body: "Productive responses are replayed from the cache."},
	}
}

// Register binds every demo handler.
func (s *Site) Register(registry *router.HandlerRegistry) {
	registry.RegisterFunc(HandlerHome, s.home)
	registry.RegisterFunc(HandlerAbout, s.about)
	registry.RegisterFunc(HandlerBlogShow, s.blogShow)
	registry.RegisterFunc(HandlerDashboardPrivate, s.dashboardPrivate)
	registry.RegisterFunc(HandlerDashboardPublic, s.dashboardPublic)
	registry.RegisterFunc(HandlerLogin, s.login)
	registry.RegisterFunc(HandlerLoginForm, s.loginForm)
}

// Authenticate checks a user name and password.
func (s *Site) Authenticate(name, password string) error {
	hash, ok := s.users[name]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

func (s *Site) page(req *router.Request, heading, body string) {
	req.Response.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Response.Printf("<!DOCTYPE html><html><head><title>%s | %s</title></head><body><h1>%s</h1>%s</body></html>",
		html.EscapeString(heading), html.EscapeString(s.title), html.EscapeString(heading), body)
}

func (s *Site) home(_ context.Context, req *router.Request) router.Outcome {
	ids := make([]int, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("<ul>")
	for _, id := range ids {
		fmt.Fprintf(&b, `<li><a href="/blog/%d">%s</a></li>`, id, html.EscapeString(s.posts[id].Title))
	}
	b.WriteString("</ul>")
	s.page(req, "Home", b.String())
	return router.Productive
}

func (s *Site) about(_ context.Context, req *router.Request) router.Outcome {
	s.page(req, "About", "<p>A request dispatcher demo.</p>")
	return router.Productive
}

// blogShow is not productive for unknown posts so the request ends as
// NotFound.
func (s *Site) blogShow(_ context.Context, req *router.Request) router.Outcome {
	id, err := strconv.Atoi(req.Param("postId"))
	if err != nil {
		return router.NotProductive
	}
	post, ok := s.posts[id]
	if !ok {
		return router.NotProductive
	}
	body := "<p>" + html.EscapeString(post.Body) + "</p>"
	if page := req.Parameter("page"); page.Received() {
		body += "<p>Comments page " + html.EscapeString(page.Value) + "</p>"
	}
	s.page(req, post.Title, body)
	return router.Productive
}

// dashboardPrivate is productive only for requests carrying valid basic
// credentials. Otherwise the public variant registered after it runs.
func (s *Site) dashboardPrivate(_ context.Context, req *router.Request) router.Outcome {
	name, password, ok := basicAuth(req.Ambient.Header)
	if !ok || s.Authenticate(name, password) != nil {
		return router.NotProductive
	}
	s.page(req, "Dashboard", "<p>Signed in as "+html.EscapeString(name)+".</p>")
	return router.Productive
}

func (s *Site) dashboardPublic(_ context.Context, req *router.Request) router.Outcome {
	s.page(req, "Dashboard", `<p>Public view. <a href="/login">Sign in</a> for more.</p>`)
	return router.Productive
}

func (s *Site) login(ctx context.Context, req *router.Request) router.Outcome {
	name := req.Param("user")
	if err := s.Authenticate(name, req.Param("password")); err != nil {
		s.logger.WithContext(ctx).Info("login failed", observability.String("user", name))
		return router.NotProductive
	}
	s.page(req, "Welcome", "<p>Welcome back, "+html.EscapeString(name)+".</p>")
	return router.Productive
}

// loginForm renders the form. It is registered after auth.login so a
// failed attempt lands here with an error message.
func (s *Site) loginForm(_ context.Context, req *router.Request) router.Outcome {
	var b strings.Builder
	if req.Ambient.Method == http.MethodPost {
		b.WriteString(`<p class="error">Invalid user name or password.</p>`)
	}
	b.WriteString(`<form method="post" action="/login">`)
	if s.tokens != nil {
		fmt.Fprintf(&b, `<input type="hidden" name="%s" value="%s">`,
			html.EscapeString(s.tokens.CSRFFieldName()), html.EscapeString(s.tokens.IssueCSRFToken()))
	}
	b.WriteString(`<input name="user"><input name="password" type="password"><button>Sign in</button></form>`)
	s.page(req, "Sign in", b.String())
	return router.Productive
}

func basicAuth(h http.Header) (name, password string, ok bool) {
	if h == nil {
		return "", "", false
	}
	r := http.Request{Header: h}
	return r.BasicAuth()
}

package pipeline

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in           string
		withSlash    string
		withoutSlash string
	}{
		{in: "/", withSlash: "/", withoutSlash: "/"},
		{in: "", withSlash: "/", withoutSlash: "/"},
		{in: "/about", withSlash: "/about/", withoutSlash: "/about"},
		{in: "/about/", withSlash: "/about/", withoutSlash: "/about"},
		{in: "blog//post///", withSlash: "/blog/post/", withoutSlash: "/blog/post"},
		{in: "/logo.png", withSlash: "/logo.png", withoutSlash: "/logo.png"},
		{in: "/docs/v1.2/intro", withSlash: "/docs/v1.2/intro/", withoutSlash: "/docs/v1.2/intro"},
		{in: "/_next/static/chunk", withSlash: "/_next/static/chunk", withoutSlash: "/_next/static/chunk"},
		{in: "/api/health/", withSlash: "/api/health", withoutSlash: "/api/health"},
		{in: "/api", withSlash: "/api", withoutSlash: "/api"},
		{in: "/apiary", withSlash: "/apiary/", withoutSlash: "/apiary"},
	}

	with := NewRouter()
	with.SetTrailingSlash(true)
	without := NewRouter()

	for _, tc := range tests {
		assert.Equal(t, tc.withSlash, with.Normalize(tc.in), "trailing slash on: %q", tc.in)
		assert.Equal(t, tc.withoutSlash, without.Normalize(tc.in), "trailing slash off: %q", tc.in)
	}
}

func TestRouterNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, enabled := range []bool{true, false} {
		r := NewRouter()
		r.SetTrailingSlash(enabled)
		for _, p := range []string{"/", "/a", "/a/", "//a//b", "/x.js", "/api/"} {
			once := r.Normalize(p)
			assert.Equal(t, once, r.Normalize(once))
		}
	}
}

func TestRouterRedirect(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.SetTrailingSlash(true)

	target, ok := r.Redirect("/about")
	assert.True(t, ok)
	assert.Equal(t, "/about/", target)

	_, ok = r.Redirect("/about/")
	assert.False(t, ok)
}

func TestRouterCheckRedirects(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.SetTrailingSlash(true)

	ok := []Redirect{
		{Source: "/old/", Destination: "/new/", Permanent: true},
		{Source: "/docs/:slug/", Destination: "https://example.com/docs"},
		{Source: "/feed.xml", Destination: "/rss.xml?format=atom"},
		{Source: "/promo/", Destination: "/sale/?utm=shell#top"},
	}
	require.NoError(t, r.CheckRedirects(ok))

	err := r.CheckRedirects([]Redirect{
		{Source: "/old", Destination: "/new/"},
		{Source: "/a/", Destination: "/b"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedirectMismatch)
	assert.Contains(t, err.Error(), `redirects[0].source "/old" should be "/old/"`)
	assert.Contains(t, err.Error(), `redirects[1].destination "/b" should be "/b/"`)
	assert.Equal(t, 2, strings.Count(err.Error(), ErrRedirectMismatch.Error()))
}

func TestRouterCheckRedirectsWithoutTrailingSlash(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	err := r.CheckRedirects([]Redirect{{Source: "/old/", Destination: "/new"}})
	assert.ErrorIs(t, err, ErrRedirectMismatch)
	assert.NoError(t, r.CheckRedirects([]Redirect{{Source: "/", Destination: "/home"}}))
}

func TestRouterMiddleware(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.SetTrailingSlash(true)

	var served string
	handler := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		served = req.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("redirects non-canonical path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/about?lang=en", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
		assert.Equal(t, "/about/?lang=en", rec.Header().Get("Location"))
	})

	t.Run("passes canonical path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/about/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "/about/", served)
	})
}

func TestRouterMiddlewareKeepsEscaping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target   string
		trailing bool
		location string
	}{
		{target: "/%5Cevil.com/", trailing: true, location: "/%5Cevil.com"},
		{target: "/%5Cevil.com/", trailing: false, location: "/%5Cevil.com"},
		{target: "/a%3Fb", trailing: true, location: "/a%3Fb/"},
		{target: "/a%3Fb/?x=1", trailing: false, location: "/a%3Fb?x=1"},
		{target: "/a%2Fb", trailing: true, location: "/a%2Fb/"},
		{target: "//evil.com/", trailing: false, location: "/evil.com"},
	}

	for _, tc := range tests {
		r := NewRouter()
		r.SetTrailingSlash(tc.trailing)
		handler := r.Middleware(http.NotFoundHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

		require.Equal(t, http.StatusPermanentRedirect, rec.Code, "%s (trailing=%t)", tc.target, tc.trailing)
		location := rec.Header().Get("Location")
		assert.Equal(t, tc.location, location, "%s (trailing=%t)", tc.target, tc.trailing)
		assert.False(t, strings.HasPrefix(location, "//") || strings.HasPrefix(location, `/\`), "protocol-relative Location %q", location)
	}
}

func TestLocalTarget(t *testing.T) {
	t.Parallel()

	assert.True(t, localTarget("/about/"))
	assert.True(t, localTarget("/%5Cevil.com"))
	assert.False(t, localTarget("//evil.com"))
	assert.False(t, localTarget(`/\evil.com`))
}

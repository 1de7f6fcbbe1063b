package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
)

// Redirect is a hand-authored redirect rule.
type Redirect struct {
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
	Permanent   bool   `yaml:"permanent" json:"permanent"`
}

// Router is the request-path normalization phase.
type Router struct {
	mu            sync.RWMutex
	trailingSlash bool
}

// NewRouter returns a Router that strips trailing slashes until told otherwise.
func NewRouter() *Router {
	return &Router{}
}

// SetTrailingSlash implements RoutingPhase.
func (r *Router) SetTrailingSlash(enabled bool) {
	r.mu.Lock()
	r.trailingSlash = enabled
	r.mu.Unlock()
}

// TrailingSlash reports the active rule.
func (r *Router) TrailingSlash() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trailingSlash
}

// Normalize returns the canonical form of p. Duplicate slashes collapse and
// the root is always "/". File paths and paths under /_next/ or /api/ never
// carry a trailing slash; every other path carries one exactly when the rule
// is enabled.
func (r *Router) Normalize(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}

	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	if r.TrailingSlash() && !slashExempt(trimmed) {
		return trimmed + "/"
	}
	return trimmed
}

// Redirect reports the canonical target for p when p is not canonical.
func (r *Router) Redirect(p string) (string, bool) {
	target := r.Normalize(p)
	return target, target != p
}

// CheckRedirects verifies that every internal source and destination is
// already canonical. All mismatches are reported, each wrapping
// ErrRedirectMismatch.
func (r *Router) CheckRedirects(redirects []Redirect) error {
	var errs []error
	for i, rd := range redirects {
		if want, bad := r.mismatch(rd.Source); bad {
			errs = append(errs, fmt.Errorf("%w: redirects[%d].source %q should be %q", ErrRedirectMismatch, i, rd.Source, want))
		}
		if want, bad := r.mismatch(rd.Destination); bad {
			errs = append(errs, fmt.Errorf("%w: redirects[%d].destination %q should be %q", ErrRedirectMismatch, i, rd.Destination, want))
		}
	}
	return errors.Join(errs...)
}

// Middleware answers non-canonical request paths with a 308 to the canonical
// path, keeping the query string and method. The path is normalized in its
// escaped form so encoded characters stay encoded in Location.
func (r *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if target, ok := r.Redirect(req.URL.EscapedPath()); ok && localTarget(target) {
			if req.URL.RawQuery != "" {
				target += "?" + req.URL.RawQuery
			}
			http.Redirect(w, req, target, http.StatusPermanentRedirect)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) mismatch(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "", false
	}
	p := raw
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	want := r.Normalize(p)
	return want, want != p
}

// localTarget rejects targets a browser would read as protocol-relative.
func localTarget(target string) bool {
	return !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
}

func slashExempt(p string) bool {
	if p == "/api" || strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/_next/") {
		return true
	}
	return path.Ext(path.Base(p)) != ""
}

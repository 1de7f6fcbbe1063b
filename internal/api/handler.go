package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eugenenazirov/shellbuild/internal/directives"
	"github.com/eugenenazirov/shellbuild/internal/metrics"
	"github.com/eugenenazirov/shellbuild/internal/pipeline"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler exposes the active directives and the phases they configured.
type Handler struct {
	active   directives.BuildDirectives
	router   *pipeline.Router
	assets   *pipeline.Assets
	recorder metrics.Recorder

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithRecorder reports resolutions and warnings to recorder.
func WithRecorder(recorder metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		if recorder != nil {
			h.recorder = recorder
		}
	}
}

// NewHandler constructs a Handler around the directives the build resolved
// and the routing and asset phases they were applied to.
func NewHandler(active directives.BuildDirectives, router *pipeline.Router, assets *pipeline.Assets, opts ...HandlerOption) *Handler {
	h := &Handler{
		active:   active,
		router:   router,
		assets:   assets,
		recorder: metrics.NoopRecorder{},
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetDirectives(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, directivesResponse{
		Directives: h.active,
		Warnings:   warningsOrEmpty(directives.Check(h.active)),
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var raw directives.Options
	if err := decodeJSONBody(w, r, &raw); err != nil {
		writeDecodeError(w, err)
		return
	}

	resolved, err := directives.Resolve(raw)
	if err != nil {
		var cfgErr *directives.ConfigError
		if errors.As(err, &cfgErr) {
			h.recorder.ObserveResolution(metrics.ResultConfigError)
			writeError(w, http.StatusUnprocessableEntity, "Invalid configuration", err.Error(),
				"set output to one of: "+strings.Join(cfgErr.Allowed, ", "))
			return
		}
		writeInternalError(w, err)
		return
	}
	h.recorder.ObserveResolution(metrics.ResultOK)

	warnings := directives.Check(resolved)
	for _, warning := range warnings {
		h.recorder.ObserveWarning(warning.Code)
	}

	writeJSON(w, http.StatusOK, directivesResponse{
		Directives: resolved,
		Warnings:   warningsOrEmpty(warnings),
	})
}

func (h *Handler) handleNormalizeRoutes(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "paths must contain at least one entry")
		return
	}

	routes := make([]normalizedRoute, 0, len(req.Paths))
	for _, p := range req.Paths {
		canonical, redirect := h.router.Redirect(p)
		routes = append(routes, normalizedRoute{Path: p, Canonical: canonical, Redirect: redirect})
	}

	writeJSON(w, http.StatusOK, normalizeResponse{
		TrailingSlash: h.router.TrailingSlash(),
		Routes:        routes,
	})
}

func (h *Handler) handleImageURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := q.Get("src")
	if src == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "src query parameter is required")
		return
	}

	width, err := optionalInt(q.Get("w"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "w must be an integer")
		return
	}
	quality, err := optionalInt(q.Get("q"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "q must be an integer")
		return
	}

	target, err := h.assets.ImageURL(src, width, quality)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidImageWidth) {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{
		Src:       src,
		URL:       target,
		Optimized: h.assets.Optimized(),
	})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large",
			"body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func warningsOrEmpty(warnings []directives.Warning) []directives.Warning {
	if warnings == nil {
		return []directives.Warning{}
	}
	return warnings
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type directivesResponse struct {
	Directives directives.BuildDirectives `json:"directives"`
	Warnings   []directives.Warning       `json:"warnings"`
}

type normalizeRequest struct {
	Paths []string `json:"paths"`
}

type normalizedRoute struct {
	Path      string `json:"path"`
	Canonical string `json:"canonical"`
	Redirect  bool   `json:"redirect"`
}

type normalizeResponse struct {
	TrailingSlash bool              `json:"trailingSlash"`
	Routes        []normalizedRoute `json:"routes"`
}

type imageResponse struct {
	Src       string `json:"src"`
	URL       string `json:"url"`
	Optimized bool   `json:"optimized"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eugenenazirov/shellbuild/internal/api"
	"github.com/eugenenazirov/shellbuild/internal/config"
	"github.com/eugenenazirov/shellbuild/internal/directives"
	"github.com/eugenenazirov/shellbuild/internal/metrics"
	"github.com/eugenenazirov/shellbuild/internal/pipeline"
)

// Prepared is the outcome of the build-start sequence: the resolved
// directives, their advisory warnings and the phases they were applied to.
type Prepared struct {
	Directives directives.BuildDirectives
	Warnings   []directives.Warning
	Build      *pipeline.Build
}

// Prepare resolves the configured options literal, logs pairing warnings,
// applies the directives to a fresh pipeline and verifies hand-authored
// redirects against the routing rule. A *directives.ConfigError aborts before
// any phase is touched.
func Prepare(cfg config.Config, logger *zap.Logger, recorder metrics.Recorder) (*Prepared, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	d, err := directives.Resolve(cfg.Build)
	if err != nil {
		recorder.ObserveResolution(metrics.ResultConfigError)
		return nil, fmt.Errorf("resolve build options: %w", err)
	}
	recorder.ObserveResolution(metrics.ResultOK)
	logger.Info("build directives resolved",
		zap.Stringer("output", d.Output()),
		zap.Bool("trailing_slash", d.TrailingSlash()),
		zap.Bool("images_unoptimized", d.UnoptimizedImages()),
		zap.Bool("ignore_build_errors", d.IgnoreBuildErrors()),
	)

	warnings := directives.Check(d)
	for _, w := range warnings {
		recorder.ObserveWarning(w.Code)
		logger.Warn("directive pairing warning", zap.String("code", w.Code), zap.String("detail", w.Message))
	}

	build := pipeline.New(logger)
	pipeline.Apply(d, build.Phases())

	if err := build.Router.CheckRedirects(cfg.Redirects); err != nil {
		return nil, fmt.Errorf("check redirects: %w", err)
	}

	return &Prepared{Directives: d, Warnings: warnings, Build: build}, nil
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	prepared *Prepared
	registry *prom.Registry
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New prepares the build and wires the preview server around it.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	prepared, err := Prepare(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(prepared.Directives, prepared.Build.Router, prepared.Build.Assets,
		api.WithRecorder(recorder),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithRequestMetrics(recorder),
	)

	rootHandler, err := BuildRootHandler(apiRouter, metrics.HTTPHandler(registry), prepared.Build, cfg.PreviewDir)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		prepared: prepared,
		registry: registry,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler routes API and metrics traffic and, when previewDir is
// set, serves the build output through the asset phase. Preview requests
// pass through the routing phase first.
func BuildRootHandler(apiHandler, metricsHandler http.Handler, build *pipeline.Build, previewDir string) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", metricsHandler)

	if previewDir != "" {
		info, err := os.Stat(previewDir)
		if err != nil {
			return nil, fmt.Errorf("preview dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("preview dir %s is not a directory", previewDir)
		}
		mux.Handle("/", build.Router.Middleware(build.Assets.Handler(os.DirFS(previewDir))))
	} else {
		mux.Handle("/", http.NotFoundHandler())
	}

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("preview server listening",
			zap.String("addr", a.server.Addr),
			zap.Stringer("output", a.prepared.Directives.Output()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Directives returns the directives the server was started with.
func (a *App) Directives() directives.BuildDirectives {
	return a.prepared.Directives
}

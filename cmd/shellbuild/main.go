package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/shellbuild/internal/application"
	"github.com/eugenenazirov/shellbuild/internal/config"
	"github.com/eugenenazirov/shellbuild/internal/directives"
	"github.com/eugenenazirov/shellbuild/internal/logging"
	"github.com/eugenenazirov/shellbuild/internal/pipeline"
)

var signalNotify = signal.Notify

const (
	exitConfigError = 2
	exitBuildFailed = 3
)

func main() {
	kingpinApp := kingpin.New("shellbuild", "Resolves build directives for web apps embedded in a native mobile shell")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	envFile := kingpinApp.Flag("env-file", "Path to a .env file loaded before the environment layer").String()
	preset := kingpinApp.Flag("preset", "Seed build options from a preset (embedded)").String()
	output := kingpinApp.Flag("output", "Output mode: default, standalone or export").String()
	logLevel := kingpinApp.Flag("log-level", "Log level: debug, info, warn or error").String()

	var trailingSlashSet, unoptimizedSet, ignoreErrorsSet bool
	trailingSlash := kingpinApp.Flag("trailing-slash", "Normalize routes to end with /").IsSetByUser(&trailingSlashSet).Bool()
	unoptimized := kingpinApp.Flag("unoptimized-images", "Serve images byte-identical to source").IsSetByUser(&unoptimizedSet).Bool()
	ignoreErrors := kingpinApp.Flag("ignore-build-errors", "Demote type-check errors to warnings").IsSetByUser(&ignoreErrorsSet).Bool()

	resolveCmd := kingpinApp.Command("resolve", "Resolve and print the build directives").Default()
	format := resolveCmd.Flag("format", "Output format").Default("yaml").Enum("yaml", "json")

	planCmd := kingpinApp.Command("plan", "Dry-run the build phases with the resolved directives")
	planFormat := planCmd.Flag("format", "Output format").Default("yaml").Enum("yaml", "json")
	manifestFile := planCmd.Flag("manifest", "package.json to plan packaging for").ExistingFile()
	diagnosticsFile := planCmd.Flag("diagnostics", "JSON type-check diagnostics to gate on").ExistingFile()
	routes := planCmd.Flag("route", "Route to normalize (repeatable)").Strings()

	serveCmd := kingpinApp.Command("serve", "Serve the build output and directive API")
	port := serveCmd.Flag("port", "HTTP port exposed by the preview server").String()
	previewDir := serveCmd.Flag("preview-dir", "Directory with the build output to serve").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
		Preset:     *preset,
	}

	if *output != "" {
		overrides.Output = output
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if trailingSlashSet {
		overrides.TrailingSlash = trailingSlash
	}
	if unoptimizedSet {
		overrides.UnoptimizedImages = unoptimized
	}
	if ignoreErrorsSet {
		overrides.IgnoreBuildErrors = ignoreErrors
	}
	if *port != "" {
		overrides.Port = port
	}
	if *previewDir != "" {
		overrides.PreviewDir = previewDir
	}
	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}
	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shellbuild: failed to load configuration: %v\n", err)
		os.Exit(exitConfigError)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case resolveCmd.FullCommand():
		err = runResolve(os.Stdout, cfg, logger, *format)
	case planCmd.FullCommand():
		err = runPlan(os.Stdout, cfg, logger, planOptions{
			format:          *planFormat,
			manifestFile:    *manifestFile,
			diagnosticsFile: *diagnosticsFile,
			routes:          *routes,
		})
	case serveCmd.FullCommand():
		err = runServe(cfg, logger)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		_ = logger.Sync()
		os.Exit(exitCode(err))
	}
}

// runResolve prints the resolved directives. Pairing warnings go to the log.
func runResolve(w io.Writer, cfg config.Config, logger *zap.Logger, format string) error {
	d, err := directives.Resolve(cfg.Build)
	if err != nil {
		return err
	}
	for _, warning := range directives.Check(d) {
		logger.Warn("directive pairing warning", zap.String("code", warning.Code), zap.String("detail", warning.Message))
	}
	return encode(w, format, d)
}

type planOptions struct {
	format          string
	manifestFile    string
	diagnosticsFile string
	routes          []string
}

func runPlan(w io.Writer, cfg config.Config, logger *zap.Logger, opts planOptions) error {
	prepared, err := application.Prepare(cfg, logger, nil)
	if err != nil {
		return err
	}

	in := application.PlanInput{Routes: opts.routes}
	if opts.manifestFile != "" {
		manifest, err := readManifest(opts.manifestFile)
		if err != nil {
			return err
		}
		in.Manifest = &manifest
	}
	if opts.diagnosticsFile != "" {
		diags, err := readDiagnostics(opts.diagnosticsFile)
		if err != nil {
			return err
		}
		in.Diagnostics = diags
	}

	report, planErr := application.RunPlan(prepared, in, logger)
	if err := encode(w, opts.format, report); err != nil {
		return err
	}
	return planErr
}

func runServe(cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(cfg, logger)
	if err != nil {
		return err
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func readManifest(path string) (pipeline.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return pipeline.Manifest{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return pipeline.LoadManifest(f)
}

func readDiagnostics(path string) ([]pipeline.Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics: %w", err)
	}
	defer f.Close()
	return pipeline.LoadDiagnostics(f)
}

func encode(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, directives.ErrConfig):
		return exitConfigError
	case errors.Is(err, pipeline.ErrTypeCheckFailed), errors.Is(err, pipeline.ErrRedirectMismatch):
		return exitBuildFailed
	default:
		return 1
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/shellbuild/internal/directives"
	"github.com/eugenenazirov/shellbuild/internal/pipeline"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
	defaultLogEncoding    = "json"

	// PresetEmbedded seeds the build options with the embedded shell preset.
	PresetEmbedded = "embedded"
)

// Config aggregates host configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Preset > Defaults
//
// Build holds the raw options literal; it is resolved into directives by the
// caller, so an invalid output mode is reported by the resolver.
type Config struct {
	Build                directives.Options
	Redirects            []pipeline.Redirect
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	PreviewDir           string
	LogLevel             string
	LogEncoding          string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Build   yamlBuild   `yaml:"build"`
	Server  yamlServer  `yaml:"server"`
	Logging yamlLogging `yaml:"logging"`
}

// yamlBuild is the options literal plus hand-authored redirects, side by side
// in the build section.
type yamlBuild struct {
	Options   directives.Options
	Redirects []pipeline.Redirect
}

func (b *yamlBuild) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&b.Options); err != nil {
		return err
	}
	var rest struct {
		Redirects []pipeline.Redirect `yaml:"redirects"`
	}
	if err := node.Decode(&rest); err != nil {
		return err
	}
	b.Redirects = rest.Redirects
	return nil
}

type yamlServer struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	PreviewDir           string        `yaml:"preview_dir"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlLogging struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile        string
	EnvFile           string
	Preset            string
	Output            *string
	TrailingSlash     *bool
	UnoptimizedImages *bool
	IgnoreBuildErrors *bool
	Port              *string
	RateLimitRPS      *float64
	RateLimitBurst    *int
	PreviewDir        *string
	LogLevel          *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Preset > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil {
		if err := applyPreset(&cfg, overrides.Preset); err != nil {
			return Config{}, err
		}
	}

	// Variables already present in the environment win over the .env file.
	if overrides != nil && overrides.EnvFile != "" {
		if err := godotenv.Load(overrides.EnvFile); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values. The build literal is
// empty so every option resolves to its documented default.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		LogEncoding:          defaultLogEncoding,
	}
}

func applyPreset(cfg *Config, preset string) error {
	switch strings.TrimSpace(preset) {
	case "":
		return nil
	case PresetEmbedded:
		cfg.Build = cfg.Build.Overlay(directives.EmbeddedPreset())
		return nil
	default:
		return fmt.Errorf("unknown preset %q", preset)
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	cfg.Build = cfg.Build.Overlay(yamlCfg.Build.Options)

	if len(yamlCfg.Build.Redirects) > 0 {
		cfg.Redirects = yamlCfg.Build.Redirects
	}

	server := yamlCfg.Server
	if server.Port != "" {
		cfg.Port = server.Port
	}

	applyDuration(&cfg.ShutdownGracePeriod, server.ShutdownGracePeriod)
	applyDuration(&cfg.ReadHeaderTimeout, server.ReadHeaderTimeout)
	applyDuration(&cfg.WriteTimeout, server.WriteTimeout)
	applyDuration(&cfg.IdleTimeout, server.IdleTimeout)

	if server.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *server.EnableRequestLogging
	}

	if server.RateLimit.RPS != nil && *server.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *server.RateLimit.RPS
	}

	if server.RateLimit.Burst != nil && *server.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *server.RateLimit.Burst
	}

	if server.PreviewDir != "" {
		cfg.PreviewDir = server.PreviewDir
	}

	if yamlCfg.Logging.Level != "" {
		cfg.LogLevel = yamlCfg.Logging.Level
	}
	if yamlCfg.Logging.Encoding != "" {
		cfg.LogEncoding = yamlCfg.Logging.Encoding
	}
}

func applyDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	var env directives.Options

	if output := strings.TrimSpace(os.Getenv("BUILD_OUTPUT")); output != "" {
		env.Output = &output
	}
	if v, ok := envBool("BUILD_TRAILING_SLASH"); ok {
		env.TrailingSlash = &v
	}
	if v, ok := envBool("BUILD_IMAGES_UNOPTIMIZED"); ok {
		env.Images = &directives.ImageOptions{Unoptimized: &v}
	}
	if v, ok := envBool("BUILD_TYPESCRIPT_IGNORE_BUILD_ERRORS"); ok {
		env.TypeScript = &directives.TypeScriptOptions{IgnoreBuildErrors: &v}
	}
	cfg.Build = cfg.Build.Overlay(env)

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if dir := strings.TrimSpace(os.Getenv("PREVIEW_DIR")); dir != "" {
		cfg.PreviewDir = dir
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
}

// envBool reads a boolean variable. Malformed values are ignored.
func envBool(key string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	var flags directives.Options
	if overrides.Output != nil && *overrides.Output != "" {
		flags.Output = overrides.Output
	}
	flags.TrailingSlash = overrides.TrailingSlash
	if overrides.UnoptimizedImages != nil {
		flags.Images = &directives.ImageOptions{Unoptimized: overrides.UnoptimizedImages}
	}
	if overrides.IgnoreBuildErrors != nil {
		flags.TypeScript = &directives.TypeScriptOptions{IgnoreBuildErrors: overrides.IgnoreBuildErrors}
	}
	cfg.Build = cfg.Build.Overlay(flags)

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.PreviewDir != nil && *overrides.PreviewDir != "" {
		cfg.PreviewDir = *overrides.PreviewDir
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
}

// validateConfig validates the final host configuration. The build literal is
// left to the resolver.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", cfg.LogLevel)
	}
	switch cfg.LogEncoding {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log encoding %q", cfg.LogEncoding)
	}
	return nil
}

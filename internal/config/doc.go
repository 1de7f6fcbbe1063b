// Package config loads host configuration from multiple sources (presets,
// .env files, environment variables, YAML files, CLI flags) with precedence:
// CLI flags > YAML config > Environment variables > Preset > Defaults. It
// carries the build options literal unresolved; resolution belongs to the
// directives package.
package config

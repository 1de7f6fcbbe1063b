package directives

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig is the sentinel every ConfigError unwraps to.
var ErrConfig = errors.New("invalid build configuration")

// ConfigError reports an option value the resolver cannot accept.
type ConfigError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid value for %s (allowed: %s)",
		ErrConfig, e.Value, e.Field, strings.Join(e.Allowed, ", "))
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

package pipeline

import "errors"

var (
	// ErrStrategyUnset is returned when a packaging plan is requested before Apply.
	ErrStrategyUnset = errors.New("packaging strategy has not been set")
	// ErrRedirectMismatch is returned when a hand-authored redirect disagrees with the trailing slash rule.
	ErrRedirectMismatch = errors.New("redirect does not match the trailing slash rule")
	// ErrTypeCheckFailed is returned when error diagnostics are present and type errors are fatal.
	ErrTypeCheckFailed = errors.New("type check failed")
	// ErrInvalidImageWidth is returned when an optimized image URL is requested without a positive width.
	ErrInvalidImageWidth = errors.New("image width must be a positive integer")
)

package directives

import (
	"encoding/json"
	"fmt"
)

// BuildDirectives is the resolved, validated option set handed to the
// downstream build phases. Fields are unexported so a value cannot be changed
// after Resolve returns it; copies are cheap and comparable with ==.
type BuildDirectives struct {
	output            OutputMode
	trailingSlash     bool
	unoptimizedImages bool
	ignoreBuildErrors bool
}

// Defaults returns the directives an empty literal resolves to.
func Defaults() BuildDirectives {
	return BuildDirectives{output: OutputDefault}
}

// Resolve validates raw and fills every undeclared option with its default.
// The only failure is an out-of-set output mode, reported as *ConfigError.
func Resolve(raw Options) (BuildDirectives, error) {
	d := Defaults()

	if raw.Output != nil {
		mode, err := ParseOutputMode(*raw.Output)
		if err != nil {
			return BuildDirectives{}, err
		}
		d.output = mode
	}
	if raw.TrailingSlash != nil {
		d.trailingSlash = *raw.TrailingSlash
	}
	if raw.Images != nil && raw.Images.Unoptimized != nil {
		d.unoptimizedImages = *raw.Images.Unoptimized
	}
	if raw.TypeScript != nil && raw.TypeScript.IgnoreBuildErrors != nil {
		d.ignoreBuildErrors = *raw.TypeScript.IgnoreBuildErrors
	}

	return d, nil
}

// MustResolve is Resolve for literals known to be valid, such as presets.
func MustResolve(raw Options) BuildDirectives {
	d, err := Resolve(raw)
	if err != nil {
		panic(fmt.Sprintf("directives: %v", err))
	}
	return d
}

// Output is the packaging strategy.
func (d BuildDirectives) Output() OutputMode { return d.output }

// TrailingSlash reports whether generated routes end with "/".
func (d BuildDirectives) TrailingSlash() bool { return d.trailingSlash }

// UnoptimizedImages reports whether images are served byte-identical to source.
func (d BuildDirectives) UnoptimizedImages() bool { return d.unoptimizedImages }

// IgnoreBuildErrors reports whether type-check errors are demoted to warnings.
func (d BuildDirectives) IgnoreBuildErrors() bool { return d.ignoreBuildErrors }

// Options renders d back into a fully declared literal. Resolving the result
// yields d again.
func (d BuildDirectives) Options() Options {
	return Options{
		Output:        ptr(d.output.String()),
		TrailingSlash: ptr(d.trailingSlash),
		Images:        &ImageOptions{Unoptimized: ptr(d.unoptimizedImages)},
		TypeScript:    &TypeScriptOptions{IgnoreBuildErrors: ptr(d.ignoreBuildErrors)},
	}
}

// MarshalJSON encodes the directives in literal form.
func (d BuildDirectives) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Options())
}

// MarshalYAML encodes the directives in literal form.
func (d BuildDirectives) MarshalYAML() (any, error) {
	return d.Options(), nil
}

// UnmarshalJSON decodes a literal and resolves it, so a malformed mode is
// reported as *ConfigError.
func (d *BuildDirectives) UnmarshalJSON(data []byte) error {
	var raw Options
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	resolved, err := Resolve(raw)
	if err != nil {
		return err
	}
	*d = resolved
	return nil
}

func (d BuildDirectives) String() string {
	return fmt.Sprintf("output=%s trailingSlash=%t images.unoptimized=%t typescript.ignoreBuildErrors=%t",
		d.output, d.trailingSlash, d.unoptimizedImages, d.ignoreBuildErrors)
}

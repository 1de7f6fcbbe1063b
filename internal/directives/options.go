package directives

// Options is the declared options literal. Every field is optional; a nil
// pointer means "not declared" and resolves to the documented default.
// Output stays a raw string so that an out-of-set mode survives loading and
// is rejected by Resolve rather than by whichever decoder read it.
type Options struct {
	Output        *string            `yaml:"output,omitempty" json:"output,omitempty"`
	TrailingSlash *bool              `yaml:"trailingSlash,omitempty" json:"trailingSlash,omitempty"`
	Images        *ImageOptions      `yaml:"images,omitempty" json:"images,omitempty"`
	TypeScript    *TypeScriptOptions `yaml:"typescript,omitempty" json:"typescript,omitempty"`
}

// ImageOptions is the images section of the literal.
type ImageOptions struct {
	Unoptimized *bool `yaml:"unoptimized,omitempty" json:"unoptimized,omitempty"`
}

// TypeScriptOptions is the typescript section of the literal.
type TypeScriptOptions struct {
	IgnoreBuildErrors *bool `yaml:"ignoreBuildErrors,omitempty" json:"ignoreBuildErrors,omitempty"`
}

// EmbeddedPreset returns the literal declared for builds embedded in a native
// mobile shell: standalone output, images served as-is, type errors demoted
// to warnings and no trailing slash.
func EmbeddedPreset() Options {
	return Options{
		Output:        ptr(OutputStandalone.String()),
		TrailingSlash: ptr(false),
		Images:        &ImageOptions{Unoptimized: ptr(true)},
		TypeScript:    &TypeScriptOptions{IgnoreBuildErrors: ptr(true)},
	}
}

// Overlay returns a copy of o with every option declared in over taking
// precedence. Undeclared options in over leave o untouched.
func (o Options) Overlay(over Options) Options {
	out := o.clone()
	if over.Output != nil {
		out.Output = ptr(*over.Output)
	}
	if over.TrailingSlash != nil {
		out.TrailingSlash = ptr(*over.TrailingSlash)
	}
	if over.Images != nil && over.Images.Unoptimized != nil {
		out.Images = &ImageOptions{Unoptimized: ptr(*over.Images.Unoptimized)}
	}
	if over.TypeScript != nil && over.TypeScript.IgnoreBuildErrors != nil {
		out.TypeScript = &TypeScriptOptions{IgnoreBuildErrors: ptr(*over.TypeScript.IgnoreBuildErrors)}
	}
	return out
}

func (o Options) clone() Options {
	var out Options
	if o.Output != nil {
		out.Output = ptr(*o.Output)
	}
	if o.TrailingSlash != nil {
		out.TrailingSlash = ptr(*o.TrailingSlash)
	}
	if o.Images != nil {
		out.Images = &ImageOptions{}
		if o.Images.Unoptimized != nil {
			out.Images.Unoptimized = ptr(*o.Images.Unoptimized)
		}
	}
	if o.TypeScript != nil {
		out.TypeScript = &TypeScriptOptions{}
		if o.TypeScript.IgnoreBuildErrors != nil {
			out.TypeScript.IgnoreBuildErrors = ptr(*o.TypeScript.IgnoreBuildErrors)
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

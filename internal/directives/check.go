package directives

import "fmt"

// Warning codes reported by Check.
const (
	WarnStandaloneOptimizedImages = "standalone-optimized-images"
	WarnExportOptimizedImages     = "export-optimized-images"
)

// Warning is an advisory finding about a combination of directives that
// resolves cleanly but is likely to fail once the output is served.
type Warning struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Check inspects option pairings. It never fails: the caller decides whether
// a warning is worth stopping for.
func Check(d BuildDirectives) []Warning {
	var warnings []Warning
	if d.unoptimizedImages {
		return warnings
	}

	switch d.output {
	case OutputStandalone:
		warnings = append(warnings, Warning{
			Code:    WarnStandaloneOptimizedImages,
			Message: "standalone output with image optimization enabled requires an image optimization runtime at serve time; set images.unoptimized=true for embedded targets",
		})
	case OutputExport:
		warnings = append(warnings, Warning{
			Code:    WarnExportOptimizedImages,
			Message: "static export cannot run the image optimizer; set images.unoptimized=true",
		})
	}
	return warnings
}

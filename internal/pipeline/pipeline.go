// Package pipeline holds the downstream build phases that consume resolved
// directives: packaging, route normalization, image assets and type-check
// verification. Apply is the only place directives are translated into phase
// settings.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/eugenenazirov/shellbuild/internal/directives"
)

// PackagingPhase receives the packaging strategy.
type PackagingPhase interface {
	SetStrategy(mode directives.OutputMode)
}

// RoutingPhase receives the path normalization rule.
type RoutingPhase interface {
	SetTrailingSlash(enabled bool)
}

// AssetPhase receives the image optimization toggle.
type AssetPhase interface {
	SetOptimization(enabled bool)
}

// VerificationPhase receives the type-check fatality toggle.
type VerificationPhase interface {
	SetFatal(fatal bool)
}

// Pipeline is a handle to the phases Apply configures. Nil phases are skipped.
type Pipeline struct {
	Packaging    PackagingPhase
	Routing      RoutingPhase
	Assets       AssetPhase
	Verification VerificationPhase
}

// Apply hands each phase the setting it reads from d. Failures inside the
// phases are reported by the phases themselves.
func Apply(d directives.BuildDirectives, p Pipeline) {
	if p.Packaging != nil {
		p.Packaging.SetStrategy(d.Output())
	}
	if p.Routing != nil {
		p.Routing.SetTrailingSlash(d.TrailingSlash())
	}
	if p.Assets != nil {
		p.Assets.SetOptimization(!d.UnoptimizedImages())
	}
	if p.Verification != nil {
		p.Verification.SetFatal(!d.IgnoreBuildErrors())
	}
}

// Build bundles the concrete phase implementations used by the host tool.
type Build struct {
	Packager *Packager
	Router   *Router
	Assets   *Assets
	Verifier *Verifier
}

// New creates a Build with every phase in its pre-Apply state.
func New(logger *zap.Logger) *Build {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Build{
		Packager: NewPackager(),
		Router:   NewRouter(),
		Assets:   NewAssets(),
		Verifier: NewVerifier(logger),
	}
}

// Phases exposes b as a Pipeline handle for Apply.
func (b *Build) Phases() Pipeline {
	return Pipeline{
		Packaging:    b.Packager,
		Routing:      b.Router,
		Assets:       b.Assets,
		Verification: b.Verifier,
	}
}

package application

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/shellbuild/internal/directives"
	"github.com/eugenenazirov/shellbuild/internal/pipeline"
)

// PlanInput carries the optional inputs of a dry-run build.
type PlanInput struct {
	Manifest    *pipeline.Manifest
	Routes      []string
	Diagnostics []pipeline.Diagnostic
}

// RouteReport is the canonical form of one requested route.
type RouteReport struct {
	Path      string `json:"path" yaml:"path"`
	Canonical string `json:"canonical" yaml:"canonical"`
	Redirect  bool   `json:"redirect" yaml:"redirect"`
}

// PlanReport describes what each phase would do with the prepared directives.
type PlanReport struct {
	Directives   directives.BuildDirectives `json:"directives" yaml:"directives"`
	Warnings     []directives.Warning       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Packaging    *pipeline.Plan             `json:"packaging,omitempty" yaml:"packaging,omitempty"`
	Routes       []RouteReport              `json:"routes,omitempty" yaml:"routes,omitempty"`
	Verification *pipeline.Verdict          `json:"verification,omitempty" yaml:"verification,omitempty"`
	ImagesServed string                     `json:"imagesServed" yaml:"imagesServed"`
}

// RunPlan walks the prepared phases over in without producing output. A
// failing type check is returned alongside the report so callers can still
// print what was found.
func RunPlan(prepared *Prepared, in PlanInput, logger *zap.Logger) (PlanReport, error) {
	build := prepared.Build
	report := PlanReport{
		Directives:   prepared.Directives,
		Warnings:     prepared.Warnings,
		ImagesServed: "optimized",
	}
	if !build.Assets.Optimized() {
		report.ImagesServed = "as-is"
	}

	if in.Manifest != nil {
		plan, err := build.Packager.Plan(*in.Manifest)
		if err != nil {
			return report, fmt.Errorf("plan packaging: %w", err)
		}
		report.Packaging = &plan
	}

	for _, route := range in.Routes {
		canonical, redirect := build.Router.Redirect(route)
		report.Routes = append(report.Routes, RouteReport{Path: route, Canonical: canonical, Redirect: redirect})
	}

	if in.Diagnostics != nil {
		verdict, err := build.Verifier.Evaluate(in.Diagnostics)
		report.Verification = &verdict
		if err != nil {
			if errors.Is(err, pipeline.ErrTypeCheckFailed) {
				logger.Error("verification failed", zap.Int("errors", verdict.Errors))
			}
			return report, err
		}
		if verdict.Demoted > 0 {
			logger.Warn("type errors demoted to warnings", zap.Int("demoted", verdict.Demoted))
		}
	}

	return report, nil
}

// Package application runs the build-start sequence and wires its result into
// the host tool. Prepare resolves the options literal, reports pairing
// warnings, applies the directives to the pipeline phases and checks
// hand-authored redirects; New additionally builds the preview HTTP server
// and RunPlan walks the phases as a dry run.
package application

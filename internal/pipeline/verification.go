package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Severity classifies a type-check diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single type-checker finding.
type Diagnostic struct {
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line" yaml:"line"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// LoadDiagnostics decodes a JSON array of diagnostics. A missing severity is
// treated as an error.
func LoadDiagnostics(r io.Reader) ([]Diagnostic, error) {
	var diags []Diagnostic
	if err := json.NewDecoder(r).Decode(&diags); err != nil {
		return nil, fmt.Errorf("decode diagnostics: %w", err)
	}
	for i := range diags {
		if diags[i].Severity == "" {
			diags[i].Severity = SeverityError
		}
	}
	return diags, nil
}

// Verdict summarises a verification run.
type Verdict struct {
	Errors   int  `json:"errors" yaml:"errors"`
	Warnings int  `json:"warnings" yaml:"warnings"`
	Demoted  int  `json:"demoted" yaml:"demoted"`
	Passed   bool `json:"passed" yaml:"passed"`
}

// Verifier is the type-check gating phase.
type Verifier struct {
	logger *zap.Logger

	mu    sync.RWMutex
	fatal bool
}

// NewVerifier returns a Verifier that treats type errors as fatal.
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{logger: logger, fatal: true}
}

// SetFatal implements VerificationPhase.
func (v *Verifier) SetFatal(fatal bool) {
	v.mu.Lock()
	v.fatal = fatal
	v.mu.Unlock()
}

// Fatal reports whether error diagnostics abort the build.
func (v *Verifier) Fatal() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fatal
}

// Evaluate gates the build on diags. With fatal errors any error diagnostic
// fails the build with ErrTypeCheckFailed; otherwise errors are demoted to
// warnings and the build passes.
func (v *Verifier) Evaluate(diags []Diagnostic) (Verdict, error) {
	var verdict Verdict
	for _, d := range diags {
		if d.Severity == SeverityError {
			verdict.Errors++
		} else {
			verdict.Warnings++
		}
	}

	if verdict.Errors == 0 {
		verdict.Passed = true
		return verdict, nil
	}

	if v.Fatal() {
		for _, d := range diags {
			if d.Severity == SeverityError {
				v.logger.Error("type error", diagnosticFields(d)...)
			}
		}
		return verdict, fmt.Errorf("%w: %d error(s)", ErrTypeCheckFailed, verdict.Errors)
	}

	for _, d := range diags {
		if d.Severity == SeverityError {
			v.logger.Warn("type error ignored", diagnosticFields(d)...)
		}
	}
	verdict.Demoted = verdict.Errors
	verdict.Passed = true
	return verdict, nil
}

func diagnosticFields(d Diagnostic) []zap.Field {
	return []zap.Field{
		zap.String("file", d.File),
		zap.Int("line", d.Line),
		zap.String("code", d.Code),
		zap.String("message", d.Message),
	}
}

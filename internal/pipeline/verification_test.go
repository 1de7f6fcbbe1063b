package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleDiagnostics = `[
  {"file": "app/page.tsx", "line": 12, "code": "TS2322", "message": "Type 'string' is not assignable to type 'number'.", "severity": "error"},
  {"file": "app/layout.tsx", "line": 3, "code": "TS6133", "message": "'x' is declared but its value is never read.", "severity": "warning"},
  {"file": "lib/bridge.ts", "line": 40, "code": "TS2339", "message": "Property 'webkit' does not exist on type 'Window'."}
]`

func TestLoadDiagnosticsDefaultsSeverity(t *testing.T) {
	t.Parallel()

	diags, err := LoadDiagnostics(strings.NewReader(sampleDiagnostics))
	require.NoError(t, err)
	require.Len(t, diags, 3)
	assert.Equal(t, SeverityError, diags[2].Severity)

	_, err = LoadDiagnostics(strings.NewReader(`{"file": 1}`))
	assert.Error(t, err)
}

func TestVerifierFatalFailsBuild(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	v := NewVerifier(zap.New(core))

	diags, err := LoadDiagnostics(strings.NewReader(sampleDiagnostics))
	require.NoError(t, err)

	verdict, err := v.Evaluate(diags)
	require.ErrorIs(t, err, ErrTypeCheckFailed)
	assert.Equal(t, Verdict{Errors: 2, Warnings: 1}, verdict)
	assert.Equal(t, 2, logs.FilterMessage("type error").Len())
}

func TestVerifierNonFatalDemotesErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	v := NewVerifier(zap.New(core))
	v.SetFatal(false)

	diags, err := LoadDiagnostics(strings.NewReader(sampleDiagnostics))
	require.NoError(t, err)

	verdict, err := v.Evaluate(diags)
	require.NoError(t, err)
	assert.Equal(t, Verdict{Errors: 2, Warnings: 1, Demoted: 2, Passed: true}, verdict)

	ignored := logs.FilterMessage("type error ignored").All()
	require.Len(t, ignored, 2)
	assert.Equal(t, zapcore.WarnLevel, ignored[0].Level)
	assert.Equal(t, "TS2322", ignored[0].ContextMap()["code"])
}

func TestVerifierPassesCleanRun(t *testing.T) {
	t.Parallel()

	v := NewVerifier(nil)
	verdict, err := v.Evaluate([]Diagnostic{{Severity: SeverityWarning}})
	require.NoError(t, err)
	assert.Equal(t, Verdict{Warnings: 1, Passed: true}, verdict)

	verdict, err = v.Evaluate(nil)
	require.NoError(t, err)
	assert.True(t, verdict.Passed)
}

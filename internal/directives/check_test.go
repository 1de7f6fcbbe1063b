package directives

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input Options
		want  []string
	}{
		{
			name:  "Defaults",
			input: Options{},
		},
		{
			name:  "StandaloneOptimized",
			input: Options{Output: ptr("standalone")},
			want:  []string{WarnStandaloneOptimizedImages},
		},
		{
			name:  "StandaloneUnoptimized",
			input: Options{Output: ptr("standalone"), Images: &ImageOptions{Unoptimized: ptr(true)}},
		},
		{
			name:  "ExportOptimized",
			input: Options{Output: ptr("export")},
			want:  []string{WarnExportOptimizedImages},
		},
		{
			name:  "DefaultUnoptimized",
			input: Options{Images: &ImageOptions{Unoptimized: ptr(true)}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var codes []string
			for _, w := range Check(MustResolve(tc.input)) {
				assert.NotEmpty(t, w.Message)
				codes = append(codes, w.Code)
			}
			assert.Equal(t, tc.want, codes)
		})
	}
}

func TestOutputModeText(t *testing.T) {
	t.Parallel()

	var m OutputMode
	assert.NoError(t, m.UnmarshalText([]byte("export")))
	assert.Equal(t, OutputExport, m)

	text, err := OutputStandalone.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "standalone", string(text))

	assert.ErrorIs(t, m.UnmarshalText([]byte("bogus")), ErrConfig)
	assert.Equal(t, OutputExport, m, "failed unmarshal leaves the value untouched")
	assert.Equal(t, "unknown", OutputMode(42).String())
}

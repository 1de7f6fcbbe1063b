package directives

import "strings"

// OutputMode selects the packaging strategy. The zero value is OutputDefault,
// and values outside the declared constants can only be produced by a
// conversion the package never performs, so a resolved mode is always valid.
type OutputMode uint8

const (
	// OutputDefault keeps the regular server build that needs the full
	// dependency tree at runtime.
	OutputDefault OutputMode = iota
	// OutputStandalone produces a self-contained server bundle with only the
	// production dependency closure.
	OutputStandalone
	// OutputExport produces static files only.
	OutputExport
)

var outputModeNames = [...]string{
	OutputDefault:    "default",
	OutputStandalone: "standalone",
	OutputExport:     "export",
}

// OutputModes lists every valid mode in declaration order.
func OutputModes() []OutputMode {
	return []OutputMode{OutputDefault, OutputStandalone, OutputExport}
}

// ParseOutputMode maps the literal spelling of a mode onto its constant.
// Matching is exact apart from surrounding whitespace.
func ParseOutputMode(raw string) (OutputMode, error) {
	name := strings.TrimSpace(raw)
	for _, mode := range OutputModes() {
		if outputModeNames[mode] == name {
			return mode, nil
		}
	}
	return OutputDefault, &ConfigError{
		Field:   "output",
		Value:   raw,
		Allowed: outputModeStrings(),
	}
}

func (m OutputMode) String() string {
	if int(m) < len(outputModeNames) {
		return outputModeNames[m]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler, used by both the JSON and
// YAML encoders.
func (m OutputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *OutputMode) UnmarshalText(text []byte) error {
	mode, err := ParseOutputMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func outputModeStrings() []string {
	modes := OutputModes()
	out := make([]string, 0, len(modes))
	for _, mode := range modes {
		out = append(out, mode.String())
	}
	return out
}

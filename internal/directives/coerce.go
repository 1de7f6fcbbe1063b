package directives

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// looseBool decodes any scalar into a boolean. Recognised spellings
// ("true", "0", "off", ...) keep their meaning, numbers are true when
// non-zero and every other non-empty value is true. Decoding never fails on
// the value itself.
type looseBool bool

func coerceBool(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0
	}
	return true
}

func (b *looseBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		*b = false
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = looseBool(coerceBool(s))
	case data[0] == '{' || data[0] == '[':
		*b = true
	default:
		*b = looseBool(coerceBool(string(data)))
	}
	return nil
}

func (b *looseBool) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*b = true
		return nil
	}
	*b = looseBool(coerceBool(node.Value))
	return nil
}

func (b *looseBool) ptr() *bool {
	if b == nil {
		return nil
	}
	return ptr(bool(*b))
}

// looseOptions mirrors Options with coercing booleans.
type looseOptions struct {
	Output        *string    `yaml:"output" json:"output"`
	TrailingSlash *looseBool `yaml:"trailingSlash" json:"trailingSlash"`
	Images        *struct {
		Unoptimized *looseBool `yaml:"unoptimized" json:"unoptimized"`
	} `yaml:"images" json:"images"`
	TypeScript *struct {
		IgnoreBuildErrors *looseBool `yaml:"ignoreBuildErrors" json:"ignoreBuildErrors"`
	} `yaml:"typescript" json:"typescript"`
}

func (l looseOptions) options() Options {
	out := Options{
		Output:        l.Output,
		TrailingSlash: l.TrailingSlash.ptr(),
	}
	if l.Images != nil {
		out.Images = &ImageOptions{Unoptimized: l.Images.Unoptimized.ptr()}
	}
	if l.TypeScript != nil {
		out.TypeScript = &TypeScriptOptions{IgnoreBuildErrors: l.TypeScript.IgnoreBuildErrors.ptr()}
	}
	return out
}

// UnmarshalJSON decodes a literal, coercing the boolean options.
func (o *Options) UnmarshalJSON(data []byte) error {
	var l looseOptions
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*o = l.options()
	return nil
}

// UnmarshalYAML decodes a literal, coercing the boolean options.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	var l looseOptions
	if err := node.Decode(&l); err != nil {
		return err
	}
	*o = l.options()
	return nil
}

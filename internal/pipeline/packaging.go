package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/eugenenazirov/shellbuild/internal/directives"
)

// Manifest is the subset of a package.json the packaging phase reads.
type Manifest struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// LoadManifest decodes a package.json document.
func LoadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Plan describes what the packaging phase will emit for a strategy.
type Plan struct {
	Strategy            directives.OutputMode `json:"strategy" yaml:"strategy"`
	OutputDir           string                `json:"outputDir" yaml:"outputDir"`
	Entrypoint          string                `json:"entrypoint,omitempty" yaml:"entrypoint,omitempty"`
	Dependencies        []string              `json:"dependencies" yaml:"dependencies"`
	RequiresServer      bool                  `json:"requiresServer" yaml:"requiresServer"`
	RequiresNodeModules bool                  `json:"requiresNodeModules" yaml:"requiresNodeModules"`
}

// Packager is the output packaging phase.
type Packager struct {
	mu       sync.RWMutex
	strategy directives.OutputMode
	set      bool
}

// NewPackager returns a Packager with no strategy.
func NewPackager() *Packager {
	return &Packager{}
}

// SetStrategy implements PackagingPhase.
func (p *Packager) SetStrategy(mode directives.OutputMode) {
	p.mu.Lock()
	p.strategy = mode
	p.set = true
	p.mu.Unlock()
}

// Strategy returns the configured strategy and whether one was set.
func (p *Packager) Strategy() (directives.OutputMode, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.strategy, p.set
}

// Plan computes the output layout for m under the configured strategy.
// Standalone output carries only the production dependency closure, the
// default build ships every dependency and export ships none.
func (p *Packager) Plan(m Manifest) (Plan, error) {
	strategy, ok := p.Strategy()
	if !ok {
		return Plan{}, ErrStrategyUnset
	}

	switch strategy {
	case directives.OutputStandalone:
		return Plan{
			Strategy:       strategy,
			OutputDir:      ".next/standalone",
			Entrypoint:     "server.js",
			Dependencies:   sortedKeys(m.Dependencies),
			RequiresServer: true,
		}, nil
	case directives.OutputExport:
		return Plan{
			Strategy:     strategy,
			OutputDir:    "out",
			Dependencies: []string{},
		}, nil
	default:
		return Plan{
			Strategy:            strategy,
			OutputDir:           ".next",
			Dependencies:        sortedKeys(m.Dependencies, m.DevDependencies),
			RequiresServer:      true,
			RequiresNodeModules: true,
		}, nil
	}
}

func sortedKeys(sets ...map[string]string) []string {
	seen := make(map[string]struct{})
	for _, set := range sets {
		for name := range set {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

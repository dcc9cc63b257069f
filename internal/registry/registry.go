// Package registry maintains dependency-registry.json: the scanned view of
// every tracked component's declared dependencies. The registry is produced
// by scanning component manifests (package.json, requirements.txt, go.mod),
// validated before release, and locked to pin the exact versions a release
// shipped with.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

var (
	// ErrInvalidRegistry is returned when registry validation fails
	ErrInvalidRegistry = errors.New("invalid registry")
)

// Dependency scope values.
const (
	ScopeRuntime  = "runtime"
	ScopeDev      = "dev"
	ScopeIndirect = "indirect"
)

// Registry is the persisted dependency registry document.
type Registry struct {
	Generated  time.Time             `json:"generated"`
	Locked     bool                  `json:"locked"`
	LockedAt   *time.Time            `json:"lockedAt,omitempty"`
	Components map[string]*Component `json:"components"`
}

// Component holds the scanned manifest of one tracked component.
type Component struct {
	Manifest     string       `json:"manifest"` // npm, pip, gomod
	ManifestPath string       `json:"manifestPath"`
	Dependencies []Dependency `json:"dependencies"`
}

// Dependency is one declared dependency as read from a manifest.
type Dependency struct {
	Name string `json:"name"`
	// Spec is the version requirement exactly as written in the manifest.
	Spec string `json:"spec"`
	// Resolved is the concrete version derived from the spec, empty when
	// the spec is floating and carries no pinnable version.
	Resolved string `json:"resolved,omitempty"`
	// Locked is set by the lock operation and pins the shipped version.
	Locked string `json:"locked,omitempty"`
	Scope  string `json:"scope"`
}

// New returns an empty registry stamped with the current time.
func New() *Registry {
	return &Registry{
		Generated:  time.Now().UTC(),
		Components: make(map[string]*Component),
	}
}

// Load reads a registry document from path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if reg.Components == nil {
		reg.Components = make(map[string]*Component)
	}
	return &reg, nil
}

// Save writes the registry document to path as indented JSON.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// ComponentNames returns the scanned component names, sorted.
func (r *Registry) ComponentNames() []string {
	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DependencyCount returns the total number of dependencies across components.
func (r *Registry) DependencyCount() int {
	n := 0
	for _, comp := range r.Components {
		n += len(comp.Dependencies)
	}
	return n
}

// Find returns the named dependency of a component, or nil.
func (r *Registry) Find(component, dependency string) *Dependency {
	comp, ok := r.Components[component]
	if !ok {
		return nil
	}
	for i := range comp.Dependencies {
		if comp.Dependencies[i].Name == dependency {
			return &comp.Dependencies[i]
		}
	}
	return nil
}

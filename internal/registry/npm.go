package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// packageJSON is the subset of package.json relevant to dependency tracking.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

var npmExactVersion = regexp.MustCompile(`^\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.+-]+)?$`)

// parsePackageJSON reads an npm manifest. Dependencies are emitted in sorted
// name order, runtime dependencies before dev dependencies.
func parsePackageJSON(path string) ([]Dependency, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	deps := appendNpmDeps(nil, pkg.Dependencies, ScopeRuntime)
	deps = appendNpmDeps(deps, pkg.DevDependencies, ScopeDev)
	return deps, nil
}

func appendNpmDeps(deps []Dependency, m map[string]string, scope string) []Dependency {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := m[name]
		deps = append(deps, Dependency{
			Name:     name,
			Spec:     spec,
			Resolved: resolveNpmSpec(spec),
			Scope:    scope,
		})
	}
	return deps
}

// resolveNpmSpec extracts a concrete version from an npm version range when
// the range pins one ("1.2.3", "^1.2.3", "~1.2.3", "=1.2.3"). Floating
// specifiers ("latest", "*", ">=1.0.0", git/file URLs) resolve to nothing.
func resolveNpmSpec(spec string) string {
	trimmed := spec
	switch {
	case trimmed == "":
		return ""
	case trimmed[0] == '^' || trimmed[0] == '~' || trimmed[0] == '=':
		trimmed = trimmed[1:]
	}
	if npmExactVersion.MatchString(trimmed) {
		return trimmed
	}
	return ""
}

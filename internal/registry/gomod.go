package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// parseGoMod reads a go.mod require block. Indirect requirements are kept
// (they still ship) but tagged with the indirect scope so audits can treat
// them separately.
func parseGoMod(path string) ([]Dependency, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}

	deps := make([]Dependency, 0, len(mf.Require))
	for _, req := range mf.Require {
		scope := ScopeRuntime
		if req.Indirect {
			scope = ScopeIndirect
		}
		deps = append(deps, Dependency{
			Name:     req.Mod.Path,
			Spec:     req.Mod.Version,
			Resolved: req.Mod.Version, // go.mod versions are always pinned
			Scope:    scope,
		})
	}

	return deps, nil
}

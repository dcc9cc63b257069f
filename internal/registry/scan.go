package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/policyforge/relkit/internal/config"
)

// manifest file names looked up during auto-detection, in priority order.
var manifestFiles = []struct {
	kind string
	name string
}{
	{"npm", "package.json"},
	{"pip", "requirements.txt"},
	{"gomod", "go.mod"},
}

// Scan builds a fresh registry by scanning every configured component's
// manifest under root. A component whose manifest is missing fails the scan.
func Scan(root string, components []config.ComponentConfig) (*Registry, error) {
	reg := New()

	for _, comp := range components {
		dir := filepath.Join(root, comp.Dir)

		kind, manifestPath, err := detectManifest(dir, comp.Manifest)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", comp.Name, err)
		}

		deps, err := parseManifest(kind, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", comp.Name, err)
		}

		rel, err := filepath.Rel(root, manifestPath)
		if err != nil {
			rel = manifestPath
		}

		reg.Components[comp.Name] = &Component{
			Manifest:     kind,
			ManifestPath: filepath.ToSlash(rel),
			Dependencies: deps,
		}
	}

	return reg, nil
}

// detectManifest locates the manifest file for a component directory.
// An explicit kind ("npm", "pip", "gomod") requires that exact manifest;
// "auto" (or empty) takes the first manifest kind found.
func detectManifest(dir, kind string) (string, string, error) {
	if kind != "" && kind != "auto" {
		for _, m := range manifestFiles {
			if m.kind != kind {
				continue
			}
			path := filepath.Join(dir, m.name)
			if _, err := os.Stat(path); err != nil {
				return "", "", fmt.Errorf("manifest %s not found in %s: %w", m.name, dir, err)
			}
			return kind, path, nil
		}
		return "", "", fmt.Errorf("unknown manifest kind %q", kind)
	}

	for _, m := range manifestFiles {
		path := filepath.Join(dir, m.name)
		if _, err := os.Stat(path); err == nil {
			return m.kind, path, nil
		}
	}
	return "", "", fmt.Errorf("no manifest (package.json, requirements.txt, go.mod) found in %s", dir)
}

func parseManifest(kind, path string) ([]Dependency, error) {
	switch kind {
	case "npm":
		return parsePackageJSON(path)
	case "pip":
		return parseRequirements(path)
	case "gomod":
		return parseGoMod(path)
	default:
		return nil, fmt.Errorf("unsupported manifest kind %q", kind)
	}
}

package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Matrix is version-matrix.json: for every release that went out, the
// component versions it shipped with. The matrix is append-only; re-running
// update for an existing release overwrites that release's row only.
type Matrix struct {
	Updated  time.Time                    `json:"updated"`
	Releases map[string]map[string]string `json:"releases"`
}

// LoadMatrix reads the version matrix, returning an empty matrix when the
// file does not exist yet.
func LoadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if os.IsNotExist(err) {
		return &Matrix{Releases: make(map[string]map[string]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read version matrix: %w", err)
	}

	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse version matrix: %w", err)
	}
	if m.Releases == nil {
		m.Releases = make(map[string]map[string]string)
	}
	return &m, nil
}

// Record sets the component versions for a release and stamps the matrix.
func (m *Matrix) Record(rel Version, components map[string]string) {
	row := make(map[string]string, len(components))
	for name, ver := range components {
		row[name] = ver
	}
	m.Releases[rel.String()] = row
	m.Updated = time.Now().UTC()
}

// Save writes the matrix to path as indented JSON.
func (m *Matrix) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode version matrix: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write version matrix: %w", err)
	}
	return nil
}

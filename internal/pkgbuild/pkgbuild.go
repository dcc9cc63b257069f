// Package pkgbuild assembles the customer-safe deployment package: the
// allow-listed subset of the repository, with internal-only YAML fields
// rewritten, a checksummed package manifest, and a tarball for delivery.
package pkgbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/policyforge/relkit/internal/config"
)

var (
	// ErrPackageInvalid is returned when package verification fails
	ErrPackageInvalid = errors.New("invalid customer package")
)

// ManifestFile is the manifest's file name inside the package.
const ManifestFile = "package-manifest.json"

// BOMFile is the BOM's file name inside the package.
const BOMFile = "BOM.json"

// Manifest records what went into a customer package.
type Manifest struct {
	BuildID string    `json:"buildId"`
	Name    string    `json:"name"`
	Release string    `json:"release"`
	Created time.Time `json:"created"`
	Files   []Entry   `json:"files"`
}

// Entry is one packaged file with its checksum.
type Entry struct {
	Path   string `json:"path"` // slash-separated, relative to the package root
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Build assembles the package under outDir from the allow-listed files of
// srcRoot, applies the configured YAML rewrites, copies the BOM in when
// bomPath is non-empty, and writes the package manifest. The returned
// manifest is the one written to disk.
func Build(srcRoot, outDir string, pkg config.PackageConfig, release, bomPath string) (*Manifest, error) {
	allow, err := compileAllow(pkg.Allow)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create package dir: %w", err)
	}

	copied, err := copyAllowed(srcRoot, outDir, allow)
	if err != nil {
		return nil, err
	}
	if len(copied) == 0 {
		return nil, fmt.Errorf("allow list matched no files under %s", srcRoot)
	}

	for _, rw := range pkg.Rewrites {
		if err := ApplyRewrite(outDir, rw); err != nil {
			return nil, err
		}
	}

	if bomPath != "" {
		if err := copyFile(bomPath, filepath.Join(outDir, BOMFile)); err != nil {
			return nil, fmt.Errorf("failed to copy BOM into package: %w", err)
		}
		copied = append(copied, BOMFile)
	}

	manifest := &Manifest{
		BuildID: uuid.NewString(),
		Name:    pkg.Name,
		Release: release,
		Created: time.Now().UTC(),
	}

	sort.Strings(copied)
	for _, rel := range copied {
		entry, err := checksumEntry(outDir, rel)
		if err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, entry)
	}

	if err := writeManifest(manifest, filepath.Join(outDir, ManifestFile)); err != nil {
		return nil, err
	}

	return manifest, nil
}

// LoadManifest reads a package manifest from dir.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read package manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse package manifest: %w", err)
	}
	return &m, nil
}

// Verify checks an assembled package directory against its manifest and
// allow list: every manifest checksum must match, and every file on disk
// must be either allow-listed or one of the package's own artifacts.
func Verify(dir string, allowPatterns []string) error {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPackageInvalid, err)
	}

	allow, err := compileAllow(allowPatterns)
	if err != nil {
		return err
	}

	var result *multierror.Error

	onDisk := make(map[string]bool)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		onDisk[rel] = true

		if rel == ManifestFile || rel == BOMFile {
			return nil
		}
		if !matchAny(allow, rel) {
			result = multierror.Append(result, fmt.Errorf("file %q is not on the allow list", rel))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk package dir: %w", err)
	}

	for _, entry := range manifest.Files {
		if !onDisk[entry.Path] {
			result = multierror.Append(result, fmt.Errorf("manifest lists %q but the file is missing", entry.Path))
			continue
		}
		got, err := checksumEntry(dir, entry.Path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if got.SHA256 != entry.SHA256 {
			result = multierror.Append(result, fmt.Errorf("checksum mismatch for %q", entry.Path))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrPackageInvalid, err)
	}
	return nil
}

func compileAllow(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid allow pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func copyAllowed(srcRoot, outDir string, allow []glob.Glob) ([]string, error) {
	var copied []string

	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(srcRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(allow, rel) {
			return nil
		}

		dst := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := copyFile(path, dst); err != nil {
			return err
		}
		copied = append(copied, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy allow-listed files: %w", err)
	}

	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func checksumEntry(dir, rel string) (Entry, error) {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to checksum %s: %w", rel, err)
	}

	return Entry{Path: rel, Size: size, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

func writeManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode package manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write package manifest: %w", err)
	}
	return nil
}

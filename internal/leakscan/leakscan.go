// Package leakscan walks a directory tree looking for internal artifacts
// that must never reach a customer package: files whose names match
// forbidden patterns, and text files containing internal markers (corp
// hostnames, credential prefixes). It is the Go form of the grep-based
// leak gate the release pipeline runs before packaging.
package leakscan

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrLeaksFound is returned when the scan finds any violation
	ErrLeaksFound = errors.New("internal leaks found")
)

// Finding kinds.
const (
	KindName    = "forbidden-name"
	KindContent = "forbidden-content"
)

// Finding is one detected leak.
type Finding struct {
	Path    string `json:"path"` // slash-separated, relative to the scan root
	Kind    string `json:"kind"`
	Pattern string `json:"pattern"` // the name glob or content marker that hit
}

// Scanner holds compiled scan rules.
type Scanner struct {
	names   []compiledGlob
	content []string
	exclude []compiledGlob
}

type compiledGlob struct {
	pattern string
	g       glob.Glob
}

// maxContentScanSize caps how much of a file is searched for content
// markers. Binary blobs larger than this are exactly the artifacts the
// name rules cover.
const maxContentScanSize = 4 << 20

// New compiles scanner rules. Name and exclude patterns are globs; content
// markers are literal substrings.
func New(forbiddenNames, forbiddenContent, exclude []string) (*Scanner, error) {
	s := &Scanner{content: forbiddenContent}

	for _, p := range forbiddenNames {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid forbidden name pattern %q: %w", p, err)
		}
		s.names = append(s.names, compiledGlob{pattern: p, g: g})
	}

	for _, p := range exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		s.exclude = append(s.exclude, compiledGlob{pattern: p, g: g})
	}

	return s, nil
}

// Scan walks root and returns every leak finding, sorted by path order of
// the walk. A non-empty result is not itself an error; callers gate with
// Check when they want the error form.
func (s *Scanner) Scan(root string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if s.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		findings = append(findings, s.scanFile(root, rel, d.Name())...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return findings, nil
}

// Check runs Scan and converts any findings into an ErrLeaksFound error
// naming every violation.
func (s *Scanner) Check(root string) error {
	findings, err := s.Scan(root)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}

	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "\n  %s (%s: %s)", f.Path, f.Kind, f.Pattern)
	}
	return fmt.Errorf("%w:%s", ErrLeaksFound, b.String())
}

func (s *Scanner) excluded(rel string) bool {
	for _, e := range s.exclude {
		if e.g.Match(rel) {
			return true
		}
	}
	return false
}

func (s *Scanner) scanFile(root, rel, base string) []Finding {
	var findings []Finding

	for _, n := range s.names {
		if n.g.Match(base) {
			findings = append(findings, Finding{Path: rel, Kind: KindName, Pattern: n.pattern})
			break
		}
	}

	if len(s.content) == 0 {
		return findings
	}

	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxContentScanSize {
		return findings
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return findings
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return findings // binary, name rules only
	}

	for _, marker := range s.content {
		if bytes.Contains(data, []byte(marker)) {
			findings = append(findings, Finding{Path: rel, Kind: KindContent, Pattern: marker})
		}
	}

	return findings
}

// Package version manages the product release version string.
//
// The product versions releases by calendar quarter rather than semver:
// a version is QQYYYY.PP where QQ is the zero-padded quarter (01-04),
// YYYY is the four-digit year, and PP is a two-digit patch number
// starting at 01. Example: 032026.04 is the fourth patch of the
// Q3 2026 release.
package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidVersion is returned when a version string does not match QQYYYY.PP
	ErrInvalidVersion = errors.New("invalid version")

	versionPattern = regexp.MustCompile(`^(0[1-4])(\d{4})\.(\d{2})$`)
)

// Version is a parsed product release version.
type Version struct {
	Quarter int // 1-4
	Year    int
	Patch   int // 1-99
}

// Parse parses a QQYYYY.PP version string.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q (expected QQYYYY.PP, e.g. 032026.01)", ErrInvalidVersion, s)
	}

	quarter, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	if patch < 1 {
		return Version{}, fmt.Errorf("%w: %q (patch must be at least 01)", ErrInvalidVersion, s)
	}

	return Version{Quarter: quarter, Year: year, Patch: patch}, nil
}

// String renders the version in QQYYYY.PP form.
func (v Version) String() string {
	return fmt.Sprintf("%02d%04d.%02d", v.Quarter, v.Year, v.Patch)
}

// BumpQuarter advances to the next quarter and resets the patch to 01.
// Quarter 4 wraps to quarter 1 of the following year.
func (v Version) BumpQuarter() Version {
	next := Version{Quarter: v.Quarter + 1, Year: v.Year, Patch: 1}
	if next.Quarter > 4 {
		next.Quarter = 1
		next.Year++
	}
	return next
}

// BumpPatch increments the patch number within the same quarter.
func (v Version) BumpPatch() (Version, error) {
	if v.Patch >= 99 {
		return Version{}, fmt.Errorf("%w: patch number exhausted for %s (bump quarter instead)", ErrInvalidVersion, v)
	}
	return Version{Quarter: v.Quarter, Year: v.Year, Patch: v.Patch + 1}, nil
}

// Compare returns -1, 0, or 1 ordering v against other chronologically.
func (v Version) Compare(other Version) int {
	a := [3]int{v.Year, v.Quarter, v.Patch}
	b := [3]int{other.Year, other.Quarter, other.Patch}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// ReadFile reads and parses the VERSION file at path.
func ReadFile(path string) (Version, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Version{}, fmt.Errorf("failed to read version file: %w", err)
	}
	v, err := Parse(string(data))
	if err != nil {
		return Version{}, fmt.Errorf("version file %s: %w", path, err)
	}
	return v, nil
}

// WriteFile writes the version to the VERSION file at path, newline terminated.
func WriteFile(path string, v Version) error {
	if err := os.WriteFile(path, []byte(v.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}
	return nil
}

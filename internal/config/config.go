// Package config loads and validates relkit.yaml, the single configuration
// file for the release toolkit. The file names the tracked components, the
// artifact paths, the leak-scanning rules, and the customer-package allow list.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the root relkit configuration.
type Config struct {
	Paths      PathsConfig       `yaml:"paths"`
	Components []ComponentConfig `yaml:"components"`
	Required   []string          `yaml:"required"`
	Leaks      LeaksConfig       `yaml:"leaks"`
	Package    PackageConfig     `yaml:"package"`
	Audit      AuditConfig       `yaml:"audit"`
	Serve      ServeConfig       `yaml:"serve"`
}

// PathsConfig holds locations of the persisted release artifacts.
type PathsConfig struct {
	Registry      string `yaml:"registry"`       // dependency-registry.json
	BOM           string `yaml:"bom"`            // BOM.json
	VersionFile   string `yaml:"version_file"`   // VERSION
	VersionMatrix string `yaml:"version_matrix"` // version-matrix.json
	CompatMatrix  string `yaml:"compat_matrix"`  // compatibility-matrix.json
	ChartDir      string `yaml:"chart_dir"`      // Helm chart root
	PackageDir    string `yaml:"package_dir"`    // customer package staging dir
	ReportDir     string `yaml:"report_dir"`     // exported reports
}

// ComponentConfig names one tracked component and where its manifest lives.
type ComponentConfig struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
	// Manifest selects the manifest kind: "npm", "pip", "gomod", or "auto"
	// (detect by filename). Empty means auto.
	Manifest string `yaml:"manifest"`
	// Image is the expected container image repository for this component,
	// used when generating the BOM. Optional.
	Image string `yaml:"image"`
}

// LeaksConfig holds the internal-leak scanning rules.
type LeaksConfig struct {
	// ForbiddenNames are glob patterns matched against file base names.
	ForbiddenNames []string `yaml:"forbidden_names"`
	// ForbiddenContent are literal markers searched for inside text files.
	ForbiddenContent []string `yaml:"forbidden_content"`
	// Exclude are glob patterns (matched against slash-separated relative
	// paths) that are skipped entirely.
	Exclude []string `yaml:"exclude"`
}

// PackageConfig describes the customer-safe deployment package.
type PackageConfig struct {
	Name string `yaml:"name"`
	// Allow are glob patterns (relative, slash-separated) selecting the
	// files copied into the package. Anything not matched stays internal.
	Allow    []string  `yaml:"allow"`
	Rewrites []Rewrite `yaml:"rewrites"`
}

// Rewrite sets one YAML field in a packaged file to a fixed value.
// Field is a dotted path, e.g. "image.pullPolicy".
type Rewrite struct {
	File  string `yaml:"file"`
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// AuditConfig holds security-audit rules for the dependency registry.
type AuditConfig struct {
	// Denied lists dependencies that must not appear, as "name" or "name@version".
	Denied []string `yaml:"denied"`
}

// ServeConfig holds the report server settings.
type ServeConfig struct {
	Address           string        `yaml:"address"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("%w: at least one component is required", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Components))
	for i, comp := range c.Components {
		if err := comp.Validate(); err != nil {
			return fmt.Errorf("%w: components[%d]: %w", ErrInvalidConfig, i, err)
		}
		if seen[comp.Name] {
			return fmt.Errorf("%w: duplicate component %q", ErrInvalidConfig, comp.Name)
		}
		seen[comp.Name] = true
	}

	for _, name := range c.Required {
		if !seen[name] {
			return fmt.Errorf("%w: required component %q is not declared in components", ErrInvalidConfig, name)
		}
	}

	if err := c.Serve.Validate(); err != nil {
		return fmt.Errorf("%w: serve: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Validate checks one component entry.
func (c *ComponentConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("dir is required for component %q", c.Name)
	}
	switch c.Manifest {
	case "", "auto", "npm", "pip", "gomod":
		// valid kinds
	default:
		return fmt.Errorf("invalid manifest kind %q for component %q (expected: auto, npm, pip, gomod)", c.Manifest, c.Name)
	}
	return nil
}

// Validate checks the serve settings.
func (s *ServeConfig) Validate() error {
	if s.Address == "" {
		return nil // serve disabled unless requested
	}
	if _, _, err := net.SplitHostPort(s.Address); err != nil {
		return fmt.Errorf("address %q must be host:port format: %w", s.Address, err)
	}
	if s.ReadHeaderTimeout < 0 {
		return fmt.Errorf("read_header_timeout must be non-negative, got %v", s.ReadHeaderTimeout)
	}
	return nil
}

// ComponentNames returns the declared component names in order.
func (c *Config) ComponentNames() []string {
	names := make([]string, 0, len(c.Components))
	for _, comp := range c.Components {
		names = append(names, comp.Name)
	}
	return names
}

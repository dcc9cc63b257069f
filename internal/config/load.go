package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name looked up in the working directory.
const DefaultConfigFile = "relkit.yaml"

// Load reads, defaults, env-overrides, and validates a relkit configuration file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in artifact paths that the file leaves unset.
func applyDefaults(cfg *Config) {
	if cfg.Paths.Registry == "" {
		cfg.Paths.Registry = "dependency-registry.json"
	}
	if cfg.Paths.BOM == "" {
		cfg.Paths.BOM = "BOM.json"
	}
	if cfg.Paths.VersionFile == "" {
		cfg.Paths.VersionFile = "VERSION"
	}
	if cfg.Paths.VersionMatrix == "" {
		cfg.Paths.VersionMatrix = "version-matrix.json"
	}
	if cfg.Paths.CompatMatrix == "" {
		cfg.Paths.CompatMatrix = "compatibility-matrix.json"
	}
	if cfg.Paths.PackageDir == "" {
		cfg.Paths.PackageDir = "customer-package"
	}
	if cfg.Paths.ReportDir == "" {
		cfg.Paths.ReportDir = "reports"
	}
	if cfg.Package.Name == "" {
		cfg.Package.Name = "customer-package"
	}
	if cfg.Serve.ReadHeaderTimeout == 0 {
		cfg.Serve.ReadHeaderTimeout = 5 * time.Second
	}
}

package config

import (
	"fmt"
	"os"
	"time"
)

// applyEnvOverrides overrides config values with environment variables if set.
// Returns an error for invalid environment variable values to fail fast.
func applyEnvOverrides(cfg *Config) error {
	// Artifact paths
	if v := os.Getenv("RELKIT_REGISTRY"); v != "" {
		cfg.Paths.Registry = v
	}
	if v := os.Getenv("RELKIT_BOM"); v != "" {
		cfg.Paths.BOM = v
	}
	if v := os.Getenv("RELKIT_VERSION_FILE"); v != "" {
		cfg.Paths.VersionFile = v
	}
	if v := os.Getenv("RELKIT_CHART_DIR"); v != "" {
		cfg.Paths.ChartDir = v
	}
	if v := os.Getenv("RELKIT_PACKAGE_DIR"); v != "" {
		cfg.Paths.PackageDir = v
	}
	if v := os.Getenv("RELKIT_REPORT_DIR"); v != "" {
		cfg.Paths.ReportDir = v
	}

	// Report server
	if v := os.Getenv("RELKIT_SERVE_ADDRESS"); v != "" {
		cfg.Serve.Address = v
	}
	if v := os.Getenv("RELKIT_SERVE_READ_HEADER_TIMEOUT"); v != "" {
		t, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RELKIT_SERVE_READ_HEADER_TIMEOUT %q: %w", v, err)
		}
		cfg.Serve.ReadHeaderTimeout = t
	}

	return nil
}

package main

import (
	"flag"
	"path/filepath"

	"github.com/policyforge/relkit/internal/config"
)

// runContext carries the loaded configuration and the repo root every
// subcommand operates against.
type runContext struct {
	cfg  *config.Config
	root string
}

// addCommonFlags registers the flags shared by every subcommand.
func addCommonFlags(fs *flag.FlagSet) (configPath, root *string) {
	configPath = fs.String("config", config.DefaultConfigFile, "Path to relkit configuration file")
	root = fs.String("root", ".", "Repository root the configured paths are relative to")
	return configPath, root
}

// newRunContext loads configuration for a parsed flag set.
func newRunContext(configPath, root string) (*runContext, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &runContext{cfg: cfg, root: root}, nil
}

// path resolves a configured artifact path against the repo root.
func (rc *runContext) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rc.root, p)
}

func (rc *runContext) registryPath() string      { return rc.path(rc.cfg.Paths.Registry) }
func (rc *runContext) bomPath() string           { return rc.path(rc.cfg.Paths.BOM) }
func (rc *runContext) versionFilePath() string   { return rc.path(rc.cfg.Paths.VersionFile) }
func (rc *runContext) versionMatrixPath() string { return rc.path(rc.cfg.Paths.VersionMatrix) }
func (rc *runContext) compatMatrixPath() string  { return rc.path(rc.cfg.Paths.CompatMatrix) }
func (rc *runContext) chartDirPath() string      { return rc.path(rc.cfg.Paths.ChartDir) }
func (rc *runContext) packageDirPath() string    { return rc.path(rc.cfg.Paths.PackageDir) }
func (rc *runContext) reportDirPath() string     { return rc.path(rc.cfg.Paths.ReportDir) }

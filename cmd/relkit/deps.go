package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/policyforge/relkit/internal/compat"
	"github.com/policyforge/relkit/internal/registry"
	relver "github.com/policyforge/relkit/internal/version"
	"github.com/policyforge/relkit/internal/watch"
)

func depsCommand(args []string) error {
	if len(args) < 1 {
		printDepsUsage()
		return fmt.Errorf("no subcommand specified")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "scan":
		return depsScan(subArgs)
	case "validate":
		return depsValidate(subArgs)
	case "check-compatibility":
		return depsCheckCompatibility(subArgs)
	case "audit-security":
		return depsAuditSecurity(subArgs)
	case "lock":
		return depsLock(subArgs)
	case "export-report":
		return depsExportReport(subArgs)
	case "help", "-h", "--help":
		printDepsUsage()
		return nil
	default:
		printDepsUsage()
		return fmt.Errorf("unknown deps subcommand: %s", subcommand)
	}
}

func printDepsUsage() {
	fmt.Fprintf(os.Stderr, `Track and audit component dependencies

USAGE:
    relkit deps <subcommand> [flags]

SUBCOMMANDS:
    scan                  Scan component manifests into dependency-registry.json
    validate              Check registry consistency
    check-compatibility   Evaluate compatibility-matrix.json against the registry
    audit-security        Flag floating and deny-listed dependencies
    lock                  Pin every dependency to its resolved version
    export-report         Write a dependency report for CI consumption

FLAGS:
    --config string   Path to relkit configuration file (default "relkit.yaml")
    --root string     Repository root (default ".")

EXAMPLES:
    relkit deps scan
    relkit deps scan --watch
    relkit deps audit-security
    relkit deps lock
`)
}

func depsScan(args []string) error {
	fs := (&Command{Name: "deps scan"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	watchMode := fs.Bool("watch", false, "Rescan when component manifests change")
	fs.Usage = printDepsUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	if err := scanOnce(rc); err != nil {
		return err
	}

	if !*watchMode {
		return nil
	}
	return watchManifests(rc)
}

func scanOnce(rc *runContext) error {
	reg, err := registry.Scan(rc.root, rc.cfg.Components)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if err := reg.Save(rc.registryPath()); err != nil {
		return err
	}

	fmt.Printf("✓ Scanned %d components (%d dependencies) into %s\n",
		len(reg.Components), reg.DependencyCount(), rc.cfg.Paths.Registry)
	return nil
}

func watchManifests(rc *runContext) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dirs := make([]string, 0, len(rc.cfg.Components))
	for _, comp := range rc.cfg.Components {
		dirs = append(dirs, filepath.Join(rc.root, comp.Dir))
	}

	w, err := watch.New(dirs, watch.DefaultDebounce, logger, func() error {
		return scanOnce(rc)
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching component manifests (Ctrl-C to stop)...")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func depsValidate(args []string) error {
	fs := (&Command{Name: "deps validate"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printDepsUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	reg, err := registry.Load(rc.registryPath())
	if err != nil {
		return err
	}

	if err := registry.Validate(reg, rc.cfg.Required); err != nil {
		return err
	}

	fmt.Printf("✓ Registry is consistent (%d components, %d dependencies)\n",
		len(reg.Components), reg.DependencyCount())
	return nil
}

func depsCheckCompatibility(args []string) error {
	fs := (&Command{Name: "deps check-compatibility"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printDepsUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	matrix, err := compat.LoadMatrix(rc.compatMatrixPath())
	if err != nil {
		return err
	}
	reg, err := registry.Load(rc.registryPath())
	if err != nil {
		return err
	}

	if err := compat.Check(matrix, reg); err != nil {
		return err
	}

	fmt.Printf("✓ All %d compatibility rules satisfied\n", len(matrix.Rules))
	return nil
}

func depsAuditSecurity(args []string) error {
	fs := (&Command{Name: "deps audit-security"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printDepsUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	reg, err := registry.Load(rc.registryPath())
	if err != nil {
		return err
	}

	findings := registry.Audit(reg, rc.cfg.Audit.Denied)
	if len(findings) == 0 {
		fmt.Println("✓ No audit findings")
		return nil
	}

	table := NewTableWriter([]string{"Component", "Dependency", "Severity", "Finding"})
	for _, f := range findings {
		table.AddRow([]string{f.Component, f.Dependency, f.Severity, f.Message})
	}
	table.Print()

	if errs := registry.Errors(findings); len(errs) > 0 {
		return fmt.Errorf("security audit failed with %d error(s)", len(errs))
	}
	fmt.Printf("⚠ %d warning(s), no errors\n", len(findings))
	return nil
}

func depsLock(args []string) error {
	fs := (&Command{Name: "deps lock"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printDepsUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	reg, err := registry.Load(rc.registryPath())
	if err != nil {
		return err
	}

	if err := registry.Lock(reg); err != nil {
		return err
	}
	if err := reg.Save(rc.registryPath()); err != nil {
		return err
	}

	fmt.Printf("✓ Locked %d dependencies at %s\n", reg.DependencyCount(), reg.LockedAt.Format(time.RFC3339))
	return nil
}

func depsExportReport(args []string) error {
	fs := (&Command{Name: "deps export-report"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	out := fs.String("out", "", "Report path (default <report_dir>/dependency-report.json)")
	fs.Usage = printDepsUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	reg, err := registry.Load(rc.registryPath())
	if err != nil {
		return err
	}

	release := ""
	if v, err := relver.ReadFile(rc.versionFilePath()); err == nil {
		release = v.String()
	}

	findings := registry.Audit(reg, rc.cfg.Audit.Denied)
	rep := registry.BuildReport(reg, findings, release)

	path := *out
	if path == "" {
		if err := os.MkdirAll(rc.reportDirPath(), 0o755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
		path = filepath.Join(rc.reportDirPath(), "dependency-report.json")
	}

	if err := registry.WriteReport(rep, path); err != nil {
		return err
	}

	fmt.Printf("✓ Report %s written to %s (%d findings)\n", rep.ID, path, len(rep.Findings))
	return nil
}

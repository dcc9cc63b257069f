package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/policyforge/relkit/internal/pkgbuild"
	relver "github.com/policyforge/relkit/internal/version"
)

func packageCommand(args []string) error {
	if len(args) < 1 {
		printPackageUsage()
		return fmt.Errorf("no subcommand specified")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "create":
		return packageCreate(subArgs)
	case "help", "-h", "--help":
		printPackageUsage()
		return nil
	default:
		printPackageUsage()
		return fmt.Errorf("unknown package subcommand: %s", subcommand)
	}
}

func printPackageUsage() {
	fmt.Fprintf(os.Stderr, `Assemble the customer deployment package

USAGE:
    relkit package create [flags]

FLAGS:
    --config string   Path to relkit configuration file (default "relkit.yaml")
    --root string     Repository root (default ".")
    --skip-tar        Assemble the package directory without archiving it

EXAMPLES:
    relkit package create
    relkit package create --skip-tar
`)
}

func packageCreate(args []string) error {
	fs := (&Command{Name: "package create"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	skipTar := fs.Bool("skip-tar", false, "Assemble the package directory without archiving it")
	fs.Usage = printPackageUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	return buildPackage(rc, *skipTar)
}

// buildPackage assembles, verifies, and optionally archives the customer
// package. Shared with the integrated pipeline.
func buildPackage(rc *runContext, skipTar bool) error {
	rel, err := relver.ReadFile(rc.versionFilePath())
	if err != nil {
		return err
	}

	outDir := rc.packageDirPath()
	manifest, err := pkgbuild.Build(rc.root, outDir, rc.cfg.Package, rel.String(), rc.bomPath())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Package %s assembled at %s (%d files)\n", manifest.Name, outDir, len(manifest.Files))

	// The package must pass its own checks before it is handed out
	if err := pkgbuild.Verify(outDir, rc.cfg.Package.Allow); err != nil {
		return err
	}

	scanner, err := newLeakScanner(rc)
	if err != nil {
		return err
	}
	if err := scanner.Check(outDir); err != nil {
		return err
	}
	fmt.Println("✓ Package contents verified, no internal leaks")

	if skipTar {
		return nil
	}

	tarName := fmt.Sprintf("%s-%s.tar.gz", rc.cfg.Package.Name, rel)
	tarPath := filepath.Join(filepath.Dir(outDir), tarName)
	if err := pkgbuild.Archive(outDir, tarPath, rc.cfg.Package.Name); err != nil {
		return err
	}

	fmt.Printf("✓ Archive written: %s\n", tarPath)
	return nil
}

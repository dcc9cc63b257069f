package main

import (
	"fmt"
	"os"

	"github.com/policyforge/relkit/internal/bom"
	relver "github.com/policyforge/relkit/internal/version"
)

func versionCommand(args []string) error {
	if len(args) < 1 {
		printVersionUsage()
		return fmt.Errorf("no subcommand specified")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "current":
		return versionCurrent(subArgs)
	case "set":
		return versionSet(subArgs)
	case "bump":
		return versionBump(subArgs)
	case "update":
		return versionMatrixUpdate(subArgs)
	case "release":
		return versionRelease(subArgs)
	case "help", "-h", "--help":
		printVersionUsage()
		return nil
	default:
		printVersionUsage()
		return fmt.Errorf("unknown version subcommand: %s", subcommand)
	}
}

func printVersionUsage() {
	fmt.Fprintf(os.Stderr, `Manage the VERSION file and the version matrix

A release version is QQYYYY.PP: zero-padded quarter, four-digit year,
two-digit patch. Example: 032026.01 is the first cut of Q3 2026.

USAGE:
    relkit version <subcommand> [flags]

SUBCOMMANDS:
    current             Print the current release version
    set <version>       Overwrite the VERSION file
    bump quarter|patch  Advance the version (quarter bumps reset the patch)
    update              Record the current BOM's component versions in the matrix
    release             Bump the patch, refresh the BOM, and update the matrix

FLAGS:
    --config string   Path to relkit configuration file (default "relkit.yaml")
    --root string     Repository root (default ".")

EXAMPLES:
    relkit version current
    relkit version set 032026.01
    relkit version bump patch
    relkit version release
`)
}

func versionCurrent(args []string) error {
	fs := (&Command{Name: "version current"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printVersionUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	v, err := relver.ReadFile(rc.versionFilePath())
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func versionSet(args []string) error {
	fs := (&Command{Name: "version set"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printVersionUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: relkit version set <version>")
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	v, err := relver.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := relver.WriteFile(rc.versionFilePath(), v); err != nil {
		return err
	}

	fmt.Printf("✓ Version set to %s\n", v)
	return nil
}

func versionBump(args []string) error {
	fs := (&Command{Name: "version bump"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printVersionUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: relkit version bump quarter|patch")
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	current, err := relver.ReadFile(rc.versionFilePath())
	if err != nil {
		return err
	}

	var next relver.Version
	switch fs.Arg(0) {
	case "quarter":
		next = current.BumpQuarter()
	case "patch":
		next, err = current.BumpPatch()
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown bump kind %q (expected quarter or patch)", fs.Arg(0))
	}

	if err := relver.WriteFile(rc.versionFilePath(), next); err != nil {
		return err
	}

	fmt.Printf("✓ Version bumped: %s → %s\n", current, next)
	return nil
}

func versionMatrixUpdate(args []string) error {
	fs := (&Command{Name: "version update"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printVersionUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	if err := recordVersionMatrix(rc); err != nil {
		return err
	}
	fmt.Printf("✓ Version matrix updated: %s\n", rc.cfg.Paths.VersionMatrix)
	return nil
}

// recordVersionMatrix copies the current BOM's component versions into the
// version matrix under the BOM's release.
func recordVersionMatrix(rc *runContext) error {
	doc, err := bom.Load(rc.bomPath())
	if err != nil {
		return err
	}
	rel, err := relver.Parse(doc.Release)
	if err != nil {
		return err
	}

	matrix, err := relver.LoadMatrix(rc.versionMatrixPath())
	if err != nil {
		return err
	}

	components := make(map[string]string, len(doc.Components))
	for name, entry := range doc.Components {
		components[name] = entry.Version
	}

	matrix.Record(rel, components)
	return matrix.Save(rc.versionMatrixPath())
}

func versionRelease(args []string) error {
	fs := (&Command{Name: "version release"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printVersionUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	current, err := relver.ReadFile(rc.versionFilePath())
	if err != nil {
		return err
	}
	next, err := current.BumpPatch()
	if err != nil {
		return err
	}
	if err := relver.WriteFile(rc.versionFilePath(), next); err != nil {
		return err
	}
	fmt.Printf("✓ Version bumped: %s → %s\n", current, next)

	doc, err := refreshBOM(rc)
	if err != nil {
		return err
	}
	fmt.Printf("✓ BOM refreshed for release %s\n", doc.Release)

	if err := recordVersionMatrix(rc); err != nil {
		return err
	}
	fmt.Printf("✓ Version matrix updated: %s\n", rc.cfg.Paths.VersionMatrix)
	return nil
}

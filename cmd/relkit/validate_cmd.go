package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/policyforge/relkit/internal/bom"
	"github.com/policyforge/relkit/internal/helmcheck"
	"github.com/policyforge/relkit/internal/leakscan"
	"github.com/policyforge/relkit/internal/pkgbuild"
)

func validateCommand(args []string) error {
	if len(args) < 1 {
		printValidateUsage()
		return fmt.Errorf("no subcommand specified")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "helm-chart":
		return validateHelmChart(subArgs)
	case "internal-leaks":
		return validateInternalLeaks(subArgs)
	case "pre-deployment":
		return validatePreDeployment(subArgs)
	case "customer-package":
		return validateCustomerPackage(subArgs)
	case "help", "-h", "--help":
		printValidateUsage()
		return nil
	default:
		printValidateUsage()
		return fmt.Errorf("unknown validate subcommand: %s", subcommand)
	}
}

func printValidateUsage() {
	fmt.Fprintf(os.Stderr, `Release gates: Helm chart, leak scan, pre-deployment, package

USAGE:
    relkit validate <subcommand> [flags]

SUBCOMMANDS:
    helm-chart         Lint and render the Helm chart; reject floating image tags
    internal-leaks     Scan a directory tree for internal artifacts
    pre-deployment     Composite gate: BOM + chart + leaks + approval
    customer-package   Verify an assembled customer package directory

FLAGS:
    --config string   Path to relkit configuration file (default "relkit.yaml")
    --root string     Repository root (default ".")

EXAMPLES:
    relkit validate helm-chart
    relkit validate helm-chart --strict
    relkit validate internal-leaks --dir customer-package
    relkit validate pre-deployment
    relkit validate customer-package
`)
}

func validateHelmChart(args []string) error {
	fs := (&Command{Name: "validate helm-chart"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	strict := fs.Bool("strict", false, "Escalate lint warnings to failures")
	checkRelease := fs.Bool("check-release", true, "Require chart appVersion to match the BOM release")
	fs.Usage = printValidateUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}
	if rc.cfg.Paths.ChartDir == "" {
		return fmt.Errorf("paths.chart_dir is not configured")
	}

	opts := helmcheck.Options{Strict: *strict}
	if *checkRelease {
		if doc, err := bom.Load(rc.bomPath()); err == nil {
			opts.Release = doc.Release
		}
	}

	res, err := helmcheck.Validate(rc.chartDirPath(), opts)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Chart %s %s is valid (appVersion %s, %d images checked)\n",
		res.ChartName, res.ChartVersion, res.AppVersion, len(res.Images))
	for _, msg := range res.LintMessages {
		fmt.Printf("  lint: %s\n", msg)
	}
	return nil
}

func validateInternalLeaks(args []string) error {
	fs := (&Command{Name: "validate internal-leaks"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	dir := fs.String("dir", "", "Directory to scan (default: the repository root)")
	fs.Usage = printValidateUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	scanner, err := newLeakScanner(rc)
	if err != nil {
		return err
	}

	target := rc.root
	if *dir != "" {
		target = rc.path(*dir)
	}

	if err := scanner.Check(target); err != nil {
		return err
	}

	fmt.Printf("✓ No internal leaks under %s\n", target)
	return nil
}

func newLeakScanner(rc *runContext) (*leakscan.Scanner, error) {
	return leakscan.New(rc.cfg.Leaks.ForbiddenNames, rc.cfg.Leaks.ForbiddenContent, rc.cfg.Leaks.Exclude)
}

func validatePreDeployment(args []string) error {
	fs := (&Command{Name: "validate pre-deployment"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	strict := fs.Bool("strict", false, "Escalate chart lint warnings to failures")
	fs.Usage = printValidateUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	if err := preDeploymentCheck(rc, *strict); err != nil {
		return err
	}
	fmt.Println("✓ Pre-deployment checks passed")
	return nil
}

// preDeploymentCheck is the composite release gate, shared with the
// integrated pipeline. Every failing gate is reported, not just the first.
func preDeploymentCheck(rc *runContext, strict bool) error {
	var result *multierror.Error

	doc, err := bom.Load(rc.bomPath())
	if err != nil {
		result = multierror.Append(result, err)
	} else {
		if err := bom.Validate(doc, rc.cfg.Required); err != nil {
			result = multierror.Append(result, err)
		}
		if !doc.Approved() {
			result = multierror.Append(result, fmt.Errorf(
				"release %s is not approved for deployment (approval: %s, ready: %s)",
				doc.Release, doc.ApprovalStatus, doc.DeploymentReady))
		}
	}

	if rc.cfg.Paths.ChartDir != "" {
		opts := helmcheck.Options{Strict: strict}
		if doc != nil {
			opts.Release = doc.Release
		}
		if _, err := helmcheck.Validate(rc.chartDirPath(), opts); err != nil {
			result = multierror.Append(result, err)
		}
	}

	scanner, err := newLeakScanner(rc)
	if err != nil {
		result = multierror.Append(result, err)
	} else if err := scanner.Check(rc.root); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func validateCustomerPackage(args []string) error {
	fs := (&Command{Name: "validate customer-package"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	dir := fs.String("dir", "", "Package directory (default: the configured package_dir)")
	fs.Usage = printValidateUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	target := rc.packageDirPath()
	if *dir != "" {
		target = rc.path(*dir)
	}

	var result *multierror.Error

	if err := pkgbuild.Verify(target, rc.cfg.Package.Allow); err != nil {
		result = multierror.Append(result, err)
	}

	scanner, err := newLeakScanner(rc)
	if err != nil {
		result = multierror.Append(result, err)
	} else if err := scanner.Check(target); err != nil {
		result = multierror.Append(result, err)
	}

	doc, err := bom.Load(filepath.Join(target, pkgbuild.BOMFile))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("package has no readable BOM: %w", err))
	} else {
		if err := bom.Validate(doc, rc.cfg.Required); err != nil {
			result = multierror.Append(result, err)
		}
		if !doc.Approved() {
			result = multierror.Append(result, fmt.Errorf("packaged BOM is not approved for deployment"))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	fmt.Printf("✓ Customer package at %s is valid\n", target)
	return nil
}

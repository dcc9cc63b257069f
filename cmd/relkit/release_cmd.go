package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/policyforge/relkit/internal/release"
	relver "github.com/policyforge/relkit/internal/version"
)

func releaseCommand(args []string) error {
	if len(args) < 1 {
		printReleaseUsage()
		return fmt.Errorf("no subcommand specified")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "run":
		return releaseRun(subArgs)
	case "help", "-h", "--help":
		printReleaseUsage()
		return nil
	default:
		printReleaseUsage()
		return fmt.Errorf("unknown release subcommand: %s", subcommand)
	}
}

func printReleaseUsage() {
	fmt.Fprintf(os.Stderr, `Run the integrated release pipeline

Stages run in order: deps-scan, bom-update, pre-deployment, package.
The first failing stage aborts the run; every run writes a release
report (release-report.json) recording each stage's outcome.

USAGE:
    relkit release run [flags]

FLAGS:
    --config string   Path to relkit configuration file (default "relkit.yaml")
    --root string     Repository root (default ".")
    --skip-tar        Leave the customer package unarchived
    --strict          Escalate chart lint warnings to failures

EXAMPLES:
    relkit release run
    relkit release run --strict
`)
}

func releaseRun(args []string) error {
	fs := (&Command{Name: "release run"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	skipTar := fs.Bool("skip-tar", false, "Leave the customer package unarchived")
	strict := fs.Bool("strict", false, "Escalate chart lint warnings to failures")
	fs.Usage = printReleaseUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	rel, err := relver.ReadFile(rc.versionFilePath())
	if err != nil {
		return err
	}

	fmt.Printf("Running release pipeline for %s\n", rel)

	stages := []release.Stage{
		{Name: "deps-scan", Run: func() error { return scanOnce(rc) }},
		{Name: "bom-update", Run: func() error {
			_, err := refreshBOM(rc)
			return err
		}},
		{Name: "pre-deployment", Run: func() error { return preDeploymentCheck(rc, *strict) }},
		{Name: "package", Run: func() error { return buildPackage(rc, *skipTar) }},
	}

	report, runErr := release.Run(rel.String(), stages)

	reportDir := rc.reportDirPath()
	if err := os.MkdirAll(reportDir, 0o750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	reportPath := filepath.Join(reportDir, "release-report.json")
	if err := release.WriteReport(report, reportPath); err != nil {
		return err
	}

	table := NewTableWriter([]string{"STAGE", "STATUS", "DURATION"})
	for _, stage := range report.Stages {
		table.AddRow([]string{stage.Name, stage.Status, stage.Duration.Round(time.Millisecond).String()})
	}
	table.Print()
	fmt.Printf("Report: %s\n", reportPath)

	if runErr != nil {
		return runErr
	}
	fmt.Printf("✓ Release %s pipeline completed\n", rel)
	return nil
}

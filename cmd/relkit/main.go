package main

import (
	"fmt"
	"os"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	versionInfo := VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	registry := NewCommandRegistry(versionInfo)
	registerCommands(registry)

	if err := registry.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func registerCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "deps",
		Description: "Track and audit component dependencies",
		Usage:       "relkit deps <subcommand> [flags]",
		Examples: []string{
			"relkit deps scan",
			"relkit deps scan --watch",
			"relkit deps validate",
			"relkit deps check-compatibility",
			"relkit deps audit-security",
			"relkit deps lock",
			"relkit deps export-report",
		},
		Run: depsCommand,
	})

	r.Register(&Command{
		Name:        "bom",
		Description: "Maintain the release bill of materials (BOM.json)",
		Usage:       "relkit bom <subcommand> [flags]",
		Examples: []string{
			"relkit bom update",
			"relkit bom validate",
			"relkit bom set --component pdp --digest sha256:...",
			"relkit bom show",
		},
		Run: bomCommand,
	})

	r.Register(&Command{
		Name:        "validate",
		Description: "Release gates: Helm chart, leak scan, pre-deployment, package",
		Usage:       "relkit validate <subcommand> [flags]",
		Examples: []string{
			"relkit validate helm-chart",
			"relkit validate internal-leaks --dir .",
			"relkit validate pre-deployment",
			"relkit validate customer-package",
		},
		Run: validateCommand,
	})

	r.Register(&Command{
		Name:        "version",
		Description: "Manage the VERSION file (QQYYYY.PP)",
		Usage:       "relkit version <subcommand> [flags]",
		Examples: []string{
			"relkit version current",
			"relkit version set 032026.01",
			"relkit version bump quarter",
			"relkit version bump patch",
			"relkit version update",
			"relkit version release",
		},
		Run: versionCommand,
	})

	r.Register(&Command{
		Name:        "package",
		Description: "Assemble the customer-safe deployment package",
		Usage:       "relkit package <subcommand> [flags]",
		Examples: []string{
			"relkit package create",
			"relkit package create --skip-tar",
		},
		Run: packageCommand,
	})

	r.Register(&Command{
		Name:        "release",
		Description: "Run the integrated release pipeline",
		Usage:       "relkit release run [flags]",
		Examples: []string{
			"relkit release run",
		},
		Run: releaseCommand,
	})

	r.Register(&Command{
		Name:        "serve",
		Description: "Serve release artifacts over HTTP for CI dashboards",
		Usage:       "relkit serve [flags]",
		Examples: []string{
			"relkit serve --address :9090",
		},
		Run: serveCommand,
	})
}

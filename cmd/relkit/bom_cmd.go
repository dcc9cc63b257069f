package main

import (
	"fmt"
	"os"

	"github.com/policyforge/relkit/internal/bom"
	"github.com/policyforge/relkit/internal/registry"
	relver "github.com/policyforge/relkit/internal/version"
)

func bomCommand(args []string) error {
	if len(args) < 1 {
		printBOMUsage()
		return fmt.Errorf("no subcommand specified")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "update":
		return bomUpdate(subArgs)
	case "validate":
		return bomValidate(subArgs)
	case "set":
		return bomSet(subArgs)
	case "approve":
		return bomApprove(subArgs)
	case "show":
		return bomShow(subArgs)
	case "help", "-h", "--help":
		printBOMUsage()
		return nil
	default:
		printBOMUsage()
		return fmt.Errorf("unknown bom subcommand: %s", subcommand)
	}
}

func printBOMUsage() {
	fmt.Fprintf(os.Stderr, `Maintain the release bill of materials (BOM.json)

USAGE:
    relkit bom <subcommand> [flags]

SUBCOMMANDS:
    update      Create or refresh the BOM from the registry and VERSION
    validate    Enforce BOM invariants (tags, digests, required set, flags)
    set         Override one component's version, image, or digest
    approve     Mark the release approved and deployment ready
    show        Print the BOM as a table

EXAMPLES:
    relkit bom update
    relkit bom validate
    relkit bom set --component pdp --digest sha256:abc...
    relkit bom approve --offline-compatible
    relkit bom show
`)
}

func bomUpdate(args []string) error {
	fs := (&Command{Name: "bom update"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printBOMUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	doc, err := refreshBOM(rc)
	if err != nil {
		return err
	}

	fmt.Printf("✓ BOM updated for release %s (%d components)\n", doc.Release, len(doc.Components))
	return nil
}

// refreshBOM regenerates the BOM from the dependency registry and the
// VERSION file, carrying digests and approval flags from the previous BOM.
func refreshBOM(rc *runContext) (*bom.Document, error) {
	reg, err := registry.Load(rc.registryPath())
	if err != nil {
		return nil, err
	}
	rel, err := relver.ReadFile(rc.versionFilePath())
	if err != nil {
		return nil, err
	}

	prev, err := bom.Load(rc.bomPath())
	if err != nil {
		prev = nil
	}

	doc, err := bom.Update(rc.cfg, reg, rel, prev)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(rc.bomPath()); err != nil {
		return nil, err
	}
	return doc, nil
}

func bomValidate(args []string) error {
	fs := (&Command{Name: "bom validate"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printBOMUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	doc, err := bom.Load(rc.bomPath())
	if err != nil {
		return err
	}

	if err := bom.Validate(doc, rc.cfg.Required); err != nil {
		return err
	}

	fmt.Printf("✓ BOM is valid for release %s\n", doc.Release)
	return nil
}

func bomSet(args []string) error {
	fs := (&Command{Name: "bom set"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	component := fs.String("component", "", "Component name (required)")
	ver := fs.String("version", "", "Component version")
	image := fs.String("image", "", "Container image reference")
	dig := fs.String("digest", "", "Image digest (sha256:...)")
	fs.Usage = printBOMUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *component == "" {
		fs.Usage()
		return fmt.Errorf("--component is required")
	}
	if *ver == "" && *image == "" && *dig == "" {
		return fmt.Errorf("nothing to set (use --version, --image, or --digest)")
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	doc, err := bom.Load(rc.bomPath())
	if err != nil {
		return err
	}

	if err := doc.SetComponent(*component, *ver, *image, *dig); err != nil {
		return err
	}
	if err := doc.Save(rc.bomPath()); err != nil {
		return err
	}

	fmt.Printf("✓ Updated %s in BOM\n", *component)
	return nil
}

func bomApprove(args []string) error {
	fs := (&Command{Name: "bom approve"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	offline := fs.Bool("offline-compatible", false, "Mark the release offline compatible")
	fs.Usage = printBOMUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	doc, err := bom.Load(rc.bomPath())
	if err != nil {
		return err
	}

	doc.ApprovalStatus = bom.StatusApproved
	doc.DeploymentReady = "true"
	if *offline {
		doc.OfflineCompatible = "true"
	}

	// An approval must never be recorded for a BOM that fails its invariants
	if err := bom.Validate(doc, rc.cfg.Required); err != nil {
		return err
	}
	if err := doc.Save(rc.bomPath()); err != nil {
		return err
	}

	fmt.Printf("✓ Release %s approved and marked deployment ready\n", doc.Release)
	return nil
}

func bomShow(args []string) error {
	fs := (&Command{Name: "bom show"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	fs.Usage = printBOMUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	doc, err := bom.Load(rc.bomPath())
	if err != nil {
		return err
	}

	fmt.Printf("Release %s (approval: %s, deployment ready: %s, offline: %s)\n\n",
		doc.Release, doc.ApprovalStatus, doc.DeploymentReady, doc.OfflineCompatible)

	table := NewTableWriter([]string{"Component", "Version", "Image", "Digest"})
	for _, name := range doc.ComponentNames() {
		entry := doc.Components[name]
		dig := entry.Digest
		if dig == "" {
			dig = "-"
		} else if len(dig) > 19 {
			dig = dig[:19] + "..."
		}
		table.AddRow([]string{name, entry.Version, entry.Image, dig})
	}
	table.Print()
	return nil
}

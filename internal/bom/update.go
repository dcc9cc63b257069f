package bom

import (
	"fmt"
	"time"

	"github.com/policyforge/relkit/internal/config"
	"github.com/policyforge/relkit/internal/registry"
	"github.com/policyforge/relkit/internal/version"
)

// Update builds a fresh BOM for the release from the configured components
// and the scanned registry. When prev is non-nil, digests and approval flags
// carry over for components that are unchanged between releases; the
// approval status always resets to pending when the release version moved.
func Update(cfg *config.Config, reg *registry.Registry, rel version.Version, prev *Document) (*Document, error) {
	doc := &Document{
		Release:           rel.String(),
		Generated:         time.Now().UTC(),
		ApprovalStatus:    StatusPending,
		OfflineCompatible: "false",
		DeploymentReady:   "false",
		Components:        make(map[string]Entry, len(cfg.Components)),
	}

	if prev != nil {
		doc.OfflineCompatible = prev.OfflineCompatible
		if prev.Release == doc.Release {
			doc.ApprovalStatus = prev.ApprovalStatus
			doc.DeploymentReady = prev.DeploymentReady
		}
	}

	for _, comp := range cfg.Components {
		scanned, ok := reg.Components[comp.Name]
		if !ok {
			return nil, fmt.Errorf("%w: component %q has not been scanned (run deps scan first)", ErrInvalidBOM, comp.Name)
		}

		entry := Entry{
			Version:    rel.String(),
			Properties: []string{"manifest:" + scanned.Manifest},
		}
		if comp.Image != "" {
			entry.Image = fmt.Sprintf("%s:%s", comp.Image, rel)
		}

		if prev != nil {
			if old, ok := prev.Components[comp.Name]; ok && old.Image == entry.Image {
				entry.Digest = old.Digest
			}
		}

		doc.Components[comp.Name] = entry
	}

	return doc, nil
}

// SetComponent overrides a single component's version, image, or digest.
// Empty arguments leave the corresponding field untouched.
func (d *Document) SetComponent(name, ver, image, dig string) error {
	entry, ok := d.Components[name]
	if !ok {
		return fmt.Errorf("%w: unknown component %q", ErrInvalidBOM, name)
	}
	if ver != "" {
		entry.Version = ver
	}
	if image != "" {
		entry.Image = image
		entry.Digest = "" // a new image invalidates the recorded digest
	}
	if dig != "" {
		entry.Digest = dig
	}
	d.Components[name] = entry
	return nil
}

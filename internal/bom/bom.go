// Package bom maintains BOM.json, the bill of materials for a release:
// every shipped component with its version, container image, and image
// digest, plus the release-level approval flags the deployment validator
// and the customer packager gate on.
//
// The approval flags are strings ("true", "approved") rather than booleans
// for compatibility with the jq-driven tooling that consumes the document.
package bom

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

var (
	// ErrInvalidBOM is returned when BOM validation fails
	ErrInvalidBOM = errors.New("invalid BOM")
)

// Approval status values.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Document is the persisted BOM.
type Document struct {
	Release   string    `json:"release"`
	Generated time.Time `json:"generated"`

	ApprovalStatus    string `json:"approvalStatus"`
	OfflineCompatible string `json:"offlineCompatible"`
	DeploymentReady   string `json:"deploymentReady"`

	Components map[string]Entry `json:"components"`
}

// Entry is one component in the BOM.
type Entry struct {
	Version    string   `json:"version"`
	Image      string   `json:"image"`
	Digest     string   `json:"digest,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

// Load reads a BOM document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse BOM: %w", err)
	}
	if doc.Components == nil {
		doc.Components = make(map[string]Entry)
	}
	return &doc, nil
}

// Save writes the BOM document to path as indented JSON.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode BOM: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	return nil
}

// ComponentNames returns the BOM's component names, sorted.
func (d *Document) ComponentNames() []string {
	names := make([]string, 0, len(d.Components))
	for name := range d.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Approved reports whether the release has been signed off for deployment.
func (d *Document) Approved() bool {
	return d.ApprovalStatus == StatusApproved && d.DeploymentReady == "true"
}

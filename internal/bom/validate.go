package bom

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/opencontainers/go-digest"

	"github.com/policyforge/relkit/internal/version"
)

// Validate enforces the BOM invariants for a release:
//
//   - the release version parses as QQYYYY.PP
//   - every required component is present
//   - every component carries an image with an explicit tag that is not "latest"
//   - recorded digests parse as OCI digests
//   - component versions are semver or the product QQYYYY.PP form
//   - deploymentReady may only be "true" when approvalStatus is "approved"
//
// All violations are collected before failing so a release engineer sees the
// full list at once.
func Validate(doc *Document, required []string) error {
	var result *multierror.Error

	if _, err := version.Parse(doc.Release); err != nil {
		result = multierror.Append(result, fmt.Errorf("release: %w", err))
	}

	result = validateFlags(result, doc)

	for _, name := range required {
		if _, ok := doc.Components[name]; !ok {
			result = multierror.Append(result, fmt.Errorf("required component %q is missing", name))
		}
	}

	for _, name := range doc.ComponentNames() {
		entry := doc.Components[name]
		result = validateEntry(result, name, entry)
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBOM, err)
	}
	return nil
}

func validateFlags(result *multierror.Error, doc *Document) *multierror.Error {
	switch doc.ApprovalStatus {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		result = multierror.Append(result, fmt.Errorf(
			"approvalStatus %q (expected: pending, approved, rejected)", doc.ApprovalStatus))
	}

	for field, value := range map[string]string{
		"offlineCompatible": doc.OfflineCompatible,
		"deploymentReady":   doc.DeploymentReady,
	} {
		if value != "true" && value != "false" {
			result = multierror.Append(result, fmt.Errorf("%s %q (expected: \"true\" or \"false\")", field, value))
		}
	}

	if doc.DeploymentReady == "true" && doc.ApprovalStatus != StatusApproved {
		result = multierror.Append(result, fmt.Errorf(
			"deploymentReady is \"true\" but approvalStatus is %q", doc.ApprovalStatus))
	}

	return result
}

func validateEntry(result *multierror.Error, name string, entry Entry) *multierror.Error {
	if entry.Image == "" {
		result = multierror.Append(result, fmt.Errorf("%s: image is required", name))
	} else if err := CheckImageRef(entry.Image); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
	}

	if entry.Digest != "" {
		if _, err := digest.Parse(entry.Digest); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: digest %q: %w", name, entry.Digest, err))
		}
	}

	if entry.Version == "" {
		result = multierror.Append(result, fmt.Errorf("%s: version is required", name))
	} else if !versionWellFormed(entry.Version) {
		result = multierror.Append(result, fmt.Errorf(
			"%s: version %q is neither semver nor QQYYYY.PP", name, entry.Version))
	}

	return result
}

// CheckImageRef requires an explicit, non-floating tag on an image reference.
// A digest-pinned reference (repo@sha256:...) also passes.
func CheckImageRef(image string) error {
	if at := strings.Index(image, "@"); at >= 0 {
		if _, err := digest.Parse(image[at+1:]); err != nil {
			return fmt.Errorf("image %q: digest reference: %w", image, err)
		}
		return nil
	}

	// The tag separator is a colon after the last slash (a colon before it
	// is a registry port).
	slash := strings.LastIndex(image, "/")
	colon := strings.LastIndex(image, ":")
	if colon <= slash {
		return fmt.Errorf("image %q has no explicit tag", image)
	}

	tag := image[colon+1:]
	if tag == "" {
		return fmt.Errorf("image %q has an empty tag", image)
	}
	if tag == "latest" {
		return fmt.Errorf("image %q uses the floating \"latest\" tag", image)
	}
	return nil
}

func versionWellFormed(v string) bool {
	if _, err := version.Parse(v); err == nil {
		return true
	}
	if _, err := semver.NewVersion(strings.TrimPrefix(v, "v")); err == nil {
		return true
	}
	return false
}

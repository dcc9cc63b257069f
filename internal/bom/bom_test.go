package bom

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyforge/relkit/internal/config"
	"github.com/policyforge/relkit/internal/registry"
	"github.com/policyforge/relkit/internal/version"
)

func validDocument() *Document {
	return &Document{
		Release:           "032026.01",
		Generated:         time.Now().UTC(),
		ApprovalStatus:    StatusApproved,
		OfflineCompatible: "true",
		DeploymentReady:   "true",
		Components: map[string]Entry{
			"pdp": {
				Version: "032026.01",
				Image:   "registry.example.com/pdp:032026.01",
				Digest:  "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			},
			"opal-bridge": {
				Version: "0.7.8",
				Image:   "registry.example.com/opal-bridge:0.7.8",
			},
		},
	}
}

func TestValidate_WellFormed(t *testing.T) {
	assert.NoError(t, Validate(validDocument(), []string{"pdp", "opal-bridge"}))
}

func TestValidate_LatestTag(t *testing.T) {
	doc := validDocument()
	entry := doc.Components["pdp"]
	entry.Image = "registry.example.com/pdp:latest"
	doc.Components["pdp"] = entry

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBOM)
	assert.Contains(t, err.Error(), "latest")
}

func TestValidate_MissingTag(t *testing.T) {
	doc := validDocument()
	entry := doc.Components["pdp"]
	entry.Image = "registry.example.com:5000/pdp" // colon is a port, not a tag
	doc.Components["pdp"] = entry

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no explicit tag")
}

func TestValidate_DigestPinnedImage(t *testing.T) {
	doc := validDocument()
	entry := doc.Components["pdp"]
	entry.Image = "registry.example.com/pdp@sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	doc.Components["pdp"] = entry

	assert.NoError(t, Validate(doc, nil))
}

func TestValidate_MalformedDigest(t *testing.T) {
	doc := validDocument()
	entry := doc.Components["pdp"]
	entry.Digest = "sha256:tooshort"
	doc.Components["pdp"] = entry

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest")
}

func TestValidate_MissingRequiredComponent(t *testing.T) {
	err := Validate(validDocument(), []string{"pdp", "pep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"pep"`)
}

func TestValidate_ReadyWithoutApproval(t *testing.T) {
	doc := validDocument()
	doc.ApprovalStatus = StatusPending

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approvalStatus")
}

func TestValidate_BadFlagStrings(t *testing.T) {
	doc := validDocument()
	doc.OfflineCompatible = "yes"

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offlineCompatible")
}

func TestValidate_BadRelease(t *testing.T) {
	doc := validDocument()
	doc.Release = "1.2.3"

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBOM)
}

func TestValidate_BadComponentVersion(t *testing.T) {
	doc := validDocument()
	entry := doc.Components["opal-bridge"]
	entry.Version = "not a version"
	doc.Components["opal-bridge"] = entry

	err := Validate(doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opal-bridge")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	doc := validDocument()
	doc.Release = "nope"
	entry := doc.Components["pdp"]
	entry.Image = "registry.example.com/pdp:latest"
	doc.Components["pdp"] = entry

	err := Validate(doc, []string{"pep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release")
	assert.Contains(t, err.Error(), "latest")
	assert.Contains(t, err.Error(), `"pep"`)
}

func TestApproved(t *testing.T) {
	doc := validDocument()
	assert.True(t, doc.Approved())

	doc.DeploymentReady = "false"
	assert.False(t, doc.Approved())

	doc.DeploymentReady = "true"
	doc.ApprovalStatus = StatusPending
	assert.False(t, doc.Approved())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BOM.json")
	doc := validDocument()

	require.NoError(t, doc.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, doc.Release, loaded.Release)
	assert.Equal(t, doc.ComponentNames(), loaded.ComponentNames())
	assert.True(t, loaded.Approved())
}

func updateFixture() (*config.Config, *registry.Registry, version.Version) {
	cfg := &config.Config{Components: []config.ComponentConfig{
		{Name: "pdp", Dir: "pdp", Image: "registry.example.com/pdp"},
		{Name: "pap-console", Dir: "console", Image: "registry.example.com/pap-console"},
	}}

	reg := registry.New()
	reg.Components["pdp"] = &registry.Component{Manifest: "gomod"}
	reg.Components["pap-console"] = &registry.Component{Manifest: "npm"}

	return cfg, reg, version.Version{Quarter: 3, Year: 2026, Patch: 1}
}

func TestUpdate_FreshDocument(t *testing.T) {
	cfg, reg, rel := updateFixture()

	doc, err := Update(cfg, reg, rel, nil)
	require.NoError(t, err)

	assert.Equal(t, "032026.01", doc.Release)
	assert.Equal(t, StatusPending, doc.ApprovalStatus)
	assert.Equal(t, "false", doc.DeploymentReady)

	pdp := doc.Components["pdp"]
	assert.Equal(t, "032026.01", pdp.Version)
	assert.Equal(t, "registry.example.com/pdp:032026.01", pdp.Image)
	assert.Contains(t, pdp.Properties, "manifest:gomod")
}

func TestUpdate_UnscannedComponent(t *testing.T) {
	cfg, reg, rel := updateFixture()
	delete(reg.Components, "pdp")

	_, err := Update(cfg, reg, rel, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBOM)
}

func TestUpdate_CarriesDigestForUnchangedImage(t *testing.T) {
	cfg, reg, rel := updateFixture()

	prev, err := Update(cfg, reg, rel, nil)
	require.NoError(t, err)
	require.NoError(t, prev.SetComponent("pdp", "", "",
		"sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))

	doc, err := Update(cfg, reg, rel, prev)
	require.NoError(t, err)
	assert.Equal(t, prev.Components["pdp"].Digest, doc.Components["pdp"].Digest)
}

func TestUpdate_NewReleaseResetsApproval(t *testing.T) {
	cfg, reg, rel := updateFixture()

	prev, err := Update(cfg, reg, rel, nil)
	require.NoError(t, err)
	prev.ApprovalStatus = StatusApproved
	prev.DeploymentReady = "true"

	bumped, err := rel.BumpPatch()
	require.NoError(t, err)

	doc, err := Update(cfg, reg, bumped, prev)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, doc.ApprovalStatus)
	assert.Equal(t, "false", doc.DeploymentReady)
	// Image tag moved with the release, so the old digest must not carry over
	assert.Empty(t, doc.Components["pdp"].Digest)
}

func TestSetComponent(t *testing.T) {
	doc := validDocument()

	require.NoError(t, doc.SetComponent("pdp", "032026.02", "", ""))
	assert.Equal(t, "032026.02", doc.Components["pdp"].Version)

	// Replacing the image drops the stale digest
	require.NoError(t, doc.SetComponent("pdp", "", "registry.example.com/pdp:032026.02", ""))
	assert.Empty(t, doc.Components["pdp"].Digest)

	err := doc.SetComponent("ghost", "1.0.0", "", "")
	assert.ErrorIs(t, err, ErrInvalidBOM)
}

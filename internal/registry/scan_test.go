package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyforge/relkit/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const testPackageJSON = `{
  "name": "pap-console",
  "version": "1.0.0",
  "dependencies": {
    "react": "18.2.0",
    "next": "^14.1.0",
    "lodash": "latest"
  },
  "devDependencies": {
    "typescript": "~5.3.3"
  }
}`

const testRequirements = `
# policy decision plumbing
opal-client==0.7.8
requests>=2.31.0  # http
pyyaml==6.0.1
flask
-r extra.txt
`

const testGoMod = `module example.com/pdp

go 1.22

require (
	github.com/open-policy-agent/opa v0.60.0
	gopkg.in/yaml.v3 v3.0.1 // indirect
)
`

func scanFixture(t *testing.T) (*Registry, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "console/package.json", testPackageJSON)
	writeFile(t, root, "opal-bridge/requirements.txt", testRequirements)
	writeFile(t, root, "pdp/go.mod", testGoMod)

	components := []config.ComponentConfig{
		{Name: "pap-console", Dir: "console", Manifest: "npm"},
		{Name: "opal-bridge", Dir: "opal-bridge", Manifest: "pip"},
		{Name: "pdp", Dir: "pdp", Manifest: "gomod"},
	}

	reg, err := Scan(root, components)
	require.NoError(t, err)
	return reg, root
}

func TestScan_AllManifestKinds(t *testing.T) {
	reg, _ := scanFixture(t)

	assert.Equal(t, []string{"opal-bridge", "pap-console", "pdp"}, reg.ComponentNames())

	console := reg.Components["pap-console"]
	require.NotNil(t, console)
	assert.Equal(t, "npm", console.Manifest)
	assert.Equal(t, "console/package.json", console.ManifestPath)
	require.Len(t, console.Dependencies, 4)

	// Runtime deps sorted by name, dev deps after
	assert.Equal(t, "lodash", console.Dependencies[0].Name)
	assert.Equal(t, "", console.Dependencies[0].Resolved) // "latest" is floating
	assert.Equal(t, "next", console.Dependencies[1].Name)
	assert.Equal(t, "14.1.0", console.Dependencies[1].Resolved)
	assert.Equal(t, "react", console.Dependencies[2].Name)
	assert.Equal(t, "18.2.0", console.Dependencies[2].Resolved)
	assert.Equal(t, "typescript", console.Dependencies[3].Name)
	assert.Equal(t, ScopeDev, console.Dependencies[3].Scope)
	assert.Equal(t, "5.3.3", console.Dependencies[3].Resolved)

	bridge := reg.Components["opal-bridge"]
	require.NotNil(t, bridge)
	require.Len(t, bridge.Dependencies, 4) // option lines and comments skipped
	assert.Equal(t, "opal-client", bridge.Dependencies[0].Name)
	assert.Equal(t, "0.7.8", bridge.Dependencies[0].Resolved)
	assert.Equal(t, "requests", bridge.Dependencies[1].Name)
	assert.Equal(t, "", bridge.Dependencies[1].Resolved) // range, not a pin
	assert.Equal(t, "flask", bridge.Dependencies[3].Name)
	assert.Equal(t, "", bridge.Dependencies[3].Spec)

	pdp := reg.Components["pdp"]
	require.NotNil(t, pdp)
	require.Len(t, pdp.Dependencies, 2)
	assert.Equal(t, "github.com/open-policy-agent/opa", pdp.Dependencies[0].Name)
	assert.Equal(t, "v0.60.0", pdp.Dependencies[0].Resolved)
	assert.Equal(t, ScopeRuntime, pdp.Dependencies[0].Scope)
	assert.Equal(t, ScopeIndirect, pdp.Dependencies[1].Scope)
}

func TestScan_AutoDetect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "svc/go.mod", testGoMod)

	reg, err := Scan(root, []config.ComponentConfig{{Name: "svc", Dir: "svc"}})
	require.NoError(t, err)
	assert.Equal(t, "gomod", reg.Components["svc"].Manifest)
}

func TestScan_MissingManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	_, err := Scan(root, []config.ComponentConfig{{Name: "ghost", Dir: "empty"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestScan_ExplicitKindMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "svc/go.mod", testGoMod)

	_, err := Scan(root, []config.ComponentConfig{{Name: "svc", Dir: "svc", Manifest: "npm"}})
	assert.Error(t, err)
}

func TestRegistry_SaveLoadRoundTrip(t *testing.T) {
	reg, root := scanFixture(t)

	path := filepath.Join(root, "dependency-registry.json")
	require.NoError(t, reg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, reg.ComponentNames(), loaded.ComponentNames())
	assert.Equal(t, reg.DependencyCount(), loaded.DependencyCount())
}

func TestRegistry_Find(t *testing.T) {
	reg, _ := scanFixture(t)

	dep := reg.Find("pdp", "github.com/open-policy-agent/opa")
	require.NotNil(t, dep)
	assert.Equal(t, "v0.60.0", dep.Resolved)

	assert.Nil(t, reg.Find("pdp", "nonexistent"))
	assert.Nil(t, reg.Find("nonexistent", "x"))
}

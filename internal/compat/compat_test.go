package compat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyforge/relkit/internal/registry"
)

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.Components["pdp"] = &registry.Component{
		Manifest: "gomod",
		Dependencies: []registry.Dependency{
			{Name: "github.com/open-policy-agent/opa", Spec: "v0.60.0", Resolved: "v0.60.0", Scope: registry.ScopeRuntime},
		},
	}
	reg.Components["opal-bridge"] = &registry.Component{
		Manifest: "pip",
		Dependencies: []registry.Dependency{
			{Name: "opal-client", Spec: "==0.7.8", Resolved: "0.7.8", Scope: registry.ScopeRuntime},
			{Name: "requests", Spec: ">=2.31.0", Scope: registry.ScopeRuntime},
		},
	}
	return reg
}

func TestCheck_SatisfiedRules(t *testing.T) {
	m := &Matrix{Rules: []Rule{
		{Name: "opa-range", Component: "pdp", Dependency: "github.com/open-policy-agent/opa", Constraint: ">=0.55.0 <1.0.0"},
		{Name: "opal-range", Component: "opal-bridge", Dependency: "opal-client", Constraint: "~0.7"},
	}}

	assert.NoError(t, Check(m, testRegistry()))
}

func TestCheck_ViolatedConstraint(t *testing.T) {
	m := &Matrix{Rules: []Rule{
		{Name: "opal-too-old", Component: "opal-bridge", Dependency: "opal-client", Constraint: ">=0.8.0"},
	}}

	err := Check(m, testRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatible)
	assert.Contains(t, err.Error(), "0.7.8")
}

func TestCheck_CollectsAllViolations(t *testing.T) {
	m := &Matrix{Rules: []Rule{
		{Name: "a", Component: "opal-bridge", Dependency: "opal-client", Constraint: ">=0.8.0"},
		{Name: "b", Component: "pdp", Dependency: "missing-dep", Constraint: ">=1.0.0"},
	}}

	err := Check(m, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "a"`)
	assert.Contains(t, err.Error(), `rule "b"`)
}

func TestCheck_UnpinnedDependency(t *testing.T) {
	m := &Matrix{Rules: []Rule{
		{Name: "requests-range", Component: "opal-bridge", Dependency: "requests", Constraint: ">=2.0.0"},
	}}

	err := Check(m, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pinned version")
}

func TestCheck_InvalidConstraint(t *testing.T) {
	m := &Matrix{Rules: []Rule{
		{Name: "broken", Component: "pdp", Dependency: "github.com/open-policy-agent/opa", Constraint: "not-a-range"},
	}}

	err := Check(m, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid constraint")
}

func TestCheck_LockedVersionPreferred(t *testing.T) {
	reg := testRegistry()
	dep := reg.Find("opal-bridge", "opal-client")
	dep.Locked = "0.9.0"

	m := &Matrix{Rules: []Rule{
		{Name: "opal-range", Component: "opal-bridge", Dependency: "opal-client", Constraint: ">=0.8.0"},
	}}

	assert.NoError(t, Check(m, reg))
}

func TestLoadMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compatibility-matrix.json")
	content := `{
  "rules": [
    {"name": "opa-range", "component": "pdp", "dependency": "github.com/open-policy-agent/opa", "constraint": ">=0.55.0"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadMatrix(path)
	require.NoError(t, err)
	require.Len(t, m.Rules, 1)
	assert.Equal(t, "opa-range", m.Rules[0].Name)
}

func TestLoadMatrix_Missing(t *testing.T) {
	_, err := LoadMatrix(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

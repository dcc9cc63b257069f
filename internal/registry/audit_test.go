package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditFixture() *Registry {
	reg := New()
	reg.Components["console"] = &Component{
		Manifest: "npm",
		Dependencies: []Dependency{
			{Name: "react", Spec: "18.2.0", Resolved: "18.2.0", Scope: ScopeRuntime},
			{Name: "lodash", Spec: "latest", Scope: ScopeRuntime},
			{Name: "leftpad", Spec: "git+https://example.com/leftpad.git", Scope: ScopeRuntime},
			{Name: "next", Spec: ">=14.0.0", Scope: ScopeRuntime},
		},
	}
	reg.Components["bridge"] = &Component{
		Manifest: "pip",
		Dependencies: []Dependency{
			{Name: "opal-client", Spec: "==0.7.8", Resolved: "0.7.8", Scope: ScopeRuntime},
			{Name: "flask", Spec: "", Scope: ScopeRuntime},
		},
	}
	return reg
}

func findingFor(findings []Finding, dep string) *Finding {
	for i := range findings {
		if findings[i].Dependency == dep {
			return &findings[i]
		}
	}
	return nil
}

func TestAudit_FloatingSpecifiers(t *testing.T) {
	findings := Audit(auditFixture(), nil)

	f := findingFor(findings, "lodash")
	require.NotNil(t, f)
	assert.Equal(t, SeverityError, f.Severity)

	f = findingFor(findings, "leftpad")
	require.NotNil(t, f)
	assert.Equal(t, SeverityError, f.Severity)
	assert.Contains(t, f.Message, "mutable source")

	f = findingFor(findings, "flask")
	require.NotNil(t, f)
	assert.Equal(t, SeverityError, f.Severity)

	// Range specifier is only a warning
	f = findingFor(findings, "next")
	require.NotNil(t, f)
	assert.Equal(t, SeverityWarning, f.Severity)

	// Pinned deps are clean
	assert.Nil(t, findingFor(findings, "react"))
	assert.Nil(t, findingFor(findings, "opal-client"))
}

func TestAudit_DenyList(t *testing.T) {
	findings := Audit(auditFixture(), []string{"react", "opal-client@0.7.8"})

	f := findingFor(findings, "react")
	require.NotNil(t, f)
	assert.Equal(t, SeverityError, f.Severity)
	assert.Contains(t, f.Message, "deny list")

	f = findingFor(findings, "opal-client")
	require.NotNil(t, f)
	assert.Contains(t, f.Message, "0.7.8")
}

func TestAudit_DenyListScopedPackages(t *testing.T) {
	reg := New()
	reg.Components["console"] = &Component{
		Manifest: "npm",
		Dependencies: []Dependency{
			{Name: "@auth0/nextjs-auth0", Spec: "3.5.0", Resolved: "3.5.0", Scope: ScopeRuntime},
			{Name: "@stripe/stripe-js", Spec: "2.4.0", Resolved: "2.4.0", Scope: ScopeRuntime},
		},
	}

	// Scoped name with a pinned version
	findings := Audit(reg, []string{"@auth0/nextjs-auth0@3.5.0"})
	f := findingFor(findings, "@auth0/nextjs-auth0")
	require.NotNil(t, f)
	assert.Equal(t, SeverityError, f.Severity)
	assert.Contains(t, f.Message, "3.5.0")

	// Scoped name without a version denies every version
	findings = Audit(reg, []string{"@stripe/stripe-js"})
	require.NotNil(t, findingFor(findings, "@stripe/stripe-js"))

	// A different pinned version must not match
	findings = Audit(reg, []string{"@auth0/nextjs-auth0@3.4.0"})
	assert.Nil(t, findingFor(findings, "@auth0/nextjs-auth0"))
}

func TestAudit_DenyListOtherVersion(t *testing.T) {
	findings := Audit(auditFixture(), []string{"opal-client@0.6.0"})
	assert.Nil(t, findingFor(findings, "opal-client"))
}

func TestAudit_CleanRegistry(t *testing.T) {
	reg := New()
	reg.Components["pdp"] = &Component{
		Manifest: "gomod",
		Dependencies: []Dependency{
			{Name: "github.com/open-policy-agent/opa", Spec: "v0.60.0", Resolved: "v0.60.0", Scope: ScopeRuntime},
		},
	}
	assert.Empty(t, Audit(reg, nil))
}

func TestErrors_FiltersWarnings(t *testing.T) {
	findings := []Finding{
		{Dependency: "a", Severity: SeverityWarning},
		{Dependency: "b", Severity: SeverityError},
	}
	errs := Errors(findings)
	require.Len(t, errs, 1)
	assert.Equal(t, "b", errs[0].Dependency)
}

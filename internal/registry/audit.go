package registry

import (
	"fmt"
	"strings"
)

// Finding severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Finding is one security-audit result.
type Finding struct {
	Component  string `json:"component"`
	Dependency string `json:"dependency"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
}

// forbiddenSpecPrefixes are version specifiers that pull code from mutable
// or unvetted sources and must never appear in a release.
var forbiddenSpecPrefixes = []string{"git+", "git:", "file:", "http:", "https:", "link:"}

// Audit checks the registry for dependencies that would make a release
// unreproducible or that appear on the configured deny list. It returns all
// findings; the caller decides whether warnings gate the release.
func Audit(reg *Registry, denied []string) []Finding {
	denyExact := make(map[string]bool)  // "name@version"
	denyAnyVer := make(map[string]bool) // "name"
	for _, entry := range denied {
		// Split on the last "@" so scoped npm names ("@scope/pkg@1.2.3")
		// classify by their version suffix, not the scope marker.
		if strings.LastIndex(entry, "@") > 0 {
			denyExact[entry] = true
		} else {
			denyAnyVer[entry] = true
		}
	}

	var findings []Finding
	for _, name := range reg.ComponentNames() {
		comp := reg.Components[name]
		for _, dep := range comp.Dependencies {
			findings = append(findings, auditDependency(name, comp, dep, denyExact, denyAnyVer)...)
		}
	}
	return findings
}

func auditDependency(component string, comp *Component, dep Dependency, denyExact, denyAnyVer map[string]bool) []Finding {
	var findings []Finding

	add := func(severity, format string, args ...any) {
		findings = append(findings, Finding{
			Component:  component,
			Dependency: dep.Name,
			Severity:   severity,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	spec := strings.TrimSpace(dep.Spec)

	switch {
	case spec == "latest" || spec == "*":
		add(SeverityError, "floating specifier %q cannot be pinned", spec)
	case spec == "" && comp.Manifest != "gomod":
		add(SeverityError, "no version specifier (resolves to whatever is newest)")
	}

	for _, prefix := range forbiddenSpecPrefixes {
		if strings.HasPrefix(spec, prefix) {
			add(SeverityError, "specifier %q pulls from a mutable source", spec)
			break
		}
	}

	if dep.Resolved == "" && dep.Scope == ScopeRuntime && spec != "" && spec != "latest" && spec != "*" {
		add(SeverityWarning, "range specifier %q is not pinned to an exact version", spec)
	}

	if denyAnyVer[dep.Name] {
		add(SeverityError, "dependency is on the deny list")
	}
	if dep.Resolved != "" && denyExact[dep.Name+"@"+dep.Resolved] {
		add(SeverityError, "version %s is on the deny list", dep.Resolved)
	}

	return findings
}

// Errors filters findings down to the error severity.
func Errors(findings []Finding) []Finding {
	var errs []Finding
	for _, f := range findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errs
}

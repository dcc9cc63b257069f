// Package compat evaluates compatibility-matrix.json: named semver
// constraints that dependency versions in the registry must satisfy before
// components are allowed to ship together.
package compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"

	"github.com/policyforge/relkit/internal/registry"
)

var (
	// ErrIncompatible is returned when any matrix rule is violated
	ErrIncompatible = errors.New("compatibility check failed")
)

// Matrix is the persisted compatibility matrix document.
type Matrix struct {
	Rules []Rule `json:"rules"`
}

// Rule constrains the version of one dependency of one component.
type Rule struct {
	Name        string `json:"name"`
	Component   string `json:"component"`
	Dependency  string `json:"dependency"`
	Constraint  string `json:"constraint"`
	Description string `json:"description,omitempty"`
}

// LoadMatrix reads a compatibility matrix from path.
func LoadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read compatibility matrix: %w", err)
	}
	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse compatibility matrix: %w", err)
	}
	return &m, nil
}

// Check evaluates every rule against the registry. A rule fails when the
// referenced dependency is missing, has no pinned version, or its version
// falls outside the constraint. All violations are collected.
func Check(m *Matrix, reg *registry.Registry) error {
	var result *multierror.Error

	for _, rule := range m.Rules {
		if err := checkRule(rule, reg); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrIncompatible, err)
	}
	return nil
}

func checkRule(rule Rule, reg *registry.Registry) error {
	constraint, err := semver.NewConstraint(rule.Constraint)
	if err != nil {
		return fmt.Errorf("rule %q: invalid constraint %q: %w", rule.Name, rule.Constraint, err)
	}

	dep := reg.Find(rule.Component, rule.Dependency)
	if dep == nil {
		return fmt.Errorf("rule %q: %s has no dependency %s", rule.Name, rule.Component, rule.Dependency)
	}

	pinned := dep.Locked
	if pinned == "" {
		pinned = dep.Resolved
	}
	if pinned == "" {
		return fmt.Errorf("rule %q: %s/%s has no pinned version to check against %q",
			rule.Name, rule.Component, rule.Dependency, rule.Constraint)
	}

	ver, err := semver.NewVersion(strings.TrimPrefix(pinned, "v"))
	if err != nil {
		return fmt.Errorf("rule %q: %s/%s version %q is not semver: %w",
			rule.Name, rule.Component, rule.Dependency, pinned, err)
	}

	if !constraint.Check(ver) {
		return fmt.Errorf("rule %q: %s/%s version %s violates constraint %q",
			rule.Name, rule.Component, rule.Dependency, pinned, rule.Constraint)
	}
	return nil
}

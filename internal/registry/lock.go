package registry

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Lock pins every dependency to its resolved version and marks the registry
// locked. A dependency without a resolvable version fails the lock; all such
// failures are reported together.
func Lock(reg *Registry) error {
	var result *multierror.Error

	for _, name := range reg.ComponentNames() {
		comp := reg.Components[name]
		for i := range comp.Dependencies {
			dep := &comp.Dependencies[i]
			if dep.Resolved == "" {
				result = multierror.Append(result, fmt.Errorf(
					"%s/%s: specifier %q has no pinnable version", name, dep.Name, dep.Spec))
				continue
			}
			dep.Locked = dep.Resolved
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}

	now := time.Now().UTC()
	reg.Locked = true
	reg.LockedAt = &now
	return nil
}

// Validate checks registry consistency: every required component must have
// been scanned, and a locked registry must have every dependency pinned.
// All violations are collected before failing.
func Validate(reg *Registry, required []string) error {
	var result *multierror.Error

	if len(reg.Components) == 0 {
		result = multierror.Append(result, fmt.Errorf("registry is empty (run scan first)"))
	}

	for _, name := range required {
		if _, ok := reg.Components[name]; !ok {
			result = multierror.Append(result, fmt.Errorf("required component %q has not been scanned", name))
		}
	}

	for _, name := range reg.ComponentNames() {
		comp := reg.Components[name]
		for _, dep := range comp.Dependencies {
			if dep.Name == "" {
				result = multierror.Append(result, fmt.Errorf("%s: dependency with empty name", name))
			}
			if reg.Locked && dep.Locked == "" {
				result = multierror.Append(result, fmt.Errorf("%s/%s: registry is locked but dependency is not pinned", name, dep.Name))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	return nil
}

package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// parseRequirements reads a pip requirements.txt. Only plain requirement
// lines are tracked; comments, blank lines, and pip option lines (-r, -e,
// --index-url, ...) are skipped.
func parseRequirements(path string) ([]Dependency, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements.txt: %w", err)
	}
	defer f.Close()

	var deps []Dependency
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		// Strip trailing comments before trimming
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		deps = append(deps, parseRequirementLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan requirements.txt: %w", err)
	}

	return deps, nil
}

// requirement specifiers in the order pip recognizes them; "==" must be
// tried before "=" would ever match, and compound specifiers keep only the
// first clause for resolution purposes.
var pipOperators = []string{"==", ">=", "<=", "~=", "!=", ">", "<"}

func parseRequirementLine(line string) Dependency {
	// Environment markers ("; python_version < '3.11'") are not versions
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}

	for _, op := range pipOperators {
		idx := strings.Index(line, op)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		rest := strings.TrimSpace(line[idx:])
		// Only an exact pin yields a resolved version
		resolved := ""
		if strings.HasPrefix(rest, "==") {
			ver := strings.TrimPrefix(rest, "==")
			if comma := strings.Index(ver, ","); comma >= 0 {
				ver = ver[:comma]
			}
			resolved = strings.TrimSpace(ver)
		}
		return Dependency{Name: name, Spec: rest, Resolved: resolved, Scope: ScopeRuntime}
	}

	// Bare name with no version specifier
	return Dependency{Name: line, Spec: "", Scope: ScopeRuntime}
}

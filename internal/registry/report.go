package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Report is the exported dependency report consumed by CI dashboards.
type Report struct {
	ID         string             `json:"id"`
	Generated  time.Time          `json:"generated"`
	Release    string             `json:"release,omitempty"`
	Locked     bool               `json:"locked"`
	Components map[string]Summary `json:"components"`
	Findings   []Finding          `json:"findings"`
}

// Summary is the per-component rollup in a report.
type Summary struct {
	Manifest     string `json:"manifest"`
	Dependencies int    `json:"dependencies"`
	Pinned       int    `json:"pinned"`
}

// BuildReport assembles a report from the registry and audit findings.
// release may be empty when no VERSION file is present.
func BuildReport(reg *Registry, findings []Finding, release string) *Report {
	report := &Report{
		ID:         uuid.NewString(),
		Generated:  time.Now().UTC(),
		Release:    release,
		Locked:     reg.Locked,
		Components: make(map[string]Summary, len(reg.Components)),
		Findings:   findings,
	}
	if report.Findings == nil {
		report.Findings = []Finding{}
	}

	for name, comp := range reg.Components {
		pinned := 0
		for _, dep := range comp.Dependencies {
			if dep.Resolved != "" || dep.Locked != "" {
				pinned++
			}
		}
		report.Components[name] = Summary{
			Manifest:     comp.Manifest,
			Dependencies: len(comp.Dependencies),
			Pinned:       pinned,
		}
	}

	return report
}

// WriteReport writes the report to path as indented JSON.
func WriteReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

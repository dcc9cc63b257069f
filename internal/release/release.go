// Package release runs the integrated release pipeline: a fixed sequence of
// named stages (dependency scan, BOM refresh, pre-deployment validation,
// customer packaging) where the first failing stage aborts the run. Every
// run produces a release report recording each stage's outcome, including
// the stages that never ran.
package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrStageFailed is returned when any pipeline stage fails
	ErrStageFailed = errors.New("release stage failed")
)

// Stage outcome values.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Stage is one step of the pipeline.
type Stage struct {
	Name string
	Run  func() error
}

// StageResult records one stage's outcome.
type StageResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the persisted outcome of a pipeline run.
type Report struct {
	ID       string        `json:"id"`
	Release  string        `json:"release"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Success  bool          `json:"success"`
	Stages   []StageResult `json:"stages"`
}

// Run executes the stages in order. On the first failure the remaining
// stages are recorded as skipped and an ErrStageFailed naming the stage is
// returned alongside the report; the report is always non-nil.
func Run(rel string, stages []Stage) (*Report, error) {
	report := &Report{
		ID:      uuid.NewString(),
		Release: rel,
		Started: time.Now().UTC(),
	}

	var failed error
	for _, stage := range stages {
		if failed != nil {
			report.Stages = append(report.Stages, StageResult{Name: stage.Name, Status: StatusSkipped})
			continue
		}

		start := time.Now()
		err := stage.Run()
		result := StageResult{Name: stage.Name, Duration: time.Since(start)}

		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			failed = fmt.Errorf("%w: %s: %w", ErrStageFailed, stage.Name, err)
		} else {
			result.Status = StatusOK
		}
		report.Stages = append(report.Stages, result)
	}

	report.Finished = time.Now().UTC()
	report.Success = failed == nil
	return report, failed
}

// WriteReport writes the release report to path as indented JSON.
func WriteReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode release report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write release report: %w", err)
	}
	return nil
}

// Package helmcheck validates the deployment Helm chart before release:
// it lints the chart with the Helm SDK, renders the templates offline, and
// rejects any rendered workload whose container image carries a floating
// tag. A release string, when supplied, must match the chart's appVersion
// so the chart cannot drift from the BOM.
package helmcheck

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/policyforge/relkit/internal/bom"
)

var (
	// ErrChartInvalid is returned when the chart fails lint or image checks
	ErrChartInvalid = errors.New("helm chart validation failed")
)

// Options configures a chart validation run.
type Options struct {
	// Values overrides chart values for rendering, as a nested map.
	Values map[string]interface{}
	// Strict escalates lint warnings to failures.
	Strict bool
	// Release, when non-empty, must equal the chart's appVersion.
	Release string
}

// Result carries the outcome of a chart validation.
type Result struct {
	ChartName    string
	ChartVersion string
	AppVersion   string
	// Images are all container images found in rendered workloads, sorted.
	Images []string
	// LintMessages are the non-fatal lint findings, formatted.
	LintMessages []string
}

// Validate loads, lints, and renders the chart at dir. Every failure is
// collected so the caller sees lint problems and image problems together.
func Validate(dir string, opts Options) (*Result, error) {
	ch, err := loader.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %s: %w", dir, err)
	}

	res := &Result{
		ChartName:    ch.Metadata.Name,
		ChartVersion: ch.Metadata.Version,
		AppVersion:   ch.Metadata.AppVersion,
	}

	var result *multierror.Error
	result = lintChart(result, res, dir, opts)

	if opts.Release != "" && ch.Metadata.AppVersion != opts.Release {
		result = multierror.Append(result, fmt.Errorf(
			"chart appVersion %q does not match release %q", ch.Metadata.AppVersion, opts.Release))
	}

	images, renderErr := renderedImages(ch, opts.Values)
	if renderErr != nil {
		result = multierror.Append(result, renderErr)
	}
	res.Images = images

	for _, image := range images {
		if err := bom.CheckImageRef(image); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return res, fmt.Errorf("%w: %w", ErrChartInvalid, err)
	}
	return res, nil
}

func lintChart(result *multierror.Error, res *Result, dir string, opts Options) *multierror.Error {
	lint := action.NewLint()
	lint.Strict = opts.Strict

	lintRes := lint.Run([]string{dir}, opts.Values)
	for _, err := range lintRes.Errors {
		result = multierror.Append(result, fmt.Errorf("lint: %w", err))
	}
	for _, msg := range lintRes.Messages {
		if msg.Severity == support.ErrorSev || (opts.Strict && msg.Severity == support.WarningSev) {
			result = multierror.Append(result, fmt.Errorf("lint: %s", msg))
			continue
		}
		res.LintMessages = append(res.LintMessages, msg.Error())
	}
	return result
}

// renderedImages renders the chart offline and extracts every container
// image from the workload manifests.
func renderedImages(ch *chart.Chart, values map[string]interface{}) ([]string, error) {
	if values == nil {
		values = map[string]interface{}{}
	}

	renderVals, err := chartutil.ToRenderValues(ch, values, chartutil.ReleaseOptions{
		Name:      "relkit-validate",
		Namespace: "default",
	}, chartutil.DefaultCapabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare render values: %w", err)
	}

	rendered, err := engine.Render(ch, renderVals)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	seen := make(map[string]bool)
	for name, manifest := range rendered {
		if strings.HasSuffix(name, "NOTES.txt") || strings.TrimSpace(manifest) == "" {
			continue
		}
		for _, doc := range strings.Split(manifest, "\n---") {
			for _, image := range extractImages(doc) {
				seen[image] = true
			}
		}
	}

	images := make([]string, 0, len(seen))
	for image := range seen {
		images = append(images, image)
	}
	sort.Strings(images)
	return images, nil
}

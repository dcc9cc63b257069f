package helmcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChartYAML = `apiVersion: v2
name: policyforge
description: Policy authorization platform
version: 1.0.0
appVersion: "032026.01"
`

const testValuesYAML = `image:
  repository: registry.example.com/pdp
  tag: "032026.01"
`

const testDeploymentYAML = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: {{ .Release.Name }}-pdp
spec:
  replicas: 1
  selector:
    matchLabels:
      app: pdp
  template:
    metadata:
      labels:
        app: pdp
    spec:
      initContainers:
        - name: migrate
          image: "registry.example.com/pdp-migrate:032026.01"
      containers:
        - name: pdp
          image: "{{ .Values.image.repository }}:{{ .Values.image.tag }}"
`

func writeChart(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "chart")
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func validChart(t *testing.T) string {
	t.Helper()
	return writeChart(t, map[string]string{
		"Chart.yaml":                testChartYAML,
		"values.yaml":               testValuesYAML,
		"templates/deployment.yaml": testDeploymentYAML,
	})
}

func TestValidate_WellFormedChart(t *testing.T) {
	res, err := Validate(validChart(t), Options{Release: "032026.01"})
	require.NoError(t, err)

	assert.Equal(t, "policyforge", res.ChartName)
	assert.Equal(t, "032026.01", res.AppVersion)
	assert.Equal(t, []string{
		"registry.example.com/pdp-migrate:032026.01",
		"registry.example.com/pdp:032026.01",
	}, res.Images)
}

func TestValidate_InfoLintMessagesReported(t *testing.T) {
	// The fixture chart carries no icon, so lint always produces at least
	// one informational message; it must surface without failing the run.
	res, err := Validate(validChart(t), Options{Release: "032026.01"})
	require.NoError(t, err)

	require.NotEmpty(t, res.LintMessages)
	for _, msg := range res.LintMessages {
		assert.NotEmpty(t, msg)
	}
}

func TestValidate_LatestTagRejected(t *testing.T) {
	dir := validChart(t)

	res, err := Validate(dir, Options{
		Values: map[string]interface{}{
			"image": map[string]interface{}{"tag": "latest"},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChartInvalid)
	assert.Contains(t, err.Error(), "latest")
	require.NotNil(t, res)
	assert.Contains(t, res.Images, "registry.example.com/pdp:latest")
}

func TestValidate_AppVersionMismatch(t *testing.T) {
	_, err := Validate(validChart(t), Options{Release: "032026.02"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChartInvalid)
	assert.Contains(t, err.Error(), "appVersion")
}

func TestValidate_MissingChart(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestValidate_BrokenTemplate(t *testing.T) {
	dir := writeChart(t, map[string]string{
		"Chart.yaml":                testChartYAML,
		"values.yaml":               testValuesYAML,
		"templates/deployment.yaml": "{{ .Values.nonexistent.deeply.nested }}",
	})

	_, err := Validate(dir, Options{})
	assert.ErrorIs(t, err, ErrChartInvalid)
}

func TestExtractImages_WorkloadKinds(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "pod",
			doc: `apiVersion: v1
kind: Pod
metadata:
  name: p
spec:
  containers:
    - name: c
      image: example.com/app:1.0.0
`,
			want: []string{"example.com/app:1.0.0"},
		},
		{
			name: "statefulset",
			doc: `apiVersion: apps/v1
kind: StatefulSet
metadata:
  name: s
spec:
  template:
    spec:
      containers:
        - name: c
          image: example.com/db:2.0.0
`,
			want: []string{"example.com/db:2.0.0"},
		},
		{
			name: "cronjob",
			doc: `apiVersion: batch/v1
kind: CronJob
metadata:
  name: cj
spec:
  schedule: "* * * * *"
  jobTemplate:
    spec:
      template:
        spec:
          containers:
            - name: c
              image: example.com/task:3.0.0
`,
			want: []string{"example.com/task:3.0.0"},
		},
		{
			name: "service has no images",
			doc: `apiVersion: v1
kind: Service
metadata:
  name: svc
spec:
  ports:
    - port: 80
`,
			want: nil,
		},
		{
			name: "empty document",
			doc:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractImages(tt.doc))
		})
	}
}

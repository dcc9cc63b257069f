package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistry_Execute(t *testing.T) {
	registry := NewCommandRegistry(VersionInfo{Version: "dev", Commit: "none", Date: "unknown"})

	ran := false
	registry.Register(&Command{
		Name:        "deps",
		Description: "Manage the dependency registry",
		Run: func(args []string) error {
			ran = true
			assert.Equal(t, []string{"scan"}, args)
			return nil
		},
	})

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "registered command receives its arguments",
			args:    []string{"deps", "scan"},
			wantErr: false,
		},
		{
			name:    "unknown command",
			args:    []string{"frobnicate"},
			wantErr: true,
		},
		{
			name:    "no command",
			args:    nil,
			wantErr: true,
		},
		{
			name:    "help",
			args:    []string{"help"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Execute(tt.args)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}

	assert.True(t, ran, "registered command should have run")
}

func TestCommandRegistry_VersionRoutesToCommand(t *testing.T) {
	registry := NewCommandRegistry(VersionInfo{Version: "dev"})

	var got []string
	registry.Register(&Command{
		Name:        "version",
		Description: "Manage the VERSION file (QQYYYY.PP)",
		Run: func(args []string) error {
			got = args
			return nil
		},
	})

	// The version command group owns "version"; build info is --version only.
	require.NoError(t, registry.Execute([]string{"version", "current"}))
	assert.Equal(t, []string{"current"}, got)

	got = nil
	require.NoError(t, registry.Execute([]string{"--version"}))
	assert.Nil(t, got, "--version must not reach the version command group")
}

func TestCommandRegistry_PrintHelp(t *testing.T) {
	registry := NewCommandRegistry(VersionInfo{Version: "dev"})
	registry.Register(&Command{Name: "bom", Description: "Manage the bill of materials"})
	registry.Register(&Command{Name: "deps", Description: "Manage the dependency registry"})

	var buf bytes.Buffer
	registry.PrintHelp(&buf)

	out := buf.String()
	assert.Contains(t, out, "relkit")
	assert.Contains(t, out, "bom")
	assert.Contains(t, out, "Manage the dependency registry")
}

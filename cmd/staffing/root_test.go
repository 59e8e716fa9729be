package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rpattn/staffing/internal/ingestion"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range newRootCmd().Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "import", "export"} {
		require.True(t, names[want], want)
	}
}

func TestExportTemplateWritesHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.xlsx")
	out, err := run(t, "export", "projects", path, "--template")
	require.NoError(t, err)
	require.Contains(t, out, "wrote 0 row(s)")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Equal(t, ingestion.ProjectSchema.Headers, rows[0])
}

func TestArgumentErrorsStopBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown entity", []string{"import", "invoices", "x.csv", "--user", "u"}, `unknown entity "invoices"`},
		{"missing user", []string{"import", "clients", "x.csv"}, "--user is required"},
		{"assignment without project", []string{"import", "assignments", "x.csv", "--user", "u"}, "--project must be a project id"},
		{"missing file", []string{"import", "clients", filepath.Join("no", "such.csv"), "--user", "u"}, "open"},
		{"bad export extension", []string{"export", "clients", "out.pdf", "--template"}, "unsupported export format"},
		{"bad direction", []string{"migrate", "sideways"}, `unknown direction "sideways"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

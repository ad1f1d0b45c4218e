package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTables(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTablesEmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), tables)
}

func TestLoadTablesValidFile(t *testing.T) {
	t.Parallel()
	path := writeTables(t, `
companies:
  Acme:
    stages: [screening, interview, completed]
    thresholds:
      screening:
        min_percent: 50
      interview:
        min_percent: 60
    track:
      basis: average
      bands:
        - min: 75
          track: Fast
      default: Slow
`)
	tables, err := LoadTables(path)
	require.NoError(t, err)
	require.Contains(t, tables.Companies, "Acme")
	acme := tables.Companies["Acme"]
	assert.Equal(t, []string{"screening", "interview", "completed"}, acme.Stages)
	assert.Equal(t, 50, acme.Thresholds["screening"].MinPercent)
	assert.Equal(t, "Slow", acme.Track.DefaultTrack)

	// Loaded tables drive the policy just like the defaults.
	p := NewPolicy(tables)
	ok, err := p.EvaluatePass("Acme", "screening", 50, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadTablesRejectsInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing file marker", content: ""},
		{
			name: "stage list without terminal",
			content: `
companies:
  Acme:
    stages: [screening, interview]
    thresholds: {}
    track: {basis: average, default: Slow}
`,
		},
		{
			name: "threshold for unknown stage",
			content: `
companies:
  Acme:
    stages: [screening, completed]
    thresholds:
      interview:
        min_percent: 60
    track: {basis: average, default: Slow}
`,
		},
		{name: "not yaml", content: "{{{"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadTables(writeTables(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadTablesMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

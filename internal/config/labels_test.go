package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLabels(t *testing.T) {
	table, err := DefaultLabels()
	require.NoError(t, err)

	bankClass, ok := table.ForColumn("BKCLASS")
	require.True(t, ok)
	label, ok := bankClass.Label("N")
	require.True(t, ok)
	assert.Equal(t, "Commercial Bank - Federal Charter", label)

	fed, ok := table.ForColumn("FED")
	require.True(t, ok)
	assert.Len(t, fed, 12)
	assert.Equal(t, "San Francisco", fed["12"])

	ots, ok := table.ForColumn("OTSDIST")
	require.True(t, ok)
	assert.Equal(t, "West", ots["5"])

	_, ok = table.ForColumn("STNAME")
	assert.False(t, ok, "open vocabulary columns carry no dictionary")
}

func TestDefaultLabels_RegionColumnsShareLabels(t *testing.T) {
	table, err := DefaultLabels()
	require.NoError(t, err)

	region, ok := table.ForColumn("FDICREGN")
	require.True(t, ok)
	office, ok := table.ForColumn("FDICDBS")
	require.True(t, ok)

	assert.Equal(t, region.Labels(), office.Labels())
}

func TestDefaultLabels_ParsedOnce(t *testing.T) {
	a, err := DefaultLabels()
	require.NoError(t, err)
	b, err := DefaultLabels()
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestParseLabels_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no columns", "dictionaries:\n  a:\n    \"1\": one\n"},
		{"unknown dictionary", "dictionaries:\n  a:\n    \"1\": one\ncolumns:\n  FED: b\n"},
		{"empty dictionary", "dictionaries:\n  a: {}\ncolumns:\n  FED: a\n"},
		{"malformed", "dictionaries: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabels([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadLabels_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	content := "dictionaries:\n  bank_class:\n    \"N\": \"National\"\ncolumns:\n  BKCLASS: bank_class\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := LoadLabels(path)
	require.NoError(t, err)

	m, ok := table.ForColumn("BKCLASS")
	require.True(t, ok)
	assert.Equal(t, "National", m["N"])

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	embedded, err := LoadLabels("")
	require.NoError(t, err)
	assert.Contains(t, embedded.Columns, "OTSDIST")
}

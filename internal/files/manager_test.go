package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fdicbanks/internal/config"
)

func TestManager_SaveStream(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), "data", "logs")
	m := NewManager(paths)

	full, n, err := m.SaveStream("downloads/institutions.csv", strings.NewReader("CERT\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, filepath.Join(paths.DownloadsDir, "institutions.csv"), full)
	assert.True(t, m.FileExists("downloads/institutions.csv"))

	content, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "CERT\n1\n", string(content))

	names, err := m.ListFiles("downloads")
	require.NoError(t, err)
	assert.Equal(t, []string{"institutions.csv"}, names)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestManager_SaveStreamFailureLeavesNoFile(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), "data", "logs")
	m := NewManager(paths)

	_, _, err := m.SaveStream("downloads/institutions.csv", brokenReader{})
	assert.ErrorContains(t, err, "connection reset")

	names, err := m.ListFiles("downloads")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestManager_ResolvePath(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), "data", "logs")
	m := NewManager(paths)
	abs := filepath.Join(t.TempDir(), "x.csv")

	assert.Equal(t, abs, m.resolvePath(abs))
	assert.Equal(t, filepath.Join(paths.DownloadsDir, "a.csv"), m.resolvePath("downloads/a.csv"))
	assert.Equal(t, filepath.Join(paths.ReportsDir, "a.csv"), m.resolvePath("reports/a.csv"))
	assert.Equal(t, filepath.Join(paths.LogsDir, "run.log"), m.resolvePath("logs/run.log"))
	assert.Equal(t, filepath.Join(paths.DataDir, "a.csv"), m.resolvePath("a.csv"))
}

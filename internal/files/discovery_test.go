package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fdicbanks/internal/errors"
)

func touch(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("CERT\n1\n"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestIsFeedFile(t *testing.T) {
	tests := map[string]bool{
		"institutions.csv":    true,
		"INSTITUTIONS.CSV":    true,
		"institutions.xlsx":   true,
		"institutions.xls":    false,
		"institutions.json":   false,
		"~$institutions.xlsx": false,
		".institutions.csv":   false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsFeedFile(name), name)
	}
}

func TestDiscovery_FindFeedFiles(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "downloads")
	require.NoError(t, os.Mkdir(dir, 0755))

	now := time.Now()
	touch(t, dir, "b.csv", now.Add(-time.Hour))
	touch(t, dir, "a.xlsx", now.Add(-2*time.Hour))
	touch(t, dir, "notes.txt", now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.csv"), 0755))

	d := NewDiscovery(base)
	found, err := d.FindFeedFiles("downloads")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a.xlsx", found[0].Name)
	assert.Equal(t, "b.csv", found[1].Name)
	assert.Equal(t, filepath.Join(dir, "b.csv"), found[1].Path)

	abs, err := d.FindFeedFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, found, abs)
}

func TestDiscovery_LatestFeed(t *testing.T) {
	dir := t.TempDir()
	d := NewDiscovery(dir)

	_, err := d.LatestFeed(dir)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound), "got %v", err)

	now := time.Now()
	touch(t, dir, "2024-01.csv", now.Add(-48*time.Hour))
	touch(t, dir, "2024-02.csv", now.Add(-24*time.Hour))

	latest, err := d.LatestFeed(dir)
	require.NoError(t, err)
	assert.Equal(t, "2024-02.csv", latest.Name)

	_, err = d.LatestFeed(filepath.Join(dir, "missing"))
	assert.ErrorContains(t, err, "failed to read directory")
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "a", ModTime: now.Add(-time.Minute)},
		{Name: "b", ModTime: now},
		{Name: "c", ModTime: now.Add(-time.Hour)},
	})
	require.True(t, ok)
	assert.Equal(t, "b", latest.Name)
}

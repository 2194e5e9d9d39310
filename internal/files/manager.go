package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fdicbanks/internal/config"
)

// Manager provides file management operations rooted at the data tree
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	return err == nil
}

// SaveStream writes r to path through a temporary file in the same
// directory, so readers never observe a partial file. It returns the
// resolved path and the number of bytes written.
func (m *Manager) SaveStream(path string, r io.Reader) (string, int64, error) {
	fullPath := m.resolvePath(path)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", n, fmt.Errorf("failed to write %s: %w", fullPath, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", n, fmt.Errorf("failed to move file into place: %w", err)
	}

	slog.Debug("Saved file",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Int64("size_bytes", n))

	return fullPath, n, nil
}

// ListFiles returns all files in a directory (non-recursive)
func (m *Manager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(m.resolvePath(dir))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// resolvePath resolves a path relative to the appropriate base directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	slashed := filepath.ToSlash(path)
	switch {
	case strings.HasPrefix(slashed, "downloads/"):
		return m.paths.GetDownloadPath(strings.TrimPrefix(slashed, "downloads/"))
	case strings.HasPrefix(slashed, "reports/"):
		return m.paths.GetReportPath(strings.TrimPrefix(slashed, "reports/"))
	case strings.HasPrefix(slashed, "logs/"):
		return m.paths.GetLogPath(strings.TrimPrefix(slashed, "logs/"))
	default:
		return filepath.Join(m.paths.DataDir, path)
	}
}

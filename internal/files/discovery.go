package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "fdicbanks/internal/errors"
)

// FeedExtensions are the file types the loader accepts.
var FeedExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// IsFeedFile reports whether name has a feed extension and is not an
// editor lock file.
func IsFeedFile(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range FeedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindFeedFiles finds all feed files in dir, oldest first
func (d *Discovery) FindFeedFiles(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsFeedFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// LatestFeed returns the most recently modified feed file in dir
func (d *Discovery) LatestFeed(dir string) (FileInfo, error) {
	files, err := d.FindFeedFiles(dir)
	if err != nil {
		return FileInfo{}, err
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return FileInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("institutions feed in %s", dir))
	}
	return latest, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if !file.ModTime.Before(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}

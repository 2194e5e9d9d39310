package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	BaseDir      string
	DataDir      string
	DownloadsDir string
	ReportsDir   string
	LogsDir      string

	// LabelsFile replaces the embedded label dictionaries when set.
	LabelsFile string

	// Well-known report files
	InstitutionsCSV     string
	InstitutionsParquet string
	ActivityCSV         string
	ActivityParquet     string
	ActivityXLSX        string
	BanksDB             string
}

// GetPaths returns the application paths relative to the executable location
// with the default data and logs directory names.
func GetPaths() (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(exeDir, "data", "logs"), nil
}

// NewPaths lays out the directory tree under baseDir:
//
//	<base>/
//	  ├── data/
//	  │   ├── downloads/   (raw institutions feed)
//	  │   └── reports/     (cleaned snapshot and activity series)
//	  └── logs/
func NewPaths(baseDir, dataDir, logsDir string) *Paths {
	p := &Paths{BaseDir: baseDir}
	p.DataDir = p.resolve(dataDir)
	p.LogsDir = p.resolve(logsDir)
	p.DownloadsDir = filepath.Join(p.DataDir, "downloads")
	p.SetReportsDir(filepath.Join(p.DataDir, "reports"))
	return p
}

// SetReportsDir moves the reports directory and every report file with it.
// A relative dir is resolved against the base directory.
func (p *Paths) SetReportsDir(dir string) {
	p.ReportsDir = p.resolve(dir)
	p.InstitutionsCSV = filepath.Join(p.ReportsDir, "institutions.csv")
	p.InstitutionsParquet = filepath.Join(p.ReportsDir, "institutions.parquet")
	p.ActivityCSV = filepath.Join(p.ReportsDir, "activity.csv")
	p.ActivityParquet = filepath.Join(p.ReportsDir, "activity.parquet")
	p.ActivityXLSX = filepath.Join(p.ReportsDir, "activity.xlsx")
	p.BanksDB = filepath.Join(p.ReportsDir, "banks.db")
}

func (p *Paths) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// executableDir returns the directory holding the running binary with
// symlinks resolved.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.DownloadsDir,
		p.ReportsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetDownloadPath returns the path for a downloaded file
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("institutions_csv", p.InstitutionsCSV),
			slog.String("institutions_parquet", p.InstitutionsParquet),
			slog.String("activity_csv", p.ActivityCSV),
			slog.String("activity_parquet", p.ActivityParquet),
			slog.String("banks_db", p.BanksDB),
		),
		slog.String("labels_file", p.LabelsFile))
}

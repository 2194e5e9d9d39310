package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "fdicbanks/internal/errors"
	"fdicbanks/internal/files"
)

// FileValidator checks run preconditions on the feed and output locations
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// reject logs a failed precondition and returns it.
func (v *FileValidator) reject(err *apperrors.AppError, path string) error {
	attrs := []any{
		slog.String("path", path),
		slog.String("type", string(err.Type)),
	}
	if err.Cause != nil {
		attrs = append(attrs, slog.String("error", err.Cause.Error()))
	}
	v.logger.Error("Precondition failed: "+err.Message, attrs...)
	return err
}

// ValidateFile checks that path is a regular, non-empty, readable file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return v.reject(apperrors.NewNotFoundError("file "+path), path)
	case err != nil:
		return v.reject(apperrors.NewStorageError("cannot stat file", err), path)
	case info.IsDir():
		return v.reject(apperrors.NewAppValidationError("path is a directory"), path)
	case info.Size() == 0:
		return v.reject(apperrors.NewAppValidationError("file is empty"), path)
	}

	f, err := os.Open(path)
	if err != nil {
		return v.reject(apperrors.NewStorageError("file is not readable", err), path)
	}
	f.Close()

	v.logger.Debug("Feed file accepted",
		slog.String("path", path),
		slog.Int64("bytes", info.Size()))
	return nil
}

// ValidateFeedFile additionally requires a feed extension the table reader
// understands.
func (v *FileValidator) ValidateFeedFile(path string) error {
	if !files.IsFeedFile(filepath.Base(path)) {
		return v.reject(apperrors.NewAppValidationError(
			fmt.Sprintf("not a feed file, want one of %v", files.FeedExtensions)), path)
	}
	return v.ValidateFile(path)
}

// ValidateOutputDirectory creates dir when needed and probes that a file
// can be written into it.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return v.reject(apperrors.NewStorageError("cannot create output directory", err), dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return v.reject(apperrors.NewStorageError("output directory is not writable", err), dir)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory writable", slog.String("path", dir))
	return nil
}

package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fdicbanks/internal/errors"
	"fdicbanks/internal/shared/testutil"
)

func TestValidateFeedFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	good := write("institutions.csv", "CERT,NAME\n1,A\n")
	empty := write("empty.csv", "")
	wrongExt := write("institutions.json", "{}")
	lock := write("~$institutions.xlsx", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.csv"), 0755))

	tests := []struct {
		name    string
		path    string
		errType apperrors.ErrorType
	}{
		{"valid csv", good, ""},
		{"missing file", filepath.Join(dir, "missing.csv"), apperrors.ErrTypeNotFound},
		{"empty file", empty, apperrors.ErrTypeValidation},
		{"wrong extension", wrongExt, apperrors.ErrTypeValidation},
		{"editor lock file", lock, apperrors.ErrTypeValidation},
		{"directory", filepath.Join(dir, "folder.csv"), apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateFeedFile(tt.path)
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestValidateOutputDirectory(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)

	dir := filepath.Join(t.TempDir(), "reports", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe must be removed")
	testutil.AssertNoErrors(t, handler)
}

func TestValidateOutputDirectory_FileInTheWay(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	blocker := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewFileValidator(logger).ValidateOutputDirectory(filepath.Join(blocker, "out"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage), "got %v", err)
}

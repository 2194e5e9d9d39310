package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fdicbanks/internal/config"
	apperrors "fdicbanks/internal/errors"
	"fdicbanks/internal/files"
	"fdicbanks/internal/shared/testutil"
)

const body = "CERT,NAME\n101,First Prairie Bank\n"

func newTestFetcher(t *testing.T, url string, attempts int) (*Fetcher, *config.Paths, *testutil.BufferedSlogHandler) {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), "data", "logs")
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.FeedConfig{
		URL:      url,
		FileName: "institutions.csv",
		Attempts: attempts,
		Backoff:  time.Millisecond,
		Timeout:  5 * time.Second,
	}
	return NewFetcher(cfg, nil, files.NewManager(paths), nil, logger), paths, handler
}

func TestFetch_Success(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f, paths, handler := newTestFetcher(t, srv.URL, 3)
	path, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, paths.GetDownloadPath("institutions.csv"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(content))
	assert.True(t, strings.HasPrefix(userAgent, "fdic-banks-processor/"))
	assert.True(t, handler.ContainsMessage("Downloaded institutions feed"))
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f, _, handler := newTestFetcher(t, srv.URL, 3)
	_, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 2)
	assert.True(t, handler.ContainsMessage("Retrying feed download"))
}

func TestFetch_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f, paths, _ := newTestFetcher(t, srv.URL, 2)
	_, err := f.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork), "got %v", err)
	assert.ErrorContains(t, err, "unexpected status 429")
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, config.FileExists(paths.GetDownloadPath("institutions.csv")))
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f, _, _ := newTestFetcher(t, srv.URL, 5)
	_, err := f.Fetch(context.Background())

	assert.ErrorContains(t, err, "unexpected status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, _, _ := newTestFetcher(t, srv.URL, 3)
	f.cfg.Backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestStatusError(t *testing.T) {
	assert.True(t, (&statusError{code: 500}).retryable())
	assert.True(t, (&statusError{code: 429}).retryable())
	assert.False(t, (&statusError{code: 403}).retryable())
	assert.Equal(t, "unexpected status 404 Not Found", (&statusError{code: 404}).Error())
}

package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fdicbanks/internal/config"
	apperrors "fdicbanks/internal/errors"
	"fdicbanks/internal/files"
	"fdicbanks/internal/infrastructure"
	"fdicbanks/pkg/contracts"
)

// Fetcher downloads the institutions feed into the downloads directory
type Fetcher struct {
	cfg     config.FeedConfig
	client  *http.Client
	manager *files.Manager
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewFetcher creates a fetcher. A nil client uses one with cfg.Timeout; a
// nil metrics set records nothing.
func NewFetcher(cfg config.FeedConfig, client *http.Client, manager *files.Manager, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Fetcher{
		cfg:     cfg,
		client:  client,
		manager: manager,
		metrics: metrics,
		logger:  logger,
	}
}

// statusError is a non-2xx response
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

// retryable reports whether another attempt could succeed
func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Fetch downloads the feed and returns the path it was saved to. Attempt n
// is preceded by a wait of n-1 backoff periods. Transport failures, 429
// and 5xx responses are retried; other statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * f.cfg.Backoff
			f.logger.Info("Retrying feed download",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return "", err
			}
		}

		path, size, err := f.attempt(ctx)
		if err == nil {
			f.recordAttempt(ctx, "success")
			f.logger.Info("Downloaded institutions feed",
				slog.String("url", f.cfg.URL),
				slog.String("path", path),
				slog.Int64("size_bytes", size),
				slog.Int("attempt", attempt))
			return path, nil
		}

		lastErr = err
		f.recordAttempt(ctx, "failure")
		f.logger.Warn("Feed download failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", f.cfg.Attempts),
			slog.String("error", err.Error()))

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if se, ok := err.(*statusError); ok && !se.retryable() {
			break
		}
	}

	return "", apperrors.NewNetworkError(
		fmt.Sprintf("failed to download %s", f.cfg.URL), lastErr).
		WithContext("url", f.cfg.URL)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) attempt(ctx context.Context) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", contracts.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", 0, &statusError{code: resp.StatusCode}
	}

	return f.manager.SaveStream("downloads/"+f.cfg.FileName, resp.Body)
}

func (f *Fetcher) recordAttempt(ctx context.Context, outcome string) {
	if f.metrics == nil {
		return
	}
	f.metrics.FetchAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

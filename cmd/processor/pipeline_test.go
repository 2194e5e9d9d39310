package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"fdicbanks/internal/config"
	apperrors "fdicbanks/internal/errors"
	"fdicbanks/internal/exporter"
	"fdicbanks/internal/shared/testutil"
)

var runDate = time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T) (*pipeline, *config.Paths, *testutil.BufferedSlogHandler) {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Pipeline.OutputFormats = []string{"csv", "parquet", "xlsx"}

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger, handler := testutil.NewTestLogger(t)
	p := newPipeline(cfg, paths, noop.NewTracerProvider().Tracer("test"), nil, logger)
	p.now = func() time.Time { return runDate }
	return p, paths, handler
}

func writeScenarioFeed(t *testing.T, dir string) string {
	t.Helper()
	fx := testutil.NewFeedFixtures(dir)
	path, err := fx.CreateFeedCSV("institutions.csv", testutil.FeedHeader, fx.ScenarioRows())
	require.NoError(t, err)
	return path
}

func csvLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestPipeline_RunDiscoversNewestFeed(t *testing.T) {
	p, paths, handler := newTestPipeline(t)
	source := writeScenarioFeed(t, paths.DownloadsDir)

	summary, err := p.Run(context.Background(), runOptions{})
	require.NoError(t, err)

	assert.Equal(t, source, summary.Source)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 15, summary.Months)
	assert.Equal(t, map[string]int{"DATEUPDT": 1}, summary.Report.MissingDates)
	require.Len(t, summary.Outputs, 3)
	assert.True(t, handler.ContainsMessage("Using newest feed in downloads"))

	lines := csvLines(t, paths.ActivityCSV)
	require.Len(t, lines, 16)
	assert.Equal(t, "month,established_count,closed_count,net_active", lines[0])
	assert.Equal(t, "2020-01-01,0,0,0", lines[1])
	assert.Equal(t, "2021-01-01,2,1,1", lines[13])
	assert.Equal(t, "2021-03-01,3,1,2", lines[15])

	for _, path := range []string{paths.InstitutionsCSV, paths.InstitutionsParquet, paths.ActivityParquet, paths.ActivityXLSX} {
		assert.True(t, config.FileExists(path), path)
	}
}

func TestPipeline_RunExplicitXLSXInput(t *testing.T) {
	p, paths, _ := newTestPipeline(t)
	fx := testutil.NewFeedFixtures(t.TempDir())
	input, err := fx.CreateFeedXLSX("institutions.xlsx", testutil.FeedHeader, fx.ScenarioRows())
	require.NoError(t, err)

	summary, err := p.Run(context.Background(), runOptions{Input: input})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, "2021-01-01,2,1,1", csvLines(t, paths.ActivityCSV)[13])
}

func TestPipeline_RunFromSnapshot(t *testing.T) {
	p, paths, _ := newTestPipeline(t)
	writeScenarioFeed(t, paths.DownloadsDir)

	first, err := p.Run(context.Background(), runOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(paths.ActivityCSV))
	second, err := p.Run(context.Background(), runOptions{FromSnapshot: true})
	require.NoError(t, err)

	assert.Equal(t, paths.InstitutionsParquet, second.Source)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Months, second.Months)
	assert.Equal(t, "2021-01-01,2,1,1", csvLines(t, paths.ActivityCSV)[13])
}

func TestPipeline_RunFetch(t *testing.T) {
	fx := testutil.NewFeedFixtures("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testutil.FeedCSV(testutil.FeedHeader, fx.ScenarioRows())))
	}))
	defer srv.Close()

	p, paths, _ := newTestPipeline(t)
	p.cfg.Feed.URL = srv.URL

	summary, err := p.Run(context.Background(), runOptions{Fetch: true})
	require.NoError(t, err)
	assert.Equal(t, paths.GetDownloadPath("institutions.csv"), summary.Source)
	assert.Equal(t, 3, summary.Records)
}

func TestPipeline_RunErrors(t *testing.T) {
	t.Run("no feed in downloads", func(t *testing.T) {
		p, _, _ := newTestPipeline(t)
		_, err := p.Run(context.Background(), runOptions{})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound), "got %v", err)
	})

	t.Run("schema violation aborts before any output", func(t *testing.T) {
		p, paths, handler := newTestPipeline(t)
		fx := testutil.NewFeedFixtures(paths.DownloadsDir)
		rows := fx.ScenarioRows()
		rows[1]["BKCLASS"] = "ZZ"
		_, err := fx.CreateFeedCSV("institutions.csv", testutil.FeedHeader, rows)
		require.NoError(t, err)

		_, err = p.Run(context.Background(), runOptions{})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaViolation), "got %v", err)
		assert.ErrorContains(t, err, "clean: ")
		assert.False(t, config.FileExists(paths.ActivityCSV))
		assert.True(t, handler.ContainsMessage("Stage failed"))
	})

	t.Run("strict closure check", func(t *testing.T) {
		p, paths, _ := newTestPipeline(t)
		p.cfg.Pipeline.StrictClosureCheck = true
		fx := testutil.NewFeedFixtures(paths.DownloadsDir)
		rows := fx.ScenarioRows()
		rows[1]["ENDEFYMD"] = ""
		_, err := fx.CreateFeedCSV("institutions.csv", testutil.FeedHeader, rows)
		require.NoError(t, err)

		_, err = p.Run(context.Background(), runOptions{})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation), "got %v", err)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		p, _, _ := newTestPipeline(t)
		_, err := p.Run(context.Background(), runOptions{FromSnapshot: true})
		assert.ErrorContains(t, err, "load_snapshot")
	})

	t.Run("unsupported output format", func(t *testing.T) {
		p, paths, _ := newTestPipeline(t)
		writeScenarioFeed(t, paths.DownloadsDir)
		p.cfg.Pipeline.OutputFormats = []string{"json"}
		_, err := p.Run(context.Background(), runOptions{})
		assert.ErrorContains(t, err, "export: ")
	})
}

func TestPipeline_ScanStrategyMatchesSweep(t *testing.T) {
	sweep, sweepPaths, _ := newTestPipeline(t)
	writeScenarioFeed(t, sweepPaths.DownloadsDir)
	_, err := sweep.Run(context.Background(), runOptions{})
	require.NoError(t, err)

	scan, scanPaths, _ := newTestPipeline(t)
	scan.cfg.Pipeline.Strategy = "scan"
	writeScenarioFeed(t, scanPaths.DownloadsDir)
	_, err = scan.Run(context.Background(), runOptions{})
	require.NoError(t, err)

	assert.Equal(t, csvLines(t, sweepPaths.ActivityCSV), csvLines(t, scanPaths.ActivityCSV))
}

func TestPipeline_ReadsWrittenSnapshot(t *testing.T) {
	p, paths, _ := newTestPipeline(t)
	writeScenarioFeed(t, paths.DownloadsDir)
	_, err := p.Run(context.Background(), runOptions{})
	require.NoError(t, err)

	records, err := exporter.NewParquetSink(paths).ReadInstitutions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	certs := make([]int64, len(records))
	for i, r := range records {
		certs[i] = r.Cert
	}
	assert.Equal(t, []int64{101, 102, 103}, certs)
	assert.Equal(t, "Harbor Savings", records[1].Name)
	assert.True(t, records[1].Inactive.Bool)
	assert.False(t, records[2].LastUpdated.Valid)
	assert.InDelta(t, 1250.0, records[0].TotalAssets.Float64, 1e-9)

	lines := csvLines(t, paths.InstitutionsCSV)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "cert,"))
	for i, cert := range []string{"101", "102", "103"} {
		assert.True(t, strings.HasPrefix(lines[i+1], cert+","), lines[i+1])
	}
}

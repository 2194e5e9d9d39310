package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"fdicbanks/internal/config"
	"fdicbanks/internal/dataprocessing"
	"fdicbanks/internal/exporter"
	"fdicbanks/internal/feed"
	"fdicbanks/internal/files"
	"fdicbanks/internal/infrastructure"
	"fdicbanks/internal/validation"
	"fdicbanks/pkg/contracts/domain"
)

// runOptions are the per-run choices taken from the command line
type runOptions struct {
	// Input is the feed file; empty selects the newest feed in the
	// downloads directory.
	Input string
	// Fetch downloads the feed before processing.
	Fetch bool
	// FromSnapshot rebuilds the series from institutions.parquet instead of
	// the feed.
	FromSnapshot bool
}

// runSummary reports what a run produced
type runSummary struct {
	Source  string
	Report  domain.CleaningReport
	Records int
	Months  int
	Outputs []exporter.WriteResult
}

// pipeline wires the loader, series builder and sinks for one run
type pipeline struct {
	cfg     *config.Config
	paths   *config.Paths
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
	now     func() time.Time
}

func newPipeline(cfg *config.Config, paths *config.Paths, tracer trace.Tracer, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *pipeline {
	return &pipeline{
		cfg:     cfg,
		paths:   paths,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Run loads the institutions, builds the monthly series and writes every
// configured output.
func (p *pipeline) Run(ctx context.Context, opts runOptions) (*runSummary, error) {
	summary := &runSummary{}

	var records []domain.InstitutionRecord
	var err error
	if opts.FromSnapshot {
		summary.Source = p.paths.InstitutionsParquet
		err = p.stage(ctx, "load_snapshot", func(ctx context.Context) error {
			records, err = exporter.NewParquetSink(p.paths).ReadInstitutions(ctx)
			return err
		})
	} else {
		records, err = p.loadFeed(ctx, opts, summary)
	}
	if err != nil {
		return summary, err
	}
	summary.Records = len(records)

	strategy, err := dataprocessing.ParseStrategy(p.cfg.Pipeline.Strategy)
	if err != nil {
		return summary, err
	}
	builder := dataprocessing.NewSeriesBuilder(strategy, p.now,
		infrastructure.WithComponent(p.logger, "series"))

	var series domain.MonthlyActivitySeries
	err = p.stage(ctx, "build", func(ctx context.Context) error {
		series, err = builder.Build(records)
		if err == nil && p.metrics != nil {
			p.metrics.SeriesMonths.Record(ctx, int64(series.Len()))
		}
		return err
	})
	if err != nil {
		return summary, err
	}
	summary.Months = series.Len()

	err = p.stage(ctx, "export", func(ctx context.Context) error {
		summary.Outputs, err = p.export(ctx, records, series)
		return err
	})
	if err != nil {
		return summary, err
	}

	return summary, nil
}

func (p *pipeline) loadFeed(ctx context.Context, opts runOptions, summary *runSummary) ([]domain.InstitutionRecord, error) {
	path, err := p.resolveInput(ctx, opts)
	if err != nil {
		return nil, err
	}
	summary.Source = path

	if err := validation.NewFileValidator(p.logger).ValidateFeedFile(path); err != nil {
		return nil, err
	}

	var table *dataprocessing.RawTable
	err = p.stage(ctx, "read", func(ctx context.Context) error {
		table, err = dataprocessing.ReadTableWithEncoding(path, p.cfg.Pipeline.FeedEncoding)
		if err == nil {
			infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
				"feed.path":    path,
				"feed.rows":    table.Len(),
				"feed.columns": len(table.Header),
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	cleanerOpts, err := p.cleanerOptions()
	if err != nil {
		return nil, err
	}
	cleaner := dataprocessing.NewCleaner(cleanerOpts, infrastructure.WithComponent(p.logger, "cleaner"))

	var records []domain.InstitutionRecord
	err = p.stage(ctx, "clean", func(ctx context.Context) error {
		records, summary.Report, err = cleaner.Clean(ctx, table)
		p.metrics.RecordCleaning(ctx, summary.Report)
		return err
	})
	return records, err
}

// resolveInput picks the feed file: a fresh download, the -in flag, the
// configured input file, or the newest feed in the downloads directory.
func (p *pipeline) resolveInput(ctx context.Context, opts runOptions) (string, error) {
	switch {
	case opts.Fetch:
		fetcher := feed.NewFetcher(p.cfg.Feed, nil, files.NewManager(p.paths), p.metrics,
			infrastructure.WithComponent(p.logger, "fetcher"))
		var path string
		err := p.stage(ctx, "fetch", func(ctx context.Context) error {
			var err error
			path, err = fetcher.Fetch(ctx)
			return err
		})
		return path, err
	case opts.Input != "":
		return opts.Input, nil
	case p.cfg.Paths.InputFile != "":
		if filepath.IsAbs(p.cfg.Paths.InputFile) {
			return p.cfg.Paths.InputFile, nil
		}
		return filepath.Join(p.paths.BaseDir, p.cfg.Paths.InputFile), nil
	default:
		latest, err := files.NewDiscovery(p.paths.BaseDir).LatestFeed(p.paths.DownloadsDir)
		if err != nil {
			return "", err
		}
		p.logger.Info("Using newest feed in downloads",
			slog.String("file", latest.Name),
			slog.Time("modified", latest.ModTime))
		return latest.Path, nil
	}
}

func (p *pipeline) cleanerOptions() (dataprocessing.CleanerOptions, error) {
	labels, err := config.LoadLabels(p.paths.LabelsFile)
	if err != nil {
		return dataprocessing.CleanerOptions{}, err
	}
	return dataprocessing.CleanerOptions{
		Schema:             dataprocessing.DefaultSchema(),
		Labels:             labels,
		DateLayout:         p.cfg.Pipeline.DateLayout,
		StrictClosureCheck: p.cfg.Pipeline.StrictClosureCheck,
	}, nil
}

func (p *pipeline) export(ctx context.Context, records []domain.InstitutionRecord, series domain.MonthlyActivitySeries) ([]exporter.WriteResult, error) {
	if err := validation.NewFileValidator(p.logger).ValidateOutputDirectory(p.paths.ReportsDir); err != nil {
		return nil, err
	}

	logger := infrastructure.WithComponent(p.logger, "exporter")
	sinks, err := exporter.NewSinks(p.paths, p.cfg.Pipeline.OutputFormats, logger)
	if err != nil {
		return nil, err
	}

	results, err := exporter.NewExporter(sinks, logger).Export(ctx, records, series)
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		for _, r := range results {
			p.metrics.RecordsWritten.Add(ctx, int64(r.Institutions+r.Months),
				metric.WithAttributes(attribute.String("sink", r.Format)))
		}
	}
	return results, nil
}

// stage runs fn inside a span and records its duration and outcome
func (p *pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	p.metrics.RecordStage(ctx, name, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.logger.Error("Stage failed",
			slog.String("stage", name),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", name, err)
	}

	p.logger.Debug("Stage complete",
		slog.String("stage", name),
		slog.Duration("duration", duration))
	return nil
}

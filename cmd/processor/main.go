package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fdicbanks/internal/config"
	"fdicbanks/internal/infrastructure"
	"fdicbanks/pkg/contracts"
)

func main() {
	inFile := flag.String("in", "", "institutions feed (.csv or .xlsx); defaults to the newest feed in data/downloads")
	outDir := flag.String("out", "", "output directory for reports (defaults to data/reports relative to the base directory)")
	fetch := flag.Bool("fetch", false, "download the feed before processing")
	fromSnapshot := flag.Bool("from-snapshot", false, "rebuild the series from the last institutions.parquet instead of a feed")
	configFile := flag.String("config", "", "YAML config file (defaults to config.yaml next to the executable)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.Describe())
		return
	}

	if *fetch && *inFile != "" {
		fmt.Fprintln(os.Stderr, "-fetch and -in are mutually exclusive")
		os.Exit(2)
	}
	if *fromSnapshot && (*fetch || *inFile != "") {
		fmt.Fprintln(os.Stderr, "-from-snapshot cannot be combined with -fetch or -in")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runOptions{Input: *inFile, Fetch: *fetch, FromSnapshot: *fromSnapshot}
	if err := execute(ctx, *configFile, *outDir, opts); err != nil {
		fmt.Fprintf(os.Stderr, "processor: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// execute sets up configuration, logging and telemetry around one pipeline run
func execute(ctx context.Context, configFile, outDir string, opts runOptions) error {
	startTime := time.Now()

	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if outDir != "" {
		paths.SetReportsDir(outDir)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	logCfg := cfg.Logging
	logCfg.FilePath = cfg.LogFilePath(paths)
	if _, err := infrastructure.InitializeLogger(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.LoggerWithContext(ctx)

	logger.Info("Starting FDIC institutions processing",
		slog.String("version", contracts.Version),
		slog.String("input", opts.Input),
		slog.Bool("fetch", opts.Fetch),
		slog.Bool("from_snapshot", opts.FromSnapshot),
		slog.String("strategy", cfg.Pipeline.Strategy),
		slog.Any("formats", cfg.Pipeline.OutputFormats))
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry, contracts.Version, paths.GetLogPath(cfg.Telemetry.TraceFile))
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	runtimeMetrics, err := infrastructure.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	ctx, span := providers.Tracer.Start(ctx, "process")
	summary, runErr := newPipeline(cfg, paths, providers.Tracer, metrics, logger).Run(ctx, opts)
	if runErr != nil {
		infrastructure.RecordError(ctx, runErr)
	}
	span.End()

	runtimeMetrics.Collect(ctx, startTime, logger)
	if cfg.Telemetry.EnableMetrics {
		metricsPath := paths.GetLogPath(cfg.Telemetry.MetricsFile)
		if err := providers.WriteMetrics(metricsPath); err != nil {
			logger.Warn("Failed to write metrics textfile",
				slog.String("path", metricsPath),
				slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		logger.Error("Processing failed",
			slog.String("source", summary.Source),
			slog.String("error", runErr.Error()))
		return runErr
	}

	formats := make([]string, 0, len(summary.Outputs))
	for _, o := range summary.Outputs {
		formats = append(formats, o.Format)
	}
	logger.Info("Processing complete",
		slog.String("source", summary.Source),
		slog.Int("records", summary.Records),
		slog.Int("months", summary.Months),
		slog.Int("missing_dates", summary.Report.TotalMissingDates()),
		slog.Int("inactive_without_closure", len(summary.Report.InactiveWithoutClosure)),
		slog.Any("outputs", formats),
		slog.String("reports_dir", paths.ReportsDir),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}

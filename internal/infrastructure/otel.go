package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"fdicbanks/internal/config"
	"fdicbanks/pkg/contracts/domain"
)

const (
	ServiceName = "fdic-banks-processor"
	MeterName   = "fdicbanks"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	// TraceFile receives the stdout exporter's spans; empty means stdout.
	TraceFile     string
	EnableMetrics bool
	SampleRatio   float64
}

// OTelProviders holds the OpenTelemetry providers for one run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry gathers the metrics exported through the Prometheus bridge.
	Registry *prometheus.Registry
	Logger   *slog.Logger

	traceOut io.Closer
}

// DefaultOTelConfig returns tracing off and metrics on.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "dev",
		Environment:    env,
		TraceExporter:  "none",
		EnableMetrics:  true,
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the config. traceFile is the
// resolved path of the span file.
func OTelConfigFrom(cfg config.TelemetryConfig, version, traceFile string) *OTelConfig {
	c := DefaultOTelConfig()
	c.ServiceVersion = version
	c.TraceExporter = cfg.TraceExporter
	c.TraceFile = traceFile
	c.EnableMetrics = cfg.EnableMetrics
	return c
}

// InitializeOTel sets up tracing and metrics. Disabled signals fall back to
// no-op implementations so callers never check for nil.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer: otel.Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.DebugContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var out io.Writer = os.Stdout

	switch cfg.TraceExporter {
	case "stdout":
		if cfg.TraceFile != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
				return fmt.Errorf("failed to create trace directory: %w", err)
			}
			f, err := os.Create(cfg.TraceFile)
			if err != nil {
				return fmt.Errorf("failed to create trace file: %w", err)
			}
			providers.traceOut = f
			out = f
		}
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.String("file", cfg.TraceFile))

	return nil
}

// initializeMetrics bridges OTel instruments into a private Prometheus
// registry that is written out as a textfile at the end of the run.
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// WriteMetrics writes the gathered metrics in the node-exporter textfile
// format. It is a no-op when metrics are disabled.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p.Registry == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and shuts down the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceOut != nil {
		if err := p.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
	}

	return errors.Join(errs...)
}

// PipelineMetrics holds the processor's instruments
type PipelineMetrics struct {
	RowsRead               metric.Int64Counter
	RecordsCleaned         metric.Int64Counter
	MissingDates           metric.Int64Counter
	InactiveWithoutClosure metric.Int64Counter
	SeriesMonths           metric.Int64Gauge
	RecordsWritten         metric.Int64Counter
	FetchAttempts          metric.Int64Counter
	StageDuration          metric.Float64Histogram
	StageErrors            metric.Int64Counter
}

// CreatePipelineMetrics creates the processor's instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RowsRead, "banks_feed_rows_read", "Rows read from the institutions feed"},
		{&m.RecordsCleaned, "banks_records_cleaned", "Institution records produced by the cleaner"},
		{&m.MissingDates, "banks_missing_dates", "Unparseable dates set to missing, by column"},
		{&m.InactiveWithoutClosure, "banks_inactive_without_closure", "Inactive institutions lacking a closure date"},
		{&m.RecordsWritten, "banks_rows_written", "Rows written, by sink"},
		{&m.FetchAttempts, "banks_feed_fetch_attempts", "Feed download attempts, by outcome"},
		{&m.StageErrors, "banks_stage_errors", "Pipeline stage failures, by stage"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	if m.SeriesMonths, err = meter.Int64Gauge(
		"banks_series_months",
		metric.WithDescription("Months in the activity series"),
	); err != nil {
		return nil, err
	}

	if m.StageDuration, err = meter.Float64Histogram(
		"banks_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordStage records one stage's duration and, on failure, an error.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
		m.StageErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordCleaning records the data-quality signals of a cleaning report.
func (m *PipelineMetrics) RecordCleaning(ctx context.Context, report domain.CleaningReport) {
	if m == nil {
		return
	}

	m.RowsRead.Add(ctx, int64(report.RowsRead))
	m.RecordsCleaned.Add(ctx, int64(report.RecordsCleaned))
	m.InactiveWithoutClosure.Add(ctx, int64(len(report.InactiveWithoutClosure)))
	for column, n := range report.MissingDates {
		m.MissingDates.Add(ctx, int64(n), metric.WithAttributes(attribute.String("column", column)))
	}
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OTel trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}

package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fdicbanks/internal/config"
	"fdicbanks/pkg/contracts/domain"
)

// Sink persists the cleaned snapshot and the activity series in one format.
// A sink that does not carry one of the two returns zero for it.
type Sink interface {
	Format() string
	WriteInstitutions(ctx context.Context, records []domain.InstitutionRecord) (int, error)
	WriteActivity(ctx context.Context, series domain.MonthlyActivitySeries) (int, error)
}

// CSVSink writes institutions.csv and activity.csv
type CSVSink struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewCSVSink creates a CSV sink rooted at the reports directory
func NewCSVSink(paths *config.Paths) *CSVSink {
	return &CSVSink{csvWriter: NewCSVWriter(paths), paths: paths}
}

// Format implements Sink
func (s *CSVSink) Format() string { return "csv" }

// WriteInstitutions streams the snapshot to institutions.csv
func (s *CSVSink) WriteInstitutions(ctx context.Context, records []domain.InstitutionRecord) (int, error) {
	stream, err := s.csvWriter.CreateStreamWriter(s.paths.InstitutionsCSV, InstitutionHeaders)
	if err != nil {
		return 0, err
	}

	for i, r := range records {
		if i%5000 == 0 {
			if err := ctx.Err(); err != nil {
				stream.Close()
				return stream.Rows(), err
			}
		}
		if err := stream.WriteRecord(institutionToCSVRow(r)); err != nil {
			stream.Close()
			return stream.Rows(), fmt.Errorf("failed to write cert %d: %w", r.Cert, err)
		}
	}
	return stream.Rows(), stream.Close()
}

// WriteActivity writes the series to activity.csv
func (s *CSVSink) WriteActivity(ctx context.Context, series domain.MonthlyActivitySeries) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	rows := make([][]string, 0, series.Len())
	for _, p := range series.Points() {
		rows = append(rows, activityToCSVRow(p))
	}
	err := s.csvWriter.WriteCSV(s.paths.ActivityCSV, WriteOptions{
		Headers:   ActivityHeaders,
		Records:   rows,
		BOMPrefix: true,
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// NewSinks builds one sink per configured output format
func NewSinks(paths *config.Paths, formats []string, logger *slog.Logger) ([]Sink, error) {
	sinks := make([]Sink, 0, len(formats))
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		switch f {
		case "csv":
			sinks = append(sinks, NewCSVSink(paths))
		case "parquet":
			sinks = append(sinks, NewParquetSink(paths))
		case "xlsx":
			sinks = append(sinks, NewXLSXSink(paths))
		case "sqlite":
			sinks = append(sinks, NewSQLiteSink(paths))
		default:
			return nil, fmt.Errorf("unsupported output format %q", f)
		}
	}
	logger.Debug("Configured output sinks", slog.Any("formats", formats))
	return sinks, nil
}

// WriteResult reports what one sink wrote
type WriteResult struct {
	Format       string
	Institutions int
	Months       int
	Duration     time.Duration
}

// Exporter fans the run's outputs out to every sink in parallel
type Exporter struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewExporter creates an exporter over sinks
func NewExporter(sinks []Sink, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{sinks: sinks, logger: logger}
}

// Export writes records and series to every sink. The first failure
// cancels the remaining sinks and is returned.
func (e *Exporter) Export(ctx context.Context, records []domain.InstitutionRecord, series domain.MonthlyActivitySeries) ([]WriteResult, error) {
	results := make([]WriteResult, len(e.sinks))
	g, ctx := errgroup.WithContext(ctx)

	for i, sink := range e.sinks {
		g.Go(func() error {
			start := time.Now()
			res := WriteResult{Format: sink.Format()}

			n, err := sink.WriteInstitutions(ctx, records)
			if err != nil {
				return fmt.Errorf("%s sink: institutions: %w", sink.Format(), err)
			}
			res.Institutions = n

			if n, err = sink.WriteActivity(ctx, series); err != nil {
				return fmt.Errorf("%s sink: activity: %w", sink.Format(), err)
			}
			res.Months = n
			res.Duration = time.Since(start)
			results[i] = res

			e.logger.Info("Sink written",
				slog.String("format", res.Format),
				slog.Int("institutions", res.Institutions),
				slog.Int("months", res.Months),
				slog.Duration("duration", res.Duration))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

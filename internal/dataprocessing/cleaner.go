package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fdicbanks/internal/config"
	apperrors "fdicbanks/internal/errors"
	"fdicbanks/pkg/contracts/domain"
)

// CleanerOptions configures the loader.
type CleanerOptions struct {
	// Schema pins every known column to a kind.
	Schema Schema

	// Labels holds the closed-vocabulary dictionaries.
	Labels *config.LabelTable

	// DateLayout is the Go layout of date cells in the feed.
	DateLayout string

	// StrictClosureCheck turns an inactive record without a closure date
	// into a validation error instead of a reported warning.
	StrictClosureCheck bool
}

// DefaultCleanerOptions returns options for the FDIC institutions feed.
func DefaultCleanerOptions() (CleanerOptions, error) {
	labels, err := config.DefaultLabels()
	if err != nil {
		return CleanerOptions{}, err
	}
	return CleanerOptions{
		Schema:     DefaultSchema(),
		Labels:     labels,
		DateLayout: "01/02/2006",
	}, nil
}

// Cleaner turns the raw institutions table into typed records.
type Cleaner struct {
	opts   CleanerOptions
	logger *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to slog.Default.
func NewCleaner(opts CleanerOptions, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "01/02/2006"
	}
	return &Cleaner{opts: opts, logger: logger}
}

// boundColumn is a transform together with the table position it reads.
type boundColumn struct {
	index     int
	transform ColumnTransform
}

// Clean parses every row of table through the schema. Any fatal data
// quality error aborts the load and no records are returned.
func (c *Cleaner) Clean(ctx context.Context, table *RawTable) ([]domain.InstitutionRecord, domain.CleaningReport, error) {
	report := domain.CleaningReport{
		RowsRead:     table.Len(),
		MissingDates: make(map[string]int),
	}

	if err := c.checkRequired(table); err != nil {
		return nil, report, err
	}

	columns, certIndex, err := c.bind(table, &report)
	if err != nil {
		return nil, report, err
	}

	_, hasRegion := table.ColumnIndex(ColumnFDICRegion)
	_, hasOffice := table.ColumnIndex(ColumnFDICOffice)
	verifyOffice := hasRegion && hasOffice

	records := make([]domain.InstitutionRecord, 0, table.Len())
	for i, row := range table.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
		}

		cert, err := parseCert(row[certIndex])
		if err != nil {
			return nil, report, apperrors.NewParsingError(
				fmt.Sprintf("row %d: invalid %s %q", i+1, ColumnCert, row[certIndex]), err)
		}

		rowCtx := RowContext{Line: i + 1, Cert: cert}
		rec := WorkingRecord{InstitutionRecord: domain.InstitutionRecord{Cert: cert}}
		for _, col := range columns {
			err := col.transform.Apply(row[col.index], rowCtx, &rec)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrMissingDate) {
				report.MissingDates[col.transform.Column()]++
				continue
			}
			return nil, report, err
		}

		if verifyOffice {
			if err := verifyRedundant(rec); err != nil {
				return nil, report, err
			}
		}

		if rec.MissingClosure() {
			report.InactiveWithoutClosure = append(report.InactiveWithoutClosure, rec.Cert)
		}

		records = append(records, rec.InstitutionRecord)
	}

	report.RecordsCleaned = len(records)

	if verifyOffice {
		c.logger.Debug("Dropped redundant column",
			slog.String("column", ColumnFDICOffice),
			slog.String("kept", ColumnFDICRegion))
	}
	if total := report.TotalMissingDates(); total > 0 {
		c.logger.Warn("Unparseable dates set to missing",
			slog.Int("count", total),
			slog.Any("by_column", report.MissingDates))
	}
	if err := c.checkClosures(report); err != nil {
		return nil, report, err
	}

	c.logger.Info("Cleaned institutions table",
		slog.Int("rows_read", report.RowsRead),
		slog.Int("records", report.RecordsCleaned),
		slog.Int("ignored_columns", len(report.IgnoredColumns)))

	return records, report, nil
}

func (c *Cleaner) checkRequired(table *RawTable) error {
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := table.ColumnIndex(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("feed is missing required columns: %s", strings.Join(missing, ", "))).
			WithContext("columns", missing)
	}
	return nil
}

// bind builds one transform per header column known to the schema.
func (c *Cleaner) bind(table *RawTable, report *domain.CleaningReport) ([]boundColumn, int, error) {
	pool := newCategoryPool()
	columns := make([]boundColumn, 0, len(table.Header))
	certIndex := -1

	for i, name := range table.Header {
		if idx, _ := table.ColumnIndex(name); idx != i {
			c.logger.Warn("Duplicate feed column ignored", slog.String("column", name))
			continue
		}
		if name == ColumnCert {
			certIndex = i
			continue
		}
		spec, ok := c.opts.Schema.Lookup(name)
		if !ok {
			c.logger.Debug("Ignoring column outside schema", slog.String("column", name))
			report.IgnoredColumns = append(report.IgnoredColumns, name)
			continue
		}
		t, err := newTransform(spec, c.opts.Labels, c.opts.DateLayout, pool)
		if err != nil {
			return nil, -1, err
		}
		columns = append(columns, boundColumn{index: i, transform: t})
	}

	return columns, certIndex, nil
}

// parseCert reads the certificate number; it identifies the row in every
// error so it must parse.
func parseCert(raw string) (int64, error) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if v == "" {
		return 0, fmt.Errorf("empty certificate number")
	}
	n, err := parseInt(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("certificate number must be positive: %s", strconv.FormatInt(n, 10))
	}
	return n, nil
}

// verifyRedundant checks that the recoded region and office columns agree.
func verifyRedundant(rec WorkingRecord) error {
	if rec.FDICRegion == rec.FDICOffice {
		return nil
	}
	return apperrors.NewRedundancyMismatch(rec.Cert,
		ColumnFDICRegion, labelOrBlank(rec.FDICRegion.String, rec.FDICRegion.Valid),
		ColumnFDICOffice, labelOrBlank(rec.FDICOffice.String, rec.FDICOffice.Valid))
}

func labelOrBlank(s string, valid bool) string {
	if !valid {
		return "<missing>"
	}
	return s
}

func (c *Cleaner) checkClosures(report domain.CleaningReport) error {
	n := len(report.InactiveWithoutClosure)
	if n == 0 {
		return nil
	}
	if c.opts.StrictClosureCheck {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%d inactive institutions have no closure date", n)).
			WithContext("certs", report.InactiveWithoutClosure)
	}
	c.logger.Warn("Inactive institutions without closure date",
		slog.Int("count", n),
		slog.Any("certs", sample(report.InactiveWithoutClosure, 10)))
	return nil
}

func sample(certs []int64, n int) []int64 {
	if len(certs) <= n {
		return certs
	}
	return certs[:n]
}

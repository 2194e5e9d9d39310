package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"fdicbanks/internal/config"
	"fdicbanks/pkg/contracts/domain"
)

const (
	institutionsTable = "institutions"
	activityTable     = "activity"
)

// SQLiteSink writes both outputs as tables of one SQLite database. Each run
// replaces the tables inside a transaction.
type SQLiteSink struct {
	paths *config.Paths
}

// NewSQLiteSink creates a sink writing to the reports database
func NewSQLiteSink(paths *config.Paths) *SQLiteSink {
	return &SQLiteSink{paths: paths}
}

// Format implements Sink
func (s *SQLiteSink) Format() string { return "sqlite" }

// WriteInstitutions replaces the institutions table
func (s *SQLiteSink) WriteInstitutions(ctx context.Context, records []domain.InstitutionRecord) (int, error) {
	return s.replaceTable(ctx, institutionsTable, InstitutionHeaders, institutionColumnType, len(records),
		func(i int) []any { return institutionToSQLArgs(records[i]) },
		"CREATE INDEX idx_institutions_cert ON institutions (cert)",
		"CREATE INDEX idx_institutions_established ON institutions (established)")
}

// WriteActivity replaces the activity table
func (s *SQLiteSink) WriteActivity(ctx context.Context, series domain.MonthlyActivitySeries) (int, error) {
	points := series.Points()
	return s.replaceTable(ctx, activityTable, ActivityHeaders, activityColumnType, len(points),
		func(i int) []any {
			p := points[i]
			return []any{p.Month.Format(DateLayout), p.Established, p.Closed, p.NetActive}
		})
}

func (s *SQLiteSink) replaceTable(ctx context.Context, table string, columns []string, columnType func(string) string,
	n int, row func(int) []any, indexes ...string) (int, error) {
	db, err := sql.Open("sqlite3", s.paths.BanksDB)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c + " " + columnType(c)
	}
	stmts := append([]string{
		"DROP TABLE IF EXISTS " + table,
		fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", ")),
	}, indexes...)
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("failed to prepare table %s: %w", table, err)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insert, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insert.Close()

	for i := 0; i < n; i++ {
		if _, err := insert.ExecContext(ctx, row(i)...); err != nil {
			return 0, fmt.Errorf("failed to insert %s row %d: %w", table, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return n, nil
}

var institutionIntegerColumns = map[string]bool{
	"cert": true, "fed_rssd": true,
	"active": true, "inactive": true, "conservatorship": true, "de_novo": true, "federal_charter": true,
	"insured_fdic": true, "insured_bif": true, "insured_saif": true, "insured_commercial": true, "insured_savings": true,
}

func institutionColumnType(column string) string {
	switch {
	case column == "cert":
		return "INTEGER NOT NULL"
	case institutionIntegerColumns[column]:
		return "INTEGER"
	case column == "total_assets" || column == "total_deposits":
		return "REAL"
	default:
		return "TEXT"
	}
}

func activityColumnType(column string) string {
	switch column {
	case "month":
		return "TEXT NOT NULL"
	case "net_active":
		return "REAL"
	default:
		return "INTEGER NOT NULL"
	}
}

// institutionToSQLArgs converts a record to insert arguments matching
// InstitutionHeaders. Dates are stored as ISO text.
func institutionToSQLArgs(r domain.InstitutionRecord) []any {
	return []any{
		r.Cert, r.FedRSSD, r.Name, r.Address, r.Zip,
		r.StateName, r.StateAlpha, r.City, r.County, r.CBSA, r.MSA, r.CSA,
		r.CharterAgent, r.RegulatoryAgent, r.FDICSupervisor,
		r.Active, r.Inactive, r.Conservatorship, r.DeNovo, r.FederalCharter,
		r.InsuredFDIC, r.InsuredBIF, r.InsuredSAIF, r.InsuredCommercial, r.InsuredSavings,
		r.BankClass, r.FedDistrict, r.FDICRegion, r.OTSDistrict,
		nullDateText(r.Established), nullDateText(r.Closed), nullDateText(r.LastUpdated),
		nullDateText(r.Insured), nullDateText(r.Effective), nullDateText(r.Processed),
		r.ChangeCodes[0], r.ChangeCodes[1], r.ChangeCodes[2], r.ChangeCodes[3], r.ChangeCodes[4],
		r.CFPBEffDate, r.CFPBEndDate,
		r.TotalAssets, r.TotalDeposits,
	}
}

func nullDateText(t sql.NullTime) sql.NullString {
	if !t.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Time.Format(DateLayout), Valid: true}
}

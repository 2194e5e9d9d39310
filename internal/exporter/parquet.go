package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"fdicbanks/internal/config"
	"fdicbanks/pkg/contracts/domain"
)

// parquetParallelism is the number of goroutines parquet-go uses per file.
const parquetParallelism = 4

// institutionRow is the Parquet layout of the institutions snapshot. Dates
// are days since the Unix epoch; open-vocabulary columns are dictionary
// encoded.
type institutionRow struct {
	Cert    int64  `parquet:"name=cert, type=INT64"`
	FedRSSD *int64 `parquet:"name=fed_rssd, type=INT64, repetitiontype=OPTIONAL"`
	Name    string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Address string `parquet:"name=address, type=BYTE_ARRAY, convertedtype=UTF8"`
	Zip     string `parquet:"name=zip, type=BYTE_ARRAY, convertedtype=UTF8"`

	StateName       string `parquet:"name=state_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StateAlpha      string `parquet:"name=state_alpha, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	City            string `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	County          string `parquet:"name=county, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CBSA            string `parquet:"name=cbsa, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MSA             string `parquet:"name=msa, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CSA             string `parquet:"name=csa, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CharterAgent    string `parquet:"name=charter_agent, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RegulatoryAgent string `parquet:"name=regulatory_agent, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FDICSupervisor  string `parquet:"name=fdic_supervisor, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`

	Active            *bool `parquet:"name=active, type=BOOLEAN, repetitiontype=OPTIONAL"`
	Inactive          *bool `parquet:"name=inactive, type=BOOLEAN, repetitiontype=OPTIONAL"`
	Conservatorship   *bool `parquet:"name=conservatorship, type=BOOLEAN, repetitiontype=OPTIONAL"`
	DeNovo            *bool `parquet:"name=de_novo, type=BOOLEAN, repetitiontype=OPTIONAL"`
	FederalCharter    *bool `parquet:"name=federal_charter, type=BOOLEAN, repetitiontype=OPTIONAL"`
	InsuredFDIC       *bool `parquet:"name=insured_fdic, type=BOOLEAN, repetitiontype=OPTIONAL"`
	InsuredBIF        *bool `parquet:"name=insured_bif, type=BOOLEAN, repetitiontype=OPTIONAL"`
	InsuredSAIF       *bool `parquet:"name=insured_saif, type=BOOLEAN, repetitiontype=OPTIONAL"`
	InsuredCommercial *bool `parquet:"name=insured_commercial, type=BOOLEAN, repetitiontype=OPTIONAL"`
	InsuredSavings    *bool `parquet:"name=insured_savings, type=BOOLEAN, repetitiontype=OPTIONAL"`

	BankClass   *string `parquet:"name=bank_class, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	FedDistrict *string `parquet:"name=fed_district, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	FDICRegion  *string `parquet:"name=fdic_region, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	OTSDistrict *string `parquet:"name=ots_district, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`

	Established *int32 `parquet:"name=established, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	Closed      *int32 `parquet:"name=closed, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	LastUpdated *int32 `parquet:"name=last_updated, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	Insured     *int32 `parquet:"name=insured, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	Effective   *int32 `parquet:"name=effective, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	Processed   *int32 `parquet:"name=processed, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`

	ChangeCode1 string `parquet:"name=change_code_1, type=BYTE_ARRAY, convertedtype=UTF8"`
	ChangeCode2 string `parquet:"name=change_code_2, type=BYTE_ARRAY, convertedtype=UTF8"`
	ChangeCode3 string `parquet:"name=change_code_3, type=BYTE_ARRAY, convertedtype=UTF8"`
	ChangeCode4 string `parquet:"name=change_code_4, type=BYTE_ARRAY, convertedtype=UTF8"`
	ChangeCode5 string `parquet:"name=change_code_5, type=BYTE_ARRAY, convertedtype=UTF8"`
	CFPBEffDate string `parquet:"name=cfpb_effective_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	CFPBEndDate string `parquet:"name=cfpb_end_date, type=BYTE_ARRAY, convertedtype=UTF8"`

	TotalAssets   *float64 `parquet:"name=total_assets, type=DOUBLE, repetitiontype=OPTIONAL"`
	TotalDeposits *float64 `parquet:"name=total_deposits, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// activityRow is the Parquet layout of one month of the series.
type activityRow struct {
	Month       int64   `parquet:"name=month, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Established int64   `parquet:"name=established_count, type=INT64"`
	Closed      int64   `parquet:"name=closed_count, type=INT64"`
	NetActive   float64 `parquet:"name=net_active, type=DOUBLE"`
}

// ParquetSink writes and reads the Snappy-compressed Parquet outputs
type ParquetSink struct {
	paths *config.Paths
}

// NewParquetSink creates a Parquet sink rooted at the reports directory
func NewParquetSink(paths *config.Paths) *ParquetSink {
	return &ParquetSink{paths: paths}
}

// Format implements Sink
func (s *ParquetSink) Format() string { return "parquet" }

// WriteInstitutions writes institutions.parquet
func (s *ParquetSink) WriteInstitutions(ctx context.Context, records []domain.InstitutionRecord) (int, error) {
	rows := make([]interface{}, len(records))
	for i, r := range records {
		rows[i] = toInstitutionRow(r)
	}
	if err := writeParquet(ctx, s.paths.InstitutionsParquet, new(institutionRow), rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WriteActivity writes activity.parquet
func (s *ParquetSink) WriteActivity(ctx context.Context, series domain.MonthlyActivitySeries) (int, error) {
	points := series.Points()
	rows := make([]interface{}, len(points))
	for i, p := range points {
		rows[i] = activityRow{
			Month:       p.Month.UnixMilli(),
			Established: int64(p.Established),
			Closed:      int64(p.Closed),
			NetActive:   p.NetActive,
		}
	}
	if err := writeParquet(ctx, s.paths.ActivityParquet, new(activityRow), rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ReadInstitutions loads a snapshot previously written by WriteInstitutions
func (s *ParquetSink) ReadInstitutions(ctx context.Context) ([]domain.InstitutionRecord, error) {
	var rows []institutionRow
	if err := readParquet(ctx, s.paths.InstitutionsParquet, new(institutionRow), &rows); err != nil {
		return nil, err
	}
	records := make([]domain.InstitutionRecord, len(rows))
	for i, row := range rows {
		records[i] = fromInstitutionRow(row)
	}
	return records, nil
}

// ReadActivity loads a series previously written by WriteActivity
func (s *ParquetSink) ReadActivity(ctx context.Context) (domain.MonthlyActivitySeries, error) {
	var rows []activityRow
	if err := readParquet(ctx, s.paths.ActivityParquet, new(activityRow), &rows); err != nil {
		return domain.MonthlyActivitySeries{}, err
	}
	months := make([]time.Time, len(rows))
	established := make([]int, len(rows))
	closed := make([]int, len(rows))
	for i, row := range rows {
		months[i] = time.UnixMilli(row.Month).UTC()
		established[i] = int(row.Established)
		closed[i] = int(row.Closed)
	}
	return domain.NewMonthlyActivitySeries(months, established, closed)
}

// writeParquet writes rows to a temporary file next to path and renames it
// into place once the footer is written, so an interrupted run leaves the
// previous file intact.
func writeParquet(ctx context.Context, path string, schema interface{}, rows []interface{}) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	fw, err := local.NewLocalFileWriter(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range rows {
		if i%5000 == 0 {
			if err := ctx.Err(); err != nil {
				pw.WriteStop()
				fw.Close()
				return err
			}
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("failed to write parquet row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move parquet file into place: %w", err)
	}
	return nil
}

func readParquet(ctx context.Context, path string, schema interface{}, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, schema, parquetParallelism)
	if err != nil {
		return fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	switch rows := dst.(type) {
	case *[]institutionRow:
		*rows = make([]institutionRow, n)
	case *[]activityRow:
		*rows = make([]activityRow, n)
	default:
		return fmt.Errorf("unsupported parquet row type %T", dst)
	}

	if n == 0 {
		return nil
	}
	if err := pr.Read(dst); err != nil {
		return fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return nil
}

const secondsPerDay = 24 * 60 * 60

// toDays converts a date to days since 1970-01-01, flooring partial days.
// time.Duration overflows before 9999-12-31, so whole Unix seconds are used.
func toDays(t sql.NullTime) *int32 {
	if !t.Valid {
		return nil
	}
	secs := t.Time.UTC().Unix()
	d := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		d--
	}
	days := int32(d)
	return &days
}

func fromDays(d *int32) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: time.Unix(int64(*d)*secondsPerDay, 0).UTC(), Valid: true}
}

func toInstitutionRow(r domain.InstitutionRecord) institutionRow {
	return institutionRow{
		Cert:              r.Cert,
		FedRSSD:           optional(r.FedRSSD.Int64, r.FedRSSD.Valid),
		Name:              r.Name,
		Address:           r.Address,
		Zip:               r.Zip,
		StateName:         r.StateName,
		StateAlpha:        r.StateAlpha,
		City:              r.City,
		County:            r.County,
		CBSA:              r.CBSA,
		MSA:               r.MSA,
		CSA:               r.CSA,
		CharterAgent:      r.CharterAgent,
		RegulatoryAgent:   r.RegulatoryAgent,
		FDICSupervisor:    r.FDICSupervisor,
		Active:            optional(r.Active.Bool, r.Active.Valid),
		Inactive:          optional(r.Inactive.Bool, r.Inactive.Valid),
		Conservatorship:   optional(r.Conservatorship.Bool, r.Conservatorship.Valid),
		DeNovo:            optional(r.DeNovo.Bool, r.DeNovo.Valid),
		FederalCharter:    optional(r.FederalCharter.Bool, r.FederalCharter.Valid),
		InsuredFDIC:       optional(r.InsuredFDIC.Bool, r.InsuredFDIC.Valid),
		InsuredBIF:        optional(r.InsuredBIF.Bool, r.InsuredBIF.Valid),
		InsuredSAIF:       optional(r.InsuredSAIF.Bool, r.InsuredSAIF.Valid),
		InsuredCommercial: optional(r.InsuredCommercial.Bool, r.InsuredCommercial.Valid),
		InsuredSavings:    optional(r.InsuredSavings.Bool, r.InsuredSavings.Valid),
		BankClass:         optional(r.BankClass.String, r.BankClass.Valid),
		FedDistrict:       optional(r.FedDistrict.String, r.FedDistrict.Valid),
		FDICRegion:        optional(r.FDICRegion.String, r.FDICRegion.Valid),
		OTSDistrict:       optional(r.OTSDistrict.String, r.OTSDistrict.Valid),
		Established:       toDays(r.Established),
		Closed:            toDays(r.Closed),
		LastUpdated:       toDays(r.LastUpdated),
		Insured:           toDays(r.Insured),
		Effective:         toDays(r.Effective),
		Processed:         toDays(r.Processed),
		ChangeCode1:       r.ChangeCodes[0],
		ChangeCode2:       r.ChangeCodes[1],
		ChangeCode3:       r.ChangeCodes[2],
		ChangeCode4:       r.ChangeCodes[3],
		ChangeCode5:       r.ChangeCodes[4],
		CFPBEffDate:       r.CFPBEffDate,
		CFPBEndDate:       r.CFPBEndDate,
		TotalAssets:       optional(r.TotalAssets.Float64, r.TotalAssets.Valid),
		TotalDeposits:     optional(r.TotalDeposits.Float64, r.TotalDeposits.Valid),
	}
}

func fromInstitutionRow(row institutionRow) domain.InstitutionRecord {
	r := domain.InstitutionRecord{
		Cert:            row.Cert,
		Name:            row.Name,
		Address:         row.Address,
		Zip:             row.Zip,
		StateName:       row.StateName,
		StateAlpha:      row.StateAlpha,
		City:            row.City,
		County:          row.County,
		CBSA:            row.CBSA,
		MSA:             row.MSA,
		CSA:             row.CSA,
		CharterAgent:    row.CharterAgent,
		RegulatoryAgent: row.RegulatoryAgent,
		FDICSupervisor:  row.FDICSupervisor,
		Established:     fromDays(row.Established),
		Closed:          fromDays(row.Closed),
		LastUpdated:     fromDays(row.LastUpdated),
		Insured:         fromDays(row.Insured),
		Effective:       fromDays(row.Effective),
		Processed:       fromDays(row.Processed),
		ChangeCodes: [5]string{
			row.ChangeCode1, row.ChangeCode2, row.ChangeCode3, row.ChangeCode4, row.ChangeCode5,
		},
		CFPBEffDate: row.CFPBEffDate,
		CFPBEndDate: row.CFPBEndDate,
	}

	r.FedRSSD.Int64, r.FedRSSD.Valid = value(row.FedRSSD)

	r.Active.Bool, r.Active.Valid = value(row.Active)
	r.Inactive.Bool, r.Inactive.Valid = value(row.Inactive)
	r.Conservatorship.Bool, r.Conservatorship.Valid = value(row.Conservatorship)
	r.DeNovo.Bool, r.DeNovo.Valid = value(row.DeNovo)
	r.FederalCharter.Bool, r.FederalCharter.Valid = value(row.FederalCharter)
	r.InsuredFDIC.Bool, r.InsuredFDIC.Valid = value(row.InsuredFDIC)
	r.InsuredBIF.Bool, r.InsuredBIF.Valid = value(row.InsuredBIF)
	r.InsuredSAIF.Bool, r.InsuredSAIF.Valid = value(row.InsuredSAIF)
	r.InsuredCommercial.Bool, r.InsuredCommercial.Valid = value(row.InsuredCommercial)
	r.InsuredSavings.Bool, r.InsuredSavings.Valid = value(row.InsuredSavings)

	r.BankClass.String, r.BankClass.Valid = value(row.BankClass)
	r.FedDistrict.String, r.FedDistrict.Valid = value(row.FedDistrict)
	r.FDICRegion.String, r.FDICRegion.Valid = value(row.FDICRegion)
	r.OTSDistrict.String, r.OTSDistrict.Valid = value(row.OTSDistrict)

	r.TotalAssets.Float64, r.TotalAssets.Valid = value(row.TotalAssets)
	r.TotalDeposits.Float64, r.TotalDeposits.Valid = value(row.TotalDeposits)
	return r
}

func optional[T any](v T, valid bool) *T {
	if !valid {
		return nil
	}
	return &v
}

func value[T any](p *T) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	return *p, true
}

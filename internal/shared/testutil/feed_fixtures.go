package testutil

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fdicbanks/pkg/contracts/domain"
)

// FeedRow is one synthetic feed row keyed by column name. Columns left out
// are written blank.
type FeedRow map[string]string

// FeedHeader is the column set written by the fixtures: the required
// columns plus one of each column kind.
var FeedHeader = []string{
	"CERT", "NAME", "STNAME", "CITY", "ACTIVE", "INACTIVE", "CONSERVE",
	"BKCLASS", "FED", "FDICREGN", "FDICDBS", "OTSDIST",
	"ESTYMD", "ENDEFYMD", "DATEUPDT", "CHANGEC1", "CFPBENDDTE", "ASSET",
}

// FeedFixtures writes synthetic institutions feeds for tests.
type FeedFixtures struct {
	TestDataDir string
}

// NewFeedFixtures creates a new fixtures manager
func NewFeedFixtures(testDataDir string) *FeedFixtures {
	return &FeedFixtures{
		TestDataDir: testDataDir,
	}
}

// ScenarioRows returns three institutions established 2020-01-01,
// 2020-06-15 and 2021-02-01; the second is inactive, closed 2020-12-01.
func (f *FeedFixtures) ScenarioRows() []FeedRow {
	return []FeedRow{
		{
			"CERT": "101", "NAME": "First Prairie Bank", "STNAME": "Iowa", "CITY": "Ames",
			"ACTIVE": "1", "INACTIVE": "0", "CONSERVE": "0",
			"BKCLASS": "N", "FED": "7", "FDICREGN": "9", "FDICDBS": "09", "OTSDIST": "3",
			"ESTYMD": "01/01/2020", "ENDEFYMD": "12/31/9999", "DATEUPDT": "03/04/2024",
			"CHANGEC1": "0", "CFPBENDDTE": "12/31/9999", "ASSET": "1,250",
		},
		{
			"CERT": "102", "NAME": "Harbor Savings", "STNAME": "Maine", "CITY": "Portland",
			"ACTIVE": "0", "INACTIVE": "1", "CONSERVE": "0",
			"BKCLASS": "SB", "FED": "1", "FDICREGN": "1", "FDICDBS": "1", "OTSDIST": "1",
			"ESTYMD": "06/15/2020", "ENDEFYMD": "12/01/2020", "DATEUPDT": "12/02/2020",
			"CHANGEC1": "223", "ASSET": "310.5",
		},
		{
			"CERT": "103", "NAME": "Desert Trust", "STNAME": "Arizona", "CITY": "Tucson",
			"ACTIVE": "1", "INACTIVE": "0", "CONSERVE": "0",
			"BKCLASS": "SM", "FED": "12", "FDICREGN": "14", "FDICDBS": "14.0", "OTSDIST": "5",
			"ESTYMD": "02/01/2021", "ENDEFYMD": "12/31/9999", "DATEUPDT": "not a date",
			"ASSET": "88",
		},
	}
}

// ScenarioRecords returns the cleaned form of ScenarioRows as far as the
// series builder is concerned.
func (f *FeedFixtures) ScenarioRecords() []domain.InstitutionRecord {
	return []domain.InstitutionRecord{
		{Cert: 101, Established: Date(2020, 1, 1), Inactive: Bool(false), Closed: Date(9999, 12, 31)},
		{Cert: 102, Established: Date(2020, 6, 15), Inactive: Bool(true), Closed: Date(2020, 12, 1)},
		{Cert: 103, Established: Date(2021, 2, 1), Inactive: Bool(false), Closed: Date(9999, 12, 31)},
	}
}

// Date returns a valid UTC NullTime.
func Date(year int, month time.Month, day int) sql.NullTime {
	return sql.NullTime{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// Bool returns a valid NullBool.
func Bool(v bool) sql.NullBool {
	return sql.NullBool{Bool: v, Valid: true}
}

// FeedCSV renders rows under header as CSV text.
func FeedCSV(header []string, rows []FeedRow) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(header)
	for _, row := range rows {
		_ = w.Write(cells(header, row))
	}
	w.Flush()
	return b.String()
}

func cells(header []string, row FeedRow) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = row[h]
	}
	return out
}

// CreateFeedCSV writes rows as a CSV feed under the fixtures directory.
func (f *FeedFixtures) CreateFeedCSV(name string, header []string, rows []FeedRow) (string, error) {
	if err := os.MkdirAll(f.TestDataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(f.TestDataDir, name)
	if err := os.WriteFile(path, []byte(FeedCSV(header, rows)), 0644); err != nil {
		return "", fmt.Errorf("failed to write feed file: %w", err)
	}
	return path, nil
}

// CreateFeedXLSX writes rows as a single-sheet workbook under the fixtures
// directory.
func (f *FeedFixtures) CreateFeedXLSX(name string, header []string, rows []FeedRow) (string, error) {
	if err := os.MkdirAll(f.TestDataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)

	write := func(r int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return wb.SetSheetRow(sheet, cell, &row)
	}

	if err := write(1, header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := write(i+2, cells(header, row)); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	path := filepath.Join(f.TestDataDir, name)
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

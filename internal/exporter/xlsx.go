package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"fdicbanks/internal/config"
	"fdicbanks/pkg/contracts/domain"
)

// ActivitySheet is the worksheet holding the activity series.
const ActivitySheet = "Activity"

// XLSXSink writes the activity series as a workbook for spreadsheet users.
// The institutions snapshot is too wide to be useful there and is skipped.
type XLSXSink struct {
	paths *config.Paths
}

// NewXLSXSink creates an XLSX sink rooted at the reports directory
func NewXLSXSink(paths *config.Paths) *XLSXSink {
	return &XLSXSink{paths: paths}
}

// Format implements Sink
func (s *XLSXSink) Format() string { return "xlsx" }

// WriteInstitutions implements Sink and writes nothing
func (s *XLSXSink) WriteInstitutions(ctx context.Context, records []domain.InstitutionRecord) (int, error) {
	return 0, nil
}

// WriteActivity writes activity.xlsx with one row per month
func (s *XLSXSink) WriteActivity(ctx context.Context, series domain.MonthlyActivitySeries) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ActivitySheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return 0, fmt.Errorf("failed to create date style: %w", err)
	}

	for i, header := range ActivityHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ActivitySheet, cell, header); err != nil {
			return 0, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(ActivityHeaders), 1)
	if err := f.SetCellStyle(ActivitySheet, "A1", last, headerStyle); err != nil {
		return 0, err
	}

	points := series.Points()
	for i, p := range points {
		row := i + 2
		values := []interface{}{p.Month, p.Established, p.Closed, p.NetActive}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ActivitySheet, cell, &values); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	if len(points) > 0 {
		end, _ := excelize.CoordinatesToCellName(1, len(points)+1)
		if err := f.SetCellStyle(ActivitySheet, "A2", end, dateStyle); err != nil {
			return 0, err
		}
	}
	if err := f.SetColWidth(ActivitySheet, "A", "D", 18); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(s.paths.ActivityXLSX), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(s.paths.ActivityXLSX); err != nil {
		return 0, fmt.Errorf("failed to save workbook: %w", err)
	}
	return len(points), nil
}

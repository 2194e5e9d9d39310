package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fdicbanks/internal/config"
	apperrors "fdicbanks/internal/errors"
	"fdicbanks/internal/shared/testutil"
	"fdicbanks/pkg/contracts/domain"
)

func newTestCleaner(t *testing.T, strict bool) (*Cleaner, *testutil.BufferedSlogHandler) {
	t.Helper()
	opts, err := DefaultCleanerOptions()
	require.NoError(t, err)
	opts.StrictClosureCheck = strict
	logger, handler := testutil.NewTestLogger(t)
	return NewCleaner(opts, logger), handler
}

func scenarioTable(t *testing.T, mutate func(rows []testutil.FeedRow)) *RawTable {
	t.Helper()
	rows := testutil.NewFeedFixtures(t.TempDir()).ScenarioRows()
	if mutate != nil {
		mutate(rows)
	}
	table, err := ReadCSV(strings.NewReader(testutil.FeedCSV(testutil.FeedHeader, rows)))
	require.NoError(t, err)
	return table
}

func TestCleaner_Scenario(t *testing.T) {
	cleaner, _ := newTestCleaner(t, false)

	records, report, err := cleaner.Clean(context.Background(), scenarioTable(t, nil))
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, int64(101), first.Cert)
	assert.Equal(t, "First Prairie Bank", first.Name)
	assert.Equal(t, "Iowa", first.StateName)
	assert.Equal(t, "Commercial Bank - Federal Charter", first.BankClass.String)
	assert.Equal(t, "Chicago", first.FedDistrict.String)
	assert.Equal(t, "Chicago", first.FDICRegion.String)
	assert.Equal(t, "Central", first.OTSDistrict.String)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), first.Established.Time)
	assert.Equal(t, 9999, first.Closed.Time.Year())
	assert.Equal(t, "12/31/9999", first.CFPBEndDate, "sentinel-bearing column stays text")
	assert.Equal(t, "0", first.ChangeCodes[0])
	assert.Equal(t, 1250.0, first.TotalAssets.Float64)
	assert.True(t, first.Active.Bool)
	assert.False(t, first.Inactive.Bool)

	closed := records[1]
	assert.True(t, closed.Inactive.Valid && closed.Inactive.Bool)
	assert.Equal(t, time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC), closed.Closed.Time)

	assert.Equal(t, []int64{101, 102, 103}, []int64{records[0].Cert, records[1].Cert, records[2].Cert})
	assert.Equal(t, "San Francisco", records[2].FDICRegion.String)
	assert.False(t, records[2].LastUpdated.Valid)

	assert.Equal(t, 3, report.RowsRead)
	assert.Equal(t, 3, report.RecordsCleaned)
	assert.Equal(t, map[string]int{"DATEUPDT": 1}, report.MissingDates)
	assert.Empty(t, report.IgnoredColumns)
	assert.Empty(t, report.InactiveWithoutClosure)
}

func TestCleaner_CleanedValuesAreTyped(t *testing.T) {
	cleaner, _ := newTestCleaner(t, false)
	records, _, err := cleaner.Clean(context.Background(), scenarioTable(t, func(rows []testutil.FeedRow) {
		rows[0]["CONSERVE"] = ""
		rows[1]["FED"] = ""
	}))
	require.NoError(t, err)

	labels, err := config.DefaultLabels()
	require.NoError(t, err)
	inLabelSet := func(column string, v string) bool {
		m, ok := labels.ForColumn(column)
		require.True(t, ok)
		for _, l := range m.Labels() {
			if l == v {
				return true
			}
		}
		return false
	}

	for _, r := range records {
		for column, v := range map[string]domainLabel{
			"BKCLASS":  {r.BankClass.String, r.BankClass.Valid},
			"FED":      {r.FedDistrict.String, r.FedDistrict.Valid},
			"FDICREGN": {r.FDICRegion.String, r.FDICRegion.Valid},
			"OTSDIST":  {r.OTSDistrict.String, r.OTSDistrict.Valid},
		} {
			if v.valid {
				assert.True(t, inLabelSet(column, v.value), "%s=%q is not a label", column, v.value)
			}
		}
	}
	assert.False(t, records[0].Conservatorship.Valid)
	assert.False(t, records[1].FedDistrict.Valid)
}

type domainLabel struct {
	value string
	valid bool
}

func TestCleaner_FatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(rows []testutil.FeedRow)
		wantType apperrors.ErrorType
		contains string
	}{
		{
			name:     "unmapped bank class",
			mutate:   func(rows []testutil.FeedRow) { rows[1]["BKCLASS"] = "ZZ" },
			wantType: apperrors.ErrTypeSchemaViolation,
			contains: "ZZ",
		},
		{
			name:     "boolean column outside 0/1",
			mutate:   func(rows []testutil.FeedRow) { rows[2]["INACTIVE"] = "2" },
			wantType: apperrors.ErrTypeTypeCoercion,
			contains: "cert 103",
		},
		{
			name:     "region and office disagree",
			mutate:   func(rows []testutil.FeedRow) { rows[0]["FDICDBS"] = "5" },
			wantType: apperrors.ErrTypeRedundancyMismatch,
			contains: `cert 101: FDICREGN="Chicago" disagrees with FDICDBS="Atlanta"`,
		},
		{
			name:     "office missing where region present",
			mutate:   func(rows []testutil.FeedRow) { rows[0]["FDICDBS"] = "" },
			wantType: apperrors.ErrTypeRedundancyMismatch,
			contains: "cert 101",
		},
		{
			name:     "invalid certificate",
			mutate:   func(rows []testutil.FeedRow) { rows[1]["CERT"] = "x12" },
			wantType: apperrors.ErrTypeParsing,
			contains: "CERT",
		},
		{
			name:     "non numeric assets",
			mutate:   func(rows []testutil.FeedRow) { rows[2]["ASSET"] = "n/a" },
			wantType: apperrors.ErrTypeTypeCoercion,
			contains: "ASSET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner, _ := newTestCleaner(t, false)
			records, _, err := cleaner.Clean(context.Background(), scenarioTable(t, tt.mutate))
			require.Error(t, err)
			assert.Nil(t, records, "fatal errors produce no partial output")
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCleaner_RedundantColumnDropped(t *testing.T) {
	cleaner, handler := newTestCleaner(t, false)

	_, _, err := cleaner.Clean(context.Background(), scenarioTable(t, func(rows []testutil.FeedRow) {
		rows[2]["FDICREGN"] = ""
		rows[2]["FDICDBS"] = ""
	}))
	require.NoError(t, err, "both missing counts as agreement")
	testutil.AssertLogContains(t, handler, slog.LevelDebug, "Dropped redundant column")
}

func TestCleaner_MissingRequiredColumns(t *testing.T) {
	cleaner, _ := newTestCleaner(t, false)
	table := NewRawTable([]string{"CERT", "NAME", "ESTYMD"}, [][]string{{"1", "A", "01/01/2000"}})

	_, _, err := cleaner.Clean(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Contains(t, err.Error(), "ENDEFYMD")
	assert.Contains(t, err.Error(), "INACTIVE")
}

func TestCleaner_UnknownColumnsIgnored(t *testing.T) {
	cleaner, handler := newTestCleaner(t, false)
	table := NewRawTable(
		[]string{"CERT", "ESTYMD", "ENDEFYMD", "INACTIVE", "WEBADDR"},
		[][]string{{"1", "01/01/2000", "", "0", "example.com"}})

	records, report, err := cleaner.Clean(context.Background(), table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"WEBADDR"}, report.IgnoredColumns)
	testutil.AssertLogAttr(t, handler, "column", "WEBADDR")
}

func TestCleaner_InactiveWithoutClosure(t *testing.T) {
	noClosure := func(rows []testutil.FeedRow) {
		rows[1]["ENDEFYMD"] = ""
	}

	t.Run("reported by default", func(t *testing.T) {
		cleaner, handler := newTestCleaner(t, false)
		records, report, err := cleaner.Clean(context.Background(), scenarioTable(t, noClosure))
		require.NoError(t, err)
		assert.Len(t, records, 3)
		assert.Equal(t, []int64{102}, report.InactiveWithoutClosure)
		testutil.AssertLogContains(t, handler, slog.LevelWarn, "without closure date")
	})

	t.Run("strict mode aborts", func(t *testing.T) {
		cleaner, _ := newTestCleaner(t, true)
		records, _, err := cleaner.Clean(context.Background(), scenarioTable(t, noClosure))
		require.Error(t, err)
		assert.Nil(t, records)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, []int64{102}, appErr.Context["certs"])
	})
}

func TestCleaner_EmptyTable(t *testing.T) {
	cleaner, _ := newTestCleaner(t, false)
	table := NewRawTable(RequiredColumns, nil)

	records, report, err := cleaner.Clean(context.Background(), table)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, report.RecordsCleaned)
}

func TestCleaner_Cancelled(t *testing.T) {
	cleaner, _ := newTestCleaner(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := cleaner.Clean(ctx, scenarioTable(t, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleaner_RecordsFeedTheBuilder(t *testing.T) {
	cleaner, _ := newTestCleaner(t, false)
	records, _, err := cleaner.Clean(context.Background(), scenarioTable(t, nil))
	require.NoError(t, err)

	fixed := func() time.Time { return time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC) }
	series, err := NewSeriesBuilder(StrategySweep, fixed, nil).Build(records)
	require.NoError(t, err)

	p, ok := series.At(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, domain.ActivityPoint{
		Month:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Established: 2,
		Closed:      1,
		NetActive:   1.0,
	}, p)
}

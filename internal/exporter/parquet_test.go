package exporter

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fdicbanks/internal/shared/testutil"
	"fdicbanks/pkg/contracts/domain"
)

func fullRecord() domain.InstitutionRecord {
	return domain.InstitutionRecord{
		Cert:              3511,
		FedRSSD:           sql.NullInt64{Int64: 451965, Valid: true},
		Name:              "Wells Fargo Bank, National Association",
		Address:           "101 N. Phillips Avenue",
		Zip:               "57104",
		StateName:         "South Dakota",
		StateAlpha:        "SD",
		City:              "Sioux Falls",
		County:            "Minnehaha",
		CBSA:              "Sioux Falls, SD",
		MSA:               "Sioux Falls, SD",
		CharterAgent:      "OCC",
		RegulatoryAgent:   "OCC",
		FDICSupervisor:    "CHI",
		Active:            testutil.Bool(true),
		Inactive:          testutil.Bool(false),
		Conservatorship:   testutil.Bool(false),
		FederalCharter:    testutil.Bool(true),
		InsuredFDIC:       testutil.Bool(true),
		InsuredBIF:        testutil.Bool(true),
		InsuredCommercial: testutil.Bool(true),
		InsuredSavings:    testutil.Bool(false),
		BankClass:         sql.NullString{String: "National bank, Federal Reserve member", Valid: true},
		FedDistrict:       sql.NullString{String: "Minneapolis", Valid: true},
		FDICRegion:        sql.NullString{String: "Chicago", Valid: true},
		Established:       testutil.Date(1870, time.July, 1),
		Closed:            testutil.Date(9999, time.December, 31),
		LastUpdated:       testutil.Date(2024, time.March, 4),
		Insured:           testutil.Date(1934, time.January, 1),
		Effective:         testutil.Date(2019, time.May, 16),
		ChangeCodes:       [5]string{"223", "", "", "", ""},
		CFPBEffDate:       "07/21/2011",
		CFPBEndDate:       "12/31/9999",
		TotalAssets:       sql.NullFloat64{Float64: 1721582000.5, Valid: true},
	}
}

func TestParquetSink_InstitutionsRoundTrip(t *testing.T) {
	sink := NewParquetSink(testPaths(t))
	ctx := context.Background()

	records := append([]domain.InstitutionRecord{fullRecord()}, testRecords()...)

	n, err := sink.WriteInstitutions(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, len(records), n)

	got, err := sink.ReadInstitutions(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(records))
	for i := range records {
		assert.Equal(t, records[i], got[i], "cert %d", records[i].Cert)
	}
}

func TestParquetSink_ActivityRoundTrip(t *testing.T) {
	sink := NewParquetSink(testPaths(t))
	ctx := context.Background()
	series := testSeries(t)

	n, err := sink.WriteActivity(ctx, series)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := sink.ReadActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, series.Points(), got.Points())
}

func TestParquetSink_Empty(t *testing.T) {
	sink := NewParquetSink(testPaths(t))
	ctx := context.Background()

	n, err := sink.WriteInstitutions(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := sink.ReadInstitutions(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParquetSink_CancelledWriteKeepsPreviousSnapshot(t *testing.T) {
	paths := testPaths(t)
	sink := NewParquetSink(paths)

	_, err := sink.WriteInstitutions(context.Background(), testRecords())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.WriteInstitutions(ctx, []domain.InstitutionRecord{fullRecord()})
	assert.ErrorIs(t, err, context.Canceled)

	got, err := sink.ReadInstitutions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(101), got[0].Cert)

	entries, err := os.ReadDir(paths.ReportsDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".part"), "leftover temp file %s", e.Name())
	}
}

func TestParquetSink_RewriteReplacesSnapshot(t *testing.T) {
	sink := NewParquetSink(testPaths(t))
	ctx := context.Background()

	_, err := sink.WriteInstitutions(ctx, testRecords())
	require.NoError(t, err)
	_, err = sink.WriteInstitutions(ctx, []domain.InstitutionRecord{fullRecord()})
	require.NoError(t, err)

	got, err := sink.ReadInstitutions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3511), got[0].Cert)
}

func TestParquetSink_MissingSnapshot(t *testing.T) {
	sink := NewParquetSink(testPaths(t))

	_, err := sink.ReadInstitutions(context.Background())
	assert.ErrorContains(t, err, "failed to open parquet file")
}

func TestDaysSinceEpoch(t *testing.T) {
	tests := []struct {
		date time.Time
		days int32
	}{
		{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC), -1},
		{time.Date(1969, 12, 31, 12, 0, 0, 0, time.UTC), -1},
		{time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), 2932896},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(DateLayout), func(t *testing.T) {
			d := toDays(sql.NullTime{Time: tt.date, Valid: true})
			require.NotNil(t, d)
			assert.Equal(t, tt.days, *d)
		})
	}

	assert.Nil(t, toDays(sql.NullTime{}))
	assert.False(t, fromDays(nil).Valid)
}

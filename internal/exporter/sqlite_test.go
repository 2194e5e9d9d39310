package exporter

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB skips when the sqlite3 driver was built without cgo.
func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if err := db.Ping(); err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	return db
}

func TestSQLiteSink(t *testing.T) {
	paths := testPaths(t)
	db := openTestDB(t, paths.BanksDB)
	sink := NewSQLiteSink(paths)
	ctx := context.Background()

	assert.Equal(t, "sqlite", sink.Format())

	n, err := sink.WriteInstitutions(ctx, testRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var (
		name, region, established, closed string
		inactive                          int
		assets                            float64
		lastUpdated                       sql.NullString
	)
	err = db.QueryRow(`SELECT name, fdic_region, established, closed, inactive, total_assets, last_updated
		FROM institutions WHERE cert = ?`, 101).
		Scan(&name, &region, &established, &closed, &inactive, &assets, &lastUpdated)
	require.NoError(t, err)
	assert.Equal(t, "First Prairie Bank", name)
	assert.Equal(t, "Kansas City", region)
	assert.Equal(t, "2020-01-01", established)
	assert.Equal(t, "9999-12-31", closed)
	assert.Equal(t, 0, inactive)
	assert.Equal(t, 1250.0, assets)
	assert.False(t, lastUpdated.Valid)

	n, err = sink.WriteActivity(ctx, testSeries(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var month string
	var est, cls int
	var net float64
	err = db.QueryRow(`SELECT month, established_count, closed_count, net_active
		FROM activity ORDER BY month DESC LIMIT 1`).Scan(&month, &est, &cls, &net)
	require.NoError(t, err)
	assert.Equal(t, "2021-02-01", month)
	assert.Equal(t, 2, est)
	assert.Equal(t, 1, cls)
	assert.Equal(t, 1.0, net)
}

func TestSQLiteSink_ReplacesTables(t *testing.T) {
	paths := testPaths(t)
	db := openTestDB(t, paths.BanksDB)
	sink := NewSQLiteSink(paths)
	ctx := context.Background()

	_, err := sink.WriteInstitutions(ctx, testRecords())
	require.NoError(t, err)
	_, err = sink.WriteInstitutions(ctx, testRecords()[:1])
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM institutions").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteSink_Cancelled(t *testing.T) {
	paths := testPaths(t)
	openTestDB(t, paths.BanksDB)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSQLiteSink(paths).WriteInstitutions(ctx, testRecords())
	assert.ErrorIs(t, err, context.Canceled)
}

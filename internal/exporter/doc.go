// Package exporter writes the cleaned institutions snapshot and the monthly
// activity series to disk.
//
// Each output format is a Sink:
//
// CSVSink: institutions.csv and activity.csv, streamed through CSVWriter
// with a UTF-8 BOM so spreadsheet tools detect the encoding.
//
// ParquetSink: Snappy-compressed institutions.parquet and activity.parquet.
// The same sink reads a snapshot back for runs that skip the feed.
//
// XLSXSink: activity.xlsx for spreadsheet users.
//
// SQLiteSink: institutions and activity tables in banks.db, replaced per
// run inside one transaction. Requires a cgo build of the sqlite3 driver.
//
// Exporter fans a run's outputs out to every configured sink in parallel.
//
// Example usage:
//
//	sinks, err := exporter.NewSinks(paths, []string{"csv", "parquet"}, logger)
//	if err != nil {
//		return err
//	}
//	results, err := exporter.NewExporter(sinks, logger).Export(ctx, records, series)
//
// Missing values are written as empty CSV cells and as nulls in Parquet and
// SQLite. Dates are ISO 8601 (2006-01-02) in CSV and SQLite and DATE
// columns in Parquet.
package exporter

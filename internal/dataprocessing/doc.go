// Package dataprocessing turns the raw FDIC institutions feed into typed
// records and derives the monthly activity series from them.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Table reader: reads a CSV or XLSX feed into an untyped RawTable
// 2. Cleaner: applies the column schema, label dictionaries and data-quality checks
// 3. Series builder: computes cumulative established and closed counts per month
//
// # Usage
//
//	table, err := dataprocessing.ReadTable("institutions.csv")
//	if err != nil {
//	    return err
//	}
//
//	opts, err := dataprocessing.DefaultCleanerOptions()
//	if err != nil {
//	    return err
//	}
//	records, report, err := dataprocessing.NewCleaner(opts, logger).Clean(ctx, table)
//	if err != nil {
//	    return err
//	}
//
//	series, err := dataprocessing.NewSeriesBuilder(dataprocessing.StrategySweep, time.Now, logger).Build(records)
//
// # Data Flow
//
//	CSV/XLSX → RawTable → Cleaner → []InstitutionRecord → SeriesBuilder → MonthlyActivitySeries
//
// # Error Handling
//
// Schema violations, type coercion failures and redundancy mismatches abort
// the load with an *errors.AppError and no records. Unparseable dates are
// not errors: the field is left missing and counted in the CleaningReport.
//
// # Column Transforms
//
// Every schema column is converted by a ColumnTransform bound to one field
// of the record. FDICDBS is recoded with the FDIC region labels, checked
// row by row against FDICREGN and then dropped.
package dataprocessing

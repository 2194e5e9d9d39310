// Package config provides centralized configuration management for the
// institutions processor.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. config.yaml (working directory, configs/, or next to the binary)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BANKS_<SECTION>_<FIELD>:
//
//	BANKS_LOGGING_LEVEL=debug
//	BANKS_PATHS_INPUT_FILE=/data/institutions.csv
//	BANKS_PIPELINE_STRATEGY=scan
//	BANKS_PIPELINE_OUTPUT_FORMATS=csv,parquet,xlsx
//	BANKS_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Path Management
//
// Paths lays out data/downloads, data/reports and logs under a base
// directory, which defaults to the executable location:
//
//	paths, err := cfg.ResolvePaths()
//	feed := paths.GetDownloadPath("institutions.csv")
//
// # Label Dictionaries
//
// The code-definition tables for the closed-vocabulary columns (bank class,
// Federal Reserve district, FDIC region, OTS district) are data, embedded
// from labels.yaml and parsed once per process. Paths.LabelsFile replaces
// them with an external file.
package config

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "BANKS"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Feed      FeedConfig      `yaml:"feed" envconfig:"FEED"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"processor.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	// BaseDir overrides the executable directory as the root of all
	// relative paths.
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	InputFile  string `yaml:"input_file" envconfig:"INPUT_FILE"`
	LabelsFile string `yaml:"labels_file" envconfig:"LABELS_FILE"`
}

// FeedConfig controls the download of the institutions feed
type FeedConfig struct {
	URL      string        `yaml:"url" envconfig:"URL" default:"https://s3-us-gov-west-1.amazonaws.com/cg-2e5c99a6-e282-42bf-9844-35f5430338a5/downloads/institutions.csv" validate:"required,url"`
	FileName string        `yaml:"file_name" envconfig:"FILE_NAME" default:"institutions.csv" validate:"required"`
	Attempts int           `yaml:"attempts" envconfig:"ATTEMPTS" default:"3" validate:"min=1,max=10"`
	Backoff  time.Duration `yaml:"backoff" envconfig:"BACKOFF" default:"5s" validate:"min=0"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"2m" validate:"gt=0"`
}

// PipelineConfig controls cleaning and series construction
type PipelineConfig struct {
	// Strategy selects the series algorithm: "sweep" sorts once, "scan"
	// rescans every record for every month.
	Strategy           string   `yaml:"strategy" envconfig:"STRATEGY" default:"sweep" validate:"oneof=sweep scan"`
	StrictClosureCheck bool     `yaml:"strict_closure_check" envconfig:"STRICT_CLOSURE_CHECK" default:"false"`
	DateLayout         string   `yaml:"date_layout" envconfig:"DATE_LAYOUT" default:"01/02/2006" validate:"required"`
	FeedEncoding       string   `yaml:"feed_encoding" envconfig:"FEED_ENCODING" default:"utf-8"`
	OutputFormats      []string `yaml:"output_formats" envconfig:"OUTPUT_FORMATS" default:"csv,parquet" validate:"min=1,dive,oneof=csv parquet xlsx sqlite"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=stdout none"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE" default:"traces.json"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE" default:"banks_processor.prom"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables and the given
// YAML file. An empty path skips the file. Environment variables that are
// set take precedence over file values.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, cfg)
		}
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey builds the variable name envconfig uses for a section field.
func envKey(section, field string) string {
	return EnvPrefix + "_" + section + "_" + field
}

// pick returns the env value when its variable is set or the file left the
// field empty, and the file value otherwise.
func pick[T comparable](key string, envVal, fileVal T) T {
	var zero T
	if _, set := os.LookupEnv(key); set || fileVal == zero {
		return envVal
	}
	return fileVal
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	out := envConfig

	out.Logging.Level = pick(envKey("LOGGING", "LEVEL"), envConfig.Logging.Level, fileConfig.Logging.Level)
	out.Logging.Output = pick(envKey("LOGGING", "OUTPUT"), envConfig.Logging.Output, fileConfig.Logging.Output)
	out.Logging.FilePath = pick(envKey("LOGGING", "FILE_PATH"), envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	out.Paths.BaseDir = pick(envKey("PATHS", "BASE_DIR"), envConfig.Paths.BaseDir, fileConfig.Paths.BaseDir)
	out.Paths.DataDir = pick(envKey("PATHS", "DATA_DIR"), envConfig.Paths.DataDir, fileConfig.Paths.DataDir)
	out.Paths.LogsDir = pick(envKey("PATHS", "LOGS_DIR"), envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir)
	out.Paths.InputFile = pick(envKey("PATHS", "INPUT_FILE"), envConfig.Paths.InputFile, fileConfig.Paths.InputFile)
	out.Paths.LabelsFile = pick(envKey("PATHS", "LABELS_FILE"), envConfig.Paths.LabelsFile, fileConfig.Paths.LabelsFile)

	out.Feed.URL = pick(envKey("FEED", "URL"), envConfig.Feed.URL, fileConfig.Feed.URL)
	out.Feed.FileName = pick(envKey("FEED", "FILE_NAME"), envConfig.Feed.FileName, fileConfig.Feed.FileName)
	out.Feed.Attempts = pick(envKey("FEED", "ATTEMPTS"), envConfig.Feed.Attempts, fileConfig.Feed.Attempts)
	out.Feed.Backoff = pick(envKey("FEED", "BACKOFF"), envConfig.Feed.Backoff, fileConfig.Feed.Backoff)
	out.Feed.Timeout = pick(envKey("FEED", "TIMEOUT"), envConfig.Feed.Timeout, fileConfig.Feed.Timeout)

	out.Pipeline.Strategy = pick(envKey("PIPELINE", "STRATEGY"), envConfig.Pipeline.Strategy, fileConfig.Pipeline.Strategy)
	out.Pipeline.StrictClosureCheck = pick(envKey("PIPELINE", "STRICT_CLOSURE_CHECK"), envConfig.Pipeline.StrictClosureCheck, fileConfig.Pipeline.StrictClosureCheck)
	out.Pipeline.DateLayout = pick(envKey("PIPELINE", "DATE_LAYOUT"), envConfig.Pipeline.DateLayout, fileConfig.Pipeline.DateLayout)
	out.Pipeline.FeedEncoding = pick(envKey("PIPELINE", "FEED_ENCODING"), envConfig.Pipeline.FeedEncoding, fileConfig.Pipeline.FeedEncoding)
	if _, set := os.LookupEnv(envKey("PIPELINE", "OUTPUT_FORMATS")); !set && len(fileConfig.Pipeline.OutputFormats) > 0 {
		out.Pipeline.OutputFormats = fileConfig.Pipeline.OutputFormats
	}

	out.Telemetry.TraceExporter = pick(envKey("TELEMETRY", "TRACE_EXPORTER"), envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter)
	out.Telemetry.TraceFile = pick(envKey("TELEMETRY", "TRACE_FILE"), envConfig.Telemetry.TraceFile, fileConfig.Telemetry.TraceFile)
	out.Telemetry.EnableMetrics = pick(envKey("TELEMETRY", "ENABLE_METRICS"), envConfig.Telemetry.EnableMetrics, fileConfig.Telemetry.EnableMetrics)
	out.Telemetry.MetricsFile = pick(envKey("TELEMETRY", "METRICS_FILE"), envConfig.Telemetry.MetricsFile, fileConfig.Telemetry.MetricsFile)

	return out
}

// validate normalises and validates the configuration
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Pipeline.Strategy = strings.ToLower(c.Pipeline.Strategy)
	for i, f := range c.Pipeline.OutputFormats {
		c.Pipeline.OutputFormats[i] = strings.ToLower(strings.TrimSpace(f))
	}

	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}

// ResolvePaths resolves the configured directories into a Paths value.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}

	paths := NewPaths(base, c.Paths.DataDir, c.Paths.LogsDir)
	if c.Paths.LabelsFile != "" {
		paths.LabelsFile = paths.resolve(c.Paths.LabelsFile)
	}
	return paths, nil
}

// LogFilePath returns the log file location under the logs directory.
func (c *Config) LogFilePath(paths *Paths) string {
	if filepath.IsAbs(c.Logging.FilePath) {
		return c.Logging.FilePath
	}
	return paths.GetLogPath(c.Logging.FilePath)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	if exeDir, err := executableDir(); err == nil {
		locations = append(locations, filepath.Join(exeDir, "config.yaml"))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "processor.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		Feed: FeedConfig{
			URL:      "https://s3-us-gov-west-1.amazonaws.com/cg-2e5c99a6-e282-42bf-9844-35f5430338a5/downloads/institutions.csv",
			FileName: "institutions.csv",
			Attempts: 3,
			Backoff:  5 * time.Second,
			Timeout:  2 * time.Minute,
		},
		Pipeline: PipelineConfig{
			Strategy:      "sweep",
			DateLayout:    "01/02/2006",
			FeedEncoding:  "utf-8",
			OutputFormats: []string{"csv", "parquet"},
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			TraceFile:     "traces.json",
			EnableMetrics: true,
			MetricsFile:   "banks_processor.prom",
		},
	}
}

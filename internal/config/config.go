// Package config loads the covdiff configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"slices"
)

// Defaults.
const (
	DefaultCoverageFormat = "cobertura"
	DefaultCoverageReport = "target/site/cobertura/coverage.xml"
	DefaultSourcePrefix   = "src/main/java"
	DefaultTestPrefix     = "src/test/java"
	DefaultDiffWorkers    = 4
	DefaultBadgeRed       = 40.0
	DefaultBadgeYellow    = 70.0
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "text"
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Original string         `mapstructure:"original"`
	Revised  string         `mapstructure:"revised"`
	Coverage CoverageConfig `mapstructure:"coverage"`
	Source   SourceConfig   `mapstructure:"source"`
	Test     TestConfig     `mapstructure:"test"`
	Diff     DiffConfig     `mapstructure:"diff"`
	Output   OutputConfig   `mapstructure:"output"`
	Badge    BadgeConfig    `mapstructure:"badge"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CoverageConfig describes how each revision's snapshot is produced.
type CoverageConfig struct {
	Format  string   `mapstructure:"format"`
	Report  string   `mapstructure:"report"`
	Command []string `mapstructure:"command"`
}

// SourceConfig locates source files below each revision directory.
type SourceConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// TestConfig locates test sources below each revision directory. An empty
// prefix skips the test file comparison.
type TestConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// DiffConfig holds the file diffing knobs.
type DiffConfig struct {
	Workers int `mapstructure:"workers"`
}

// OutputConfig lists the optional output files. Empty means not written.
type OutputConfig struct {
	JSON  string `mapstructure:"json"`
	HTML  string `mapstructure:"html"`
	Badge string `mapstructure:"badge"`
	Title string `mapstructure:"title"` // HTML page title
}

// BadgeConfig holds the badge color thresholds in percent.
type BadgeConfig struct {
	Red    float64 `mapstructure:"red"`
	Yellow float64 `mapstructure:"yellow"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	coverageFormats = []string{"cobertura", "goprofile"}
	logLevels       = []string{"debug", "info", "warn", "error"}
	logFormats      = []string{"text", "json"}
)

// Sentinel errors for configuration validation.
var (
	// ErrMissingDirectories indicates the original or revised directory is unset.
	ErrMissingDirectories = errors.New("original and revised directories are required")
	// ErrInvalidCoverageFormat indicates an unsupported report format.
	ErrInvalidCoverageFormat = errors.New("coverage.format must be cobertura or goprofile")
	// ErrMissingCoverageReport indicates the report path is empty.
	ErrMissingCoverageReport = errors.New("coverage.report must be set")
	// ErrInvalidWorkers indicates the diff workers value is not positive.
	ErrInvalidWorkers = errors.New("diff.workers must be positive")
	// ErrInvalidBadgeThresholds indicates thresholds out of range or out of order.
	ErrInvalidBadgeThresholds = errors.New("badge thresholds must satisfy 0 <= red <= yellow <= 100")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidLogFormat indicates an unknown log handler.
	ErrInvalidLogFormat = errors.New("logging.format must be text or json")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Original == "" || c.Revised == "" {
		return ErrMissingDirectories
	}

	if !slices.Contains(coverageFormats, c.Coverage.Format) {
		return ErrInvalidCoverageFormat
	}

	if c.Coverage.Report == "" {
		return ErrMissingCoverageReport
	}

	if c.Diff.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Badge.Red < 0 || c.Badge.Yellow > 100 || c.Badge.Red > c.Badge.Yellow {
		return ErrInvalidBadgeThresholds
	}

	return c.Logging.Validate()
}

// Validate checks the logging settings.
func (l LoggingConfig) Validate() error {
	if !slices.Contains(logLevels, l.Level) {
		return ErrInvalidLogLevel
	}

	if !slices.Contains(logFormats, l.Format) {
		return ErrInvalidLogFormat
	}

	return nil
}

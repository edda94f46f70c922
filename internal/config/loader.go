package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = "covdiff"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for covdiff settings.
const envPrefix = "COVDIFF"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// NewViper returns a viper instance with defaults and environment binding
// applied. Callers may bind command line flags onto it before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	return v
}

// LoadConfig loads configuration from file, env vars, and defaults.
func LoadConfig(configPath string) (*Config, error) {
	return Load(NewViper(), configPath)
}

// Load reads the config file into v and returns the validated configuration.
// If configPath is empty, covdiff.yaml is searched in the current directory;
// a missing file is not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	// Registered so AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("original", "")
	v.SetDefault("revised", "")

	v.SetDefault("coverage.format", DefaultCoverageFormat)
	v.SetDefault("coverage.report", DefaultCoverageReport)
	v.SetDefault("coverage.command", []string{})

	v.SetDefault("source.prefix", DefaultSourcePrefix)
	v.SetDefault("test.prefix", DefaultTestPrefix)

	v.SetDefault("diff.workers", DefaultDiffWorkers)

	v.SetDefault("output.json", "")
	v.SetDefault("output.html", "")
	v.SetDefault("output.badge", "")
	v.SetDefault("output.title", "")

	v.SetDefault("badge.red", DefaultBadgeRed)
	v.SetDefault("badge.yellow", DefaultBadgeYellow)

	v.SetDefault("logging.level", DefaultLoggingLevel)
	v.SetDefault("logging.format", DefaultLoggingFormat)
}

// Package config loads xlfeat settings from defaults, an optional YAML file
// and XLFEAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "xlfeat.yaml"

// Config holds the conversion settings.
type Config struct {
	// RunMarker is the run type of rows to convert.
	RunMarker string `mapstructure:"run_marker" yaml:"run_marker" validate:"required"`
	// Environment must appear in a row's environment cell, when the cell is set.
	Environment      string `mapstructure:"environment" yaml:"environment" validate:"required"`
	RequestThreshold int    `mapstructure:"request_threshold" yaml:"request_threshold" validate:"min=1"`
	DebugAnnotations bool   `mapstructure:"debug_annotations" yaml:"debug_annotations"`
	VerifyGherkin    bool   `mapstructure:"verify_gherkin" yaml:"verify_gherkin"`
	SuccessDir       string `mapstructure:"success_dir" yaml:"success_dir" validate:"required"`
	LedgerPath       string `mapstructure:"ledger_path" yaml:"ledger_path" validate:"required"`
	LogLevel         string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	TestDataSheet    string `mapstructure:"test_data_sheet" yaml:"test_data_sheet" validate:"required"`
	CommonSheet      string `mapstructure:"common_sheet" yaml:"common_sheet"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		RunMarker:        "g",
		Environment:      "in1",
		RequestThreshold: 20480,
		DebugAnnotations: true,
		VerifyGherkin:    true,
		SuccessDir:       "success",
		LedgerPath:       ".xlfeat/ledger.db",
		LogLevel:         "info",
		TestDataSheet:    "TestData",
		CommonSheet:      "Common",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("run_marker", d.RunMarker)
	v.SetDefault("environment", d.Environment)
	v.SetDefault("request_threshold", d.RequestThreshold)
	v.SetDefault("debug_annotations", d.DebugAnnotations)
	v.SetDefault("verify_gherkin", d.VerifyGherkin)
	v.SetDefault("success_dir", d.SuccessDir)
	v.SetDefault("ledger_path", d.LedgerPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("test_data_sheet", d.TestDataSheet)
	v.SetDefault("common_sheet", d.CommonSheet)
}

// Load reads the config file at path, or xlfeat.yaml in the working
// directory when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("XLFEAT")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("xlfeat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WriteDefault writes the default settings to path as YAML.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Package config loads the settings of the module discovery tool from a
// YAML file. Command line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	// Manifest is the manifest describing the sandboxed program and its
	// libraries. Mutually exclusive with Program.
	Manifest string `yaml:"manifest"`

	// Program selects the sandboxed program directly.
	Program string `yaml:"program"`

	// IRT is the integrated runtime object mapped at the sandbox base.
	IRT string `yaml:"irt"`

	// StrictDuplicates rejects manifests that name a file twice.
	StrictDuplicates bool `yaml:"strict_duplicates"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	// Level is a slog level name.
	// Default: info
	Level string `yaml:"level"`

	// Format is "text" or "json".
	// Default: text
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Manifest != "" && c.Program != "" {
		errs = append(errs, errors.New("manifest and program are mutually exclusive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("invalid log.format: %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level: %w", err)
	}
	return level, nil
}

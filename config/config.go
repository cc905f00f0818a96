// Package config loads memsieve settings from YAML. Command line flags
// override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the memsieve configuration file
type Config struct {
	Debug   bool          `yaml:"debug"`
	Hexdump HexdumpConfig `yaml:"hexdump"`
	Region  RegionConfig  `yaml:"region"`
}

// HexdumpConfig controls how snapshots and stubs are printed
type HexdumpConfig struct {
	BytesPerLine int  `yaml:"bytes_per_line"`
	MaxLines     int  `yaml:"max_lines"`
	Color        bool `yaml:"color"`
}

// RegionConfig controls the region command
type RegionConfig struct {
	// CheckMapping compares mapped regions against their backing file
	CheckMapping bool `yaml:"check_mapping"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Hexdump: HexdumpConfig{
			BytesPerLine: 16,
			MaxLines:     32,
			Color:        true,
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	//nolint:gosec // G304: path comes from the command line.
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values are usable
func (c *Config) Validate() error {
	if c.Hexdump.BytesPerLine <= 0 || c.Hexdump.BytesPerLine > 64 {
		return fmt.Errorf("%w: hexdump.bytes_per_line must be between 1 and 64, got %d",
			ErrInvalidConfig, c.Hexdump.BytesPerLine)
	}
	if c.Hexdump.MaxLines < 0 {
		return fmt.Errorf("%w: hexdump.max_lines must not be negative, got %d",
			ErrInvalidConfig, c.Hexdump.MaxLines)
	}
	return nil
}

// Package config provides configuration loading and management for voxmask.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"voxmask/pkg/thinning"
)

// DefaultPath is the configuration file looked up when none is given
const DefaultPath = "voxmask.yaml"

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Thinning controls the external thinning backend
	Thinning struct {
		// Python is the interpreter used to run the bundled ITK helper
		Python string `yaml:"python"`

		// Command replaces the bundled helper. Arguments may use the
		// placeholders {in} {out} {d} {h} {w} {sx} {sy} {sz}.
		Command []string `yaml:"command"`

		// Spacing is the voxel size along X, Y and Z handed to the backend
		Spacing [3]float64 `yaml:"spacing"`

		// Timeout bounds a single thinning run, e.g. "10m". Zero disables it.
		Timeout time.Duration `yaml:"timeout"`

		// TempDir is where exchange files are staged
		TempDir string `yaml:"tempDir"`

		// KeepTemp leaves exchange files behind for inspection
		KeepTemp bool `yaml:"keepTemp"`
	} `yaml:"thinning"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging on stderr
		Verbose bool `yaml:"verbose"`

		// CompressionLevel is the gzip level used for .nii.gz output. 0 and -1
		// both select the default level.
		CompressionLevel int `yaml:"compressionLevel"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Thinning.Python = "python3"
	cfg.Thinning.Spacing = thinning.UnitSpacing
	cfg.Thinning.Timeout = 0

	cfg.Output.Verbose = false
	cfg.Output.CompressionLevel = gzip.DefaultCompression

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", configPath)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	for i, s := range c.Thinning.Spacing {
		if s <= 0 {
			return errors.Wrapf(ErrInvalid, "thinning.spacing[%d] = %v, must be positive", i, s)
		}
	}
	if c.Thinning.Timeout < 0 {
		return errors.Wrapf(ErrInvalid, "thinning.timeout = %v", c.Thinning.Timeout)
	}
	if c.Thinning.Python == "" && len(c.Thinning.Command) == 0 {
		return errors.Wrap(ErrInvalid, "one of thinning.python or thinning.command is required")
	}
	level := c.Output.CompressionLevel
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return errors.Wrapf(ErrInvalid, "output.compressionLevel = %d", level)
	}
	return nil
}

// ThinningOperator builds the external thinning backend described by the config
func (c *Config) ThinningOperator() *thinning.External {
	return &thinning.External{
		Python:   c.Thinning.Python,
		Command:  c.Thinning.Command,
		Timeout:  c.Thinning.Timeout,
		TempDir:  c.Thinning.TempDir,
		KeepTemp: c.Thinning.KeepTemp,
	}
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Package config provides configuration loading and management for the
// kernel-phase extraction pipeline. It handles loading configuration from
// YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the pipeline configuration loaded from YAML.
type Config struct {
	// Extraction parameters
	Extraction struct {
		// GridSize is the interpolation neighborhood size for uv sampling
		GridSize int `yaml:"gridSize"`

		// WindowRadius is the super-Gaussian radius in pixels
		WindowRadius float64 `yaml:"windowRadius"`

		// WindowRadiusLD expresses the radius in lambda/D multiples
		// instead; non-positive values fall back to WindowRadius
		WindowRadiusLD float64 `yaml:"windowRadiusLD"`

		// PupilDiameter is D in meters for lambda/D mode; non-positive
		// values use the shortest baseline
		PupilDiameter float64 `yaml:"pupilDiameter"`

		// WFS returns raw uv-phases instead of kernel phases
		WFS bool `yaml:"wfs"`

		// NumWorkers sets the batch worker-pool size
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"extraction"`

	// Recentering parameters
	Recentering struct {
		// Enabled re-centers each frame before the transform
		Enabled bool `yaml:"enabled"`

		// Iterations is the center-locator iteration count
		Iterations int `yaml:"iterations"`

		// WindowWhenDisabled applies the apodization mask even when
		// recentring is off
		WindowWhenDisabled bool `yaml:"windowWhenDisabled"`
	} `yaml:"recentering"`

	// Bispectrum parameters
	Bispectrum struct {
		// Enabled turns on bispectral-phase extraction
		Enabled bool `yaml:"enabled"`

		// Lower and Upper bound the extracted triangle range
		Lower int `yaml:"lower"`
		Upper int `yaml:"upper"`

		// NonRedundant skips already-emitted baseline triples
		NonRedundant bool `yaml:"nonRedundant"`
	} `yaml:"bispectrum"`

	// Output parameters
	Output struct {
		// SaveImages keeps the centered image and Fourier grid on results
		SaveImages bool `yaml:"saveImages"`

		// DiagnosticsDir receives PNG dumps of the intermediates
		DiagnosticsDir string `yaml:"diagnosticsDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Extraction.GridSize = 5
	cfg.Extraction.WindowRadius = 25.0
	cfg.Extraction.WindowRadiusLD = 1.0
	cfg.Extraction.PupilDiameter = 0
	cfg.Extraction.WFS = false
	cfg.Extraction.NumWorkers = runtime.NumCPU()

	cfg.Recentering.Enabled = true
	cfg.Recentering.Iterations = 20
	cfg.Recentering.WindowWhenDisabled = true

	cfg.Bispectrum.Enabled = false
	cfg.Bispectrum.Lower = 0
	cfg.Bispectrum.Upper = 50000
	cfg.Bispectrum.NonRedundant = false

	cfg.Output.SaveImages = false
	cfg.Output.DiagnosticsDir = ""
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

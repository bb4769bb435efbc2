package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Crop   CropConfig   `json:"crop"`
	Output OutputConfig `json:"output"`
}

// CropConfig holds the passive crop-selection inputs forwarded to the
// interaction surface and the geometry engine
type CropConfig struct {
	Aspect          float64 `json:"aspect"`
	Circular        bool    `json:"circular"`
	RetainSelection bool    `json:"retain_selection"`
	Disabled        bool    `json:"disabled"`
	Locked          bool    `json:"locked"`
	MinWidth        float64 `json:"min_width"`
	MinHeight       float64 `json:"min_height"`
	MaxWidth        float64 `json:"max_width"`
	MaxHeight       float64 `json:"max_height"`
	RuleOfThirds    bool    `json:"rule_of_thirds"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir         string  `json:"dir"`
	PixelRatio  float64 `json:"pixel_ratio"`
	MaxDisplayW float64 `json:"max_display_width"`
	MaxDisplayH float64 `json:"max_display_height"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{},
		Output: OutputConfig{
			Dir:        "./output",
			PixelRatio: 1,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Crop.Aspect < 0 {
		return fmt.Errorf("crop.aspect must be positive or zero")
	}

	if c.Crop.MinWidth < 0 || c.Crop.MinHeight < 0 {
		return fmt.Errorf("crop minimum dimensions must not be negative")
	}

	if c.Crop.MaxWidth > 0 && c.Crop.MaxWidth < c.Crop.MinWidth {
		return fmt.Errorf("crop.max_width must not be smaller than crop.min_width")
	}

	if c.Crop.MaxHeight > 0 && c.Crop.MaxHeight < c.Crop.MinHeight {
		return fmt.Errorf("crop.max_height must not be smaller than crop.min_height")
	}

	if c.Output.PixelRatio < 0 {
		return fmt.Errorf("output.pixel_ratio must be positive or zero")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-cropper", "config.json")
}

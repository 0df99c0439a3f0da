package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the omtrack configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the omtrack configuration directory
const ConfigDirName = ".omtrack"

// Config holds all omtrack configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Analyze AnalyzeConfig `yaml:"analyze"`
	OCR     OCRConfig     `yaml:"ocr"`
	Serve   ServeConfig   `yaml:"serve"`
	Cache   CacheConfig   `yaml:"cache"`
}

// LogConfig holds configuration for the raw progression log
type LogConfig struct {
	// Path is the raw log file, relative paths resolve against the
	// directory containing .omtrack.
	Path string `yaml:"path"`
	// BaseYear is assumed when the log carries no year header line.
	// Zero means the current year.
	BaseYear int `yaml:"base_year"`
}

// AnalyzeConfig holds configuration for rate and prediction windows
type AnalyzeConfig struct {
	// RateWindowDays bounds the trailing window for recent-rate and
	// prediction computations. Zero means unbounded.
	RateWindowDays float64 `yaml:"rate_window_days"`
	// TargetPercent is the stage completion target for predictions.
	TargetPercent float64 `yaml:"target_percent"`
}

// OCRConfig holds configuration for screenshot text extraction
type OCRConfig struct {
	// TesseractPath is the tesseract binary to invoke.
	TesseractPath string `yaml:"tesseract_path"`
	// Extensions lists the image file extensions processed in a batch.
	Extensions []string `yaml:"extensions"`
}

// ServeConfig holds configuration for the dashboard server
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// CacheConfig holds configuration for the parsed-entry cache
type CacheConfig struct {
	// Enabled is a pointer so an explicit "enabled: false" in the config
	// file is distinguishable from an absent key.
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the cache is enabled. An unset value counts as
// disabled; Merge always sets it.
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .omtrack/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .omtrack directory by walking up from startDir.
// Returns the path to the .omtrack directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .omtrack directory if it doesn't exist.
// Returns the path to the .omtrack directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if cfg.Log.Path == "" {
		return fmt.Errorf("%w: log path must not be empty", ErrInvalidConfig)
	}

	if cfg.Analyze.RateWindowDays < 0 {
		return fmt.Errorf("%w: rate_window_days must be non-negative, got %f",
			ErrInvalidConfig, cfg.Analyze.RateWindowDays)
	}

	if cfg.Analyze.TargetPercent <= 0 || cfg.Analyze.TargetPercent > 100 {
		return fmt.Errorf("%w: target_percent must be in (0, 100], got %f",
			ErrInvalidConfig, cfg.Analyze.TargetPercent)
	}

	if cfg.Serve.Addr == "" {
		return fmt.Errorf("%w: serve addr must not be empty", ErrInvalidConfig)
	}

	for _, ext := range cfg.OCR.Extensions {
		if ext == "" || ext[0] != '.' {
			return fmt.Errorf("%w: ocr extension %q must start with a dot",
				ErrInvalidConfig, ext)
		}
	}

	return nil
}

// SaveDefault writes the default configuration to .omtrack/config.yaml in
// workDir. Creates the .omtrack directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# omtrack configuration\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}

package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces environment variables (DATALAB_DATA_DIR)
const EnvPrefix = "DATALAB"

// DataDirEnv is the one unprefixed variable read, as a fallback for DATALAB_DATA_DIR
const DataDirEnv = "DATA_DIR"

// Config represents the complete application configuration
type Config struct {
	DataDir       string          `yaml:"data_dir" split_words:"true"`
	Dataset       string          `yaml:"dataset" split_words:"true"`
	RemoveArchive bool            `yaml:"remove_archive" split_words:"true"`
	FetchTimeout  time.Duration   `yaml:"fetch_timeout" split_words:"true"`
	Split         SplitConfig     `yaml:"split" split_words:"true"`
	Logging       LoggingConfig   `yaml:"logging" split_words:"true"`
	Telemetry     TelemetryConfig `yaml:"telemetry" split_words:"true"`
}

// SplitConfig holds the default train/test split parameters
type SplitConfig struct {
	TestSize    float64 `yaml:"test_size" split_words:"true"`
	RandomState int64   `yaml:"random_state" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true"`
	Output   string `yaml:"output" split_words:"true"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig controls tracing and the batch metrics file
type TelemetryConfig struct {
	Trace       bool   `yaml:"trace" split_words:"true"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		DataDir:      "data",
		Dataset:      "housing",
		FetchTimeout: 10 * time.Second,
		Split: SplitConfig{
			TestSize:    0.2,
			RandomState: 42,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/datalab.log",
		},
	}
}

// Load loads configuration from .env, the optional YAML file and the environment.
// Precedence is environment, then file, then defaults.
func Load() (*Config, error) {
	return LoadFrom(".env", getConfigFilePath())
}

// LoadFrom is Load with explicit .env and YAML paths; empty paths are skipped.
func LoadFrom(envFile, configFile string) (*Config, error) {
	if envFile != "" {
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if dir, ok := os.LookupEnv(DataDirEnv); ok {
		cfg.DataDir = dir
	}

	// No default tags: unset variables leave file and default values alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data directory must be set (DATALAB_DATA_DIR or DATA_DIR)")
	}

	if c.Dataset == "" {
		return fmt.Errorf("dataset must be set")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	ts := c.Split.TestSize
	if math.IsNaN(ts) || ts <= 0 || ts >= 1 {
		return fmt.Errorf("split test size must be in (0, 1), got %v", ts)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/datalab.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"datalab.yaml",
		"configs/datalab.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Package config provides configuration management for evoprobe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jxucoder/evoprobe/pkg/generate/nvcf"
)

// Environment variable names.
const (
	EnvAPIKey      = "NVCF_RUN_KEY"
	EnvEndpoint    = "EVOPROBE_ENDPOINT"
	EnvOutputDir   = "EVOPROBE_OUTPUT_DIR"
	EnvDataDir     = "EVOPROBE_DATA_DIR"
	EnvTopK        = "EVOPROBE_TOP_K"
	EnvTimeout     = "EVOPROBE_TIMEOUT"
	EnvLogLevel    = "EVOPROBE_LOG_LEVEL"
	EnvMetricsFile = "EVOPROBE_METRICS_FILE"
)

// DefaultOutputDir is where results land unless overridden. It is relative
// to the working directory.
const DefaultOutputDir = "../03_out"

// Config holds all configuration for an evoprobe run.
type Config struct {
	// APIKey is the NVCF run key sent as a bearer token. It may be empty
	// after Load; the CLI then prompts for it.
	APIKey string

	// Endpoint is the generation URL.
	Endpoint string

	// OutputDir receives the JSON result files.
	OutputDir string

	// DataDir holds config.env and the run history database.
	DataDir string

	// DatabasePath is the full path to the SQLite history database.
	DatabasePath string

	// TopK is the sampling top-k sent with every request. Default: 4.
	TopK int

	// Timeout bounds a single generation call. Default: 5 minutes.
	Timeout time.Duration

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string

	// MetricsFile, when set, receives Prometheus metrics in textfile format.
	MetricsFile string
}

// Load creates a Config from the config file and environment variables.
// Values are resolved in order: environment variable > config file > default.
func Load() (*Config, error) {
	dataDir := envOr(EnvDataDir, DefaultDataDir())

	// godotenv.Load only sets variables that are not already present, so
	// real environment variables always win.
	if err := loadConfigFile(FilePath(dataDir)); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	cfg := &Config{
		APIKey:       os.Getenv(EnvAPIKey),
		Endpoint:     envOr(EnvEndpoint, nvcf.DefaultEndpoint),
		OutputDir:    envOr(EnvOutputDir, DefaultOutputDir),
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "history.db"),
		TopK:         envOrInt(EnvTopK, 4),
		Timeout:      envOrDuration(EnvTimeout, nvcf.DefaultTimeout),
		LogLevel:     envOr(EnvLogLevel, "info"),
		MetricsFile:  os.Getenv(EnvMetricsFile),
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a generation call.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s is required", EnvAPIKey)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("%s must not be empty", EnvEndpoint)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvTopK, c.TopK)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", EnvTimeout, c.Timeout)
	}
	return nil
}

// FilePath returns the config.env path inside dataDir.
func FilePath(dataDir string) string {
	return filepath.Join(dataDir, "config.env")
}

// ReadFile returns the key/value pairs stored in the config file at path.
// A missing file yields an empty map.
func ReadFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}

// WriteFile replaces the config file at path with values.
func WriteFile(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	// The file holds the API key.
	return os.Chmod(path, 0o600)
}

func loadConfigFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil // file doesn't exist or can't be read, that's fine
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DefaultDataDir returns ~/.evoprobe, or .evoprobe when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".evoprobe"
	}
	return filepath.Join(home, ".evoprobe")
}

package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment variable read by [ApplyEnv].
const EnvPrefix = "EMOSENSE_"

// CaptureIntervals lists the detection intervals (seconds) offered to the user.
var CaptureIntervals = []int{5, 10, 15}

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api" envPrefix:"API_"`
	Storage StorageConfig `toml:"storage" envPrefix:"DB_"`
	Capture CaptureConfig `toml:"capture" envPrefix:"CAPTURE_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// APIConfig contains settings for the remote authentication and detection API.
type APIConfig struct {
	BaseURL        string  `toml:"base_url" env:"URL"`
	Timeout        int     `toml:"timeout" env:"TIMEOUT"`
	UseCredentials bool    `toml:"use_credentials" env:"USE_CREDENTIALS"`
	RateLimit      float64 `toml:"rate_limit" env:"RATE_LIMIT"`
}

// StorageConfig contains settings for the local session database.
type StorageConfig struct {
	Path         string `toml:"path" env:"PATH"`
	PollInterval int    `toml:"poll_interval" env:"POLL_INTERVAL"`
}

// CaptureConfig contains settings for the frame source and capture cycle.
type CaptureConfig struct {
	Interval  int      `toml:"interval" env:"INTERVAL"`
	Source    string   `toml:"source" env:"SOURCE"`
	Directory string   `toml:"directory" env:"DIRECTORY"`
	Command   []string `toml:"command" env:"COMMAND" envSeparator:" "`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}

// RequestTimeout returns the API timeout as a [time.Duration].
func (c APIConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// PollEvery returns the session poll interval as a [time.Duration].
func (c StorageConfig) PollEvery() time.Duration {
	if c.PollInterval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollInterval) * time.Second
}

// Validate reports configuration values the application cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is empty", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Capture.Interval != 0 && !slices.Contains(CaptureIntervals, c.Capture.Interval) {
		return fmt.Errorf("%w: capture.interval must be one of %v", ErrInvalidConfig, CaptureIntervals)
	}
	switch c.Capture.Source {
	case "", "command", "directory":
	default:
		return fmt.Errorf("%w: unknown capture.source %q", ErrInvalidConfig, c.Capture.Source)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ApplyEnv loads variables from dotenvPath (when present) into the process environment
// and then overrides config fields from EMOSENSE_* variables.
func ApplyEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://0.0.0.0:8000/api" {
			t.Errorf("expected base URL http://0.0.0.0:8000/api, got %s", config.API.BaseURL)
		}
		if config.API.UseCredentials {
			t.Error("expected credentials to be omitted by default")
		}
		if config.Storage.Path != "./emosense.db" {
			t.Errorf("expected storage path ./emosense.db, got %s", config.Storage.Path)
		}
		if config.Capture.Interval != 5 {
			t.Errorf("expected capture interval 5, got %d", config.Capture.Interval)
		}
		if len(config.Capture.Command) == 0 || config.Capture.Command[0] != "ffmpeg" {
			t.Errorf("expected ffmpeg capture command, got %v", config.Capture.Command)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Storage.Path != DefaultConfig().Storage.Path {
			t.Errorf("created config storage path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[api]
base_url = "https://emotion.example.com/api"
timeout = 10
use_credentials = true

[storage]
path = "/custom/session.db"

[capture]
interval = 15
source = "directory"
directory = "/tmp/frames"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://emotion.example.com/api" {
			t.Errorf("expected custom base URL, got %s", config.API.BaseURL)
		}
		if config.API.RequestTimeout() != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", config.API.RequestTimeout())
		}
		if !config.API.UseCredentials {
			t.Error("expected use_credentials to be true")
		}
		if config.Capture.Source != "directory" || config.Capture.Interval != 15 {
			t.Errorf("unexpected capture config %+v", config.Capture)
		}
		if config.Storage.PollEvery() != 5*time.Second {
			t.Errorf("expected poll interval to keep default, got %v", config.Storage.PollEvery())
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("EMOSENSE_API_URL", "http://env.example.com")
		t.Setenv("EMOSENSE_CAPTURE_INTERVAL", "10")

		config := DefaultConfig()
		if err := ApplyEnv(config, ""); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}

		if config.API.BaseURL != "http://env.example.com" {
			t.Errorf("expected env base URL, got %s", config.API.BaseURL)
		}
		if config.Capture.Interval != 10 {
			t.Errorf("expected env interval 10, got %d", config.Capture.Interval)
		}
		if config.Storage.Path != "./emosense.db" {
			t.Errorf("unset env vars should keep values, got %s", config.Storage.Path)
		}
	})

	t.Run("ApplyEnv With Dotenv File", func(t *testing.T) {
		dotenv := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(dotenv, []byte("EMOSENSE_DB_PATH=/from/dotenv.db\n"), 0644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("EMOSENSE_DB_PATH") })

		config := DefaultConfig()
		if err := ApplyEnv(config, dotenv); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}
		if config.Storage.Path != "/from/dotenv.db" {
			t.Errorf("expected dotenv storage path, got %s", config.Storage.Path)
		}
	})

	t.Run("ApplyEnv Missing Dotenv Is Ignored", func(t *testing.T) {
		config := DefaultConfig()
		if err := ApplyEnv(config, filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("missing .env should be ignored, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "empty base URL", mutate: func(c *Config) { c.API.BaseURL = "" }},
			{name: "empty storage path", mutate: func(c *Config) { c.Storage.Path = "" }},
			{name: "negative rate limit", mutate: func(c *Config) { c.API.RateLimit = -1 }},
			{name: "interval outside choices", mutate: func(c *Config) { c.Capture.Interval = 7 }},
			{name: "unknown source", mutate: func(c *Config) { c.Capture.Source = "webcam" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the application configuration, loaded from a JSON file with
// environment variable overrides applied on top.
type Config struct {
	App       AppConfig       `json:"app"`
	Wallet    WalletConfig    `json:"wallet"`
	Authority AuthorityConfig `json:"authority"`
	Backend   BackendConfig   `json:"backend"`
}

type AppConfig struct {
	DataDir  string `json:"data_dir" env:"CHARGE_APP_DATA_DIR"`
	LogLevel string `json:"log_level" env:"CHARGE_APP_LOG_LEVEL"`
}

type WalletConfig struct {
	// Dir holds the credential file. Empty means <data_dir>/wallet.
	Dir string `json:"dir" env:"CHARGE_WALLET_DIR"`
}

// AuthorityConfig configures the transfer authority. Mode "mock" runs the
// in-process authority; mode "http" talks to a real endpoint.
type AuthorityConfig struct {
	Mode           string `json:"mode" env:"CHARGE_AUTHORITY_MODE"`
	BaseURL        string `json:"base_url" env:"CHARGE_AUTHORITY_BASE_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"CHARGE_AUTHORITY_TIMEOUT_SECONDS"`
}

// BackendConfig configures the auth/data backend.
type BackendConfig struct {
	URL            string `json:"url" env:"CHARGE_BACKEND_URL"`
	AnonKey        string `json:"anon_key" env:"CHARGE_BACKEND_ANON_KEY"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"CHARGE_BACKEND_TIMEOUT_SECONDS"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			DataDir:  "~/.chargewallet",
			LogLevel: "info",
		},
		Authority: AuthorityConfig{
			Mode:           "mock",
			TimeoutSeconds: 15,
		},
		Backend: BackendConfig{
			TimeoutSeconds: 15,
		},
	}
}

// LoadConfig reads the config file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config as indented JSON, creating the directory if
// needed.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyEnvOverrides() error {
	return env.Parse(c)
}

// DataDir returns the data directory with "~" expanded.
func (c *Config) DataDir() string {
	return expandHome(c.App.DataDir)
}

// WalletDir returns the credential directory, defaulting under the data dir.
func (c *Config) WalletDir() string {
	if c.Wallet.Dir != "" {
		return expandHome(c.Wallet.Dir)
	}
	return filepath.Join(c.DataDir(), "wallet")
}

// CachePath returns the local history cache database path.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir(), "cache.db")
}

// AuthorityTimeout returns the authority request timeout as a duration.
func (c *Config) AuthorityTimeout() time.Duration {
	if c.Authority.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Authority.TimeoutSeconds) * time.Second
}

// BackendTimeout returns the backend request timeout as a duration.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}

// Package config handles configuration loading and validation for tasktide.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnvVar overrides the configured AI API key when set.
const APIKeyEnvVar = "TASKTIDE_API_KEY"

// Config holds the application configuration.
type Config struct {
	Owner     OwnerConfig     `yaml:"owner"`
	AI        AIConfig        `yaml:"ai"`
	Database  DatabaseConfig  `yaml:"database"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// OwnerConfig identifies the signed-in user. An empty ID means
// unauthenticated: every subscription and write is suppressed.
type OwnerConfig struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
}

// AIConfig configures the chat completion endpoint.
type AIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the bound for a single completion call.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ResolveAPIKey returns the API key, preferring the environment variable
// over the config file so keys stay out of dotfiles.
func (a AIConfig) ResolveAPIKey() string {
	if key := os.Getenv(APIKeyEnvVar); key != "" {
		return key
	}
	return a.APIKey
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns  int `yaml:"max_open_conns"`
	MaxIdleConns  int `yaml:"max_idle_conns"`
	BusyTimeoutMS int `yaml:"busy_timeout_ms"`
}

// DashboardConfig tunes the dashboard view.
type DashboardConfig struct {
	UpcomingLimit int    `yaml:"upcoming_limit"`
	QuotePrompt   string `yaml:"quote_prompt"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			MaxOpenConns:  10,
			MaxIdleConns:  5,
			BusyTimeoutMS: 5000,
		},
		Dashboard: DashboardConfig{
			UpcomingLimit: 5,
			QuotePrompt:   "Give me one short motivational quote for a student. Reply with the quote only.",
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the
// provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = defaults.AI.BaseURL
	}
	if c.AI.Model == "" {
		c.AI.Model = defaults.AI.Model
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = defaults.AI.TimeoutSeconds
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = defaults.Database.BusyTimeoutMS
	}
	if c.Dashboard.UpcomingLimit == 0 {
		c.Dashboard.UpcomingLimit = defaults.Dashboard.UpcomingLimit
	}
	if c.Dashboard.QuotePrompt == "" {
		c.Dashboard.QuotePrompt = defaults.Dashboard.QuotePrompt
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.AI.BaseURL == "" {
		return fmt.Errorf("ai.base_url cannot be empty")
	}
	if c.AI.TimeoutSeconds < 1 {
		return fmt.Errorf("ai.timeout_seconds must be at least 1")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Dashboard.UpcomingLimit < 1 {
		return fmt.Errorf("dashboard.upcoming_limit must be at least 1")
	}
	return nil
}

// DatabaseFile returns the path to the SQLite database file.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "tasktide.db")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "tasktide.log")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, 30, cfg.AI.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Dashboard.UpcomingLimit)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "config.yml")

	content := `
owner:
  id: owner-1
  display_name: Ada
ai:
  base_url: https://llm.example.com/v1
  model: test-model
dashboard:
  upcoming_limit: 3
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, "owner-1", cfg.Owner.ID)
	assert.Equal(t, "Ada", cfg.Owner.DisplayName)
	assert.Equal(t, "https://llm.example.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, "test-model", cfg.AI.Model)
	assert.Equal(t, 3, cfg.Dashboard.UpcomingLimit)
	// Unset values still fall back to defaults.
	assert.Equal(t, 30, cfg.AI.TimeoutSeconds)
}

func TestLoad_InvalidConfig(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("ai:\n  timeout_seconds: -5\n"), 0o644))

	_, err := Load(configPath, dataDir)
	assert.ErrorContains(t, err, "timeout_seconds")
}

func TestAIConfig_ResolveAPIKey(t *testing.T) {
	cfg := AIConfig{APIKey: "from-file"}
	assert.Equal(t, "from-file", cfg.ResolveAPIKey())

	t.Setenv(APIKeyEnvVar, "from-env")
	assert.Equal(t, "from-env", cfg.ResolveAPIKey(), "environment wins over the config file")
}

func TestAIConfig_Timeout(t *testing.T) {
	cfg := AIConfig{TimeoutSeconds: 30}
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data directory"},
		{"empty base url", func(c *Config) { c.AI.BaseURL = "" }, "ai.base_url"},
		{"zero open conns", func(c *Config) { c.Database.MaxOpenConns = 0 }, "max_open_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

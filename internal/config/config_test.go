package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LOOM_PROVIDER", "LOOM_API_KEY", "LOOM_API_BASE", "LOOM_MODEL",
		"LOOM_DATA_DIR", "LOOM_STORE_BACKEND", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "loom", cfg.Name)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Generation.NumContinuations)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "loom-trees", cfg.Store.Name)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.SystemPrompt = "You continue stories."
	cfg.LLM.MaxRetries = 2
	cfg.Generation.Temperature = 0.7
	cfg.Store.Backend = "sqlite"
	cfg.Store.Driver = "sqlite"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.LLM.Provider)
	assert.Equal(t, "sk-test", loaded.LLM.APIKey)
	assert.Equal(t, "You continue stories.", loaded.LLM.SystemPrompt)
	assert.Equal(t, 2, loaded.LLM.MaxRetries)
	assert.InDelta(t, 0.7, loaded.Generation.Temperature, 1e-9)
	assert.Equal(t, "sqlite", loaded.Store.Driver)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Generation, cfg.Generation)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeFile(path, "llm: [unterminated"))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"anthropic without key", func(c *Config) {}, true},
		{"anthropic with key", func(c *Config) { c.LLM.APIKey = "k" }, false},
		{"ollama needs no key", func(c *Config) { c.LLM.Provider = "ollama" }, false},
		{"custom needs base", func(c *Config) { c.LLM.Provider = "custom" }, true},
		{"custom with base", func(c *Config) {
			c.LLM.Provider = "custom"
			c.LLM.APIBase = "http://localhost:1234/v1"
		}, false},
		{"negative retries", func(c *Config) { c.LLM.APIKey = "k"; c.LLM.MaxRetries = -1 }, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gemini"; c.LLM.APIKey = "k" }, true},
		{"zero continuations", func(c *Config) { c.LLM.APIKey = "k"; c.Generation.NumContinuations = 0 }, true},
		{"temperature out of range", func(c *Config) { c.LLM.APIKey = "k"; c.Generation.Temperature = 3 }, true},
		{"bad backend", func(c *Config) { c.LLM.APIKey = "k"; c.Store.Backend = "redis" }, true},
		{"bad driver", func(c *Config) {
			c.LLM.APIKey = "k"
			c.Store.Backend = "sqlite"
			c.Store.Driver = "pg"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetLLMTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Minute, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "30s"
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "garbage"
	assert.Equal(t, 10*time.Minute, cfg.GetLLMTimeout())
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	assert.Equal(t, "/data", cfg.StorePath())

	cfg.Store.Backend = "sqlite"
	assert.Equal(t, filepath.Join("/data", "loom.db"), cfg.StorePath())

	cfg.Store.Path = "/elsewhere/x.db"
	assert.Equal(t, "/elsewhere/x.db", cfg.StorePath())
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{}
	assert.False(t, c.IsCategoryEnabled("store"))

	c.DebugMode = true
	assert.True(t, c.IsCategoryEnabled("store"))

	c.Categories = map[string]bool{"store": false}
	assert.False(t, c.IsCategoryEnabled("store"))
	assert.True(t, c.IsCategoryEnabled("api"))
}

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("ANTHROPIC_API_KEY fills empty key for anthropic", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "ant-key", cfg.LLM.APIKey)
		assert.Equal(t, "anthropic", cfg.LLM.Provider)
	})

	t.Run("OPENAI_API_KEY ignored for anthropic provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Empty(t, cfg.LLM.APIKey)
	})

	t.Run("LOOM_PROVIDER switches provider before key lookup", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LOOM_PROVIDER", "openai")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
	})

	t.Run("explicit key is not replaced by provider key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := DefaultConfig()
		cfg.LLM.APIKey = "from-file"
		cfg.applyEnvOverrides()

		assert.Equal(t, "from-file", cfg.LLM.APIKey)
	})

	t.Run("LOOM_API_KEY wins over everything", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")
		t.Setenv("LOOM_API_KEY", "loom-key")

		cfg := DefaultConfig()
		cfg.LLM.APIKey = "from-file"
		cfg.applyEnvOverrides()

		assert.Equal(t, "loom-key", cfg.LLM.APIKey)
	})
}

func TestEnvOverrides_Paths(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOOM_API_BASE", "http://localhost:11434")
	t.Setenv("LOOM_DATA_DIR", "/tmp/loom")
	t.Setenv("LOOM_STORE_BACKEND", "sqlite")
	t.Setenv("LOOM_MODEL", "llama3")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://localhost:11434", cfg.LLM.APIBase)
	assert.Equal(t, "/tmp/loom", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "llama3", cfg.Generation.Model)
}

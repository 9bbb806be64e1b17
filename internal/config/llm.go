package config

import (
	"fmt"
	"slices"
)

// ValidProviders lists all supported provider kinds.
var ValidProviders = []string{"anthropic", "openai", "ollama", "custom"}

// LLMConfig configures the provider connection.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // anthropic, openai, ollama, custom
	APIKey       string `yaml:"api_key"`
	APIBase      string `yaml:"api_base"`      // Endpoint override; required for custom
	SystemPrompt string `yaml:"system_prompt"` // Prepended as a system message when non-empty
	Timeout      string `yaml:"timeout"`
	MaxRetries   int    `yaml:"max_retries"` // Retries for 429s and connection failures before streaming; 0 fails fast
}

// GenerationConfig holds the defaults for a generate request.
type GenerationConfig struct {
	NumContinuations int     `yaml:"num_continuations" json:"num_continuations"`
	Model            string  `yaml:"model" json:"model"`
	Temperature      float64 `yaml:"temperature" json:"temperature"`
}

// Validate checks the provider connection settings.
func (c *LLMConfig) Validate() error {
	if !slices.Contains(ValidProviders, c.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.Provider, ValidProviders)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	switch c.Provider {
	case "anthropic", "openai":
		if c.APIKey == "" {
			return fmt.Errorf("LLM API key not configured for %s (set api_key, LOOM_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY)", c.Provider)
		}
	case "custom":
		if c.APIBase == "" {
			return fmt.Errorf("custom provider requires api_base")
		}
	}
	return nil
}

// Validate checks the generation defaults.
func (g *GenerationConfig) Validate() error {
	if g.NumContinuations < 1 {
		return fmt.Errorf("num_continuations must be at least 1, got %d", g.NumContinuations)
	}
	if g.Model == "" {
		return fmt.Errorf("generation model not configured")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", g.Temperature)
	}
	return nil
}

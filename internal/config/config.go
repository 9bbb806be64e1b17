package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all loom configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	DataDir string `yaml:"data_dir"`

	// Provider connection (credential, endpoint, system prompt)
	LLM LLMConfig `yaml:"llm"`

	// Per-request generation defaults
	Generation GenerationConfig `yaml:"generation"`

	// Durable storage for the tree snapshot
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultDataDir returns ~/.loom, or .loom when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loom"
	}
	return filepath.Join(home, ".loom")
}

// DefaultConfigPath returns the default path to config.yaml inside the data dir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "loom",
		DataDir: DefaultDataDir(),

		LLM: LLMConfig{
			Provider: "anthropic",
			Timeout:  "10m",
		},

		Generation: GenerationConfig{
			NumContinuations: 3,
			Model:            "claude-sonnet-4-5",
			Temperature:      0.9,
		},

		Store: StoreConfig{
			Backend: "file",
			Driver:  "sqlite3",
			Name:    "loom-trees",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("LOOM_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}

	// Provider-specific keys only fill an empty credential for their own provider.
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "anthropic":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if key := os.Getenv("LOOM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if base := os.Getenv("LOOM_API_BASE"); base != "" {
		c.LLM.APIBase = base
	}
	if model := os.Getenv("LOOM_MODEL"); model != "" {
		c.Generation.Model = model
	}

	if dir := os.Getenv("LOOM_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if backend := os.Getenv("LOOM_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}
}

// LogsDir returns the directory category log files are written to.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// StorePath returns the resolved path for the configured store backend.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	if c.Store.Backend == "sqlite" {
		return filepath.Join(c.DataDir, "loom.db")
	}
	return c.DataDir
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Generation.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}

// Package generation produces streamed text completions from a language
// model. A Coordinator runs N completions for one prompt strictly one after
// another and reports the running text of each through a callback.
package generation

import (
	"context"
	"errors"
	"time"
)

// Provider identifies a backend kind.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	// ProviderCustom is any OpenAI-compatible endpoint.
	ProviderCustom Provider = "custom"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrInvalidSettings     = errors.New("invalid generation settings")
	ErrMissingAPIKey       = errors.New("API key not configured")
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Settings are the per-call generation parameters.
type Settings struct {
	NumContinuations int     `json:"num_continuations" yaml:"num_continuations"`
	Model            string  `json:"model" yaml:"model"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
}

// ProviderConfig selects and authenticates a backend.
type ProviderConfig struct {
	Provider     Provider
	APIKey       string
	APIBase      string // endpoint override; empty uses the provider default
	SystemPrompt string
	// Timeout bounds a single completion when the caller's context has no
	// deadline. Zero means no bound.
	Timeout time.Duration
	// MaxRetries is how many times a 429 or connection failure is retried
	// before any text is streamed. Zero fails fast.
	MaxRetries int
}

// Model is a resolved handle for one model on one backend.
type Model interface {
	Provider() Provider
	Name() string
	// Stream starts a completion. Text fragments arrive on the first channel,
	// which is closed when the stream ends. The error channel then yields at
	// most one error and is closed.
	Stream(ctx context.Context, messages []Message, temperature float64) (<-chan string, <-chan error)
}

// ChunkFunc receives the accumulated text of completion index. It is called
// once per fragment with done=false and then once with done=true. A non-nil
// return aborts generation.
type ChunkFunc func(index int, text string, done bool) error

package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"loom/internal/logging"
)

const defaultOllamaBase = "http://localhost:11434"

// OllamaModel streams from a local Ollama server. No credential is sent.
type OllamaModel struct {
	name       string
	baseURL    string
	timeout    time.Duration
	retries    int
	httpClient *http.Client
}

// NewOllamaModel returns a handle for model on an Ollama server.
func NewOllamaModel(cfg ProviderConfig, model string) *OllamaModel {
	base := cfg.APIBase
	if base == "" {
		base = defaultOllamaBase
	}
	return &OllamaModel{
		name:       model,
		baseURL:    strings.TrimRight(base, "/"),
		timeout:    cfg.Timeout,
		retries:    cfg.MaxRetries,
		httpClient: &http.Client{},
	}
}

func (m *OllamaModel) Provider() Provider { return ProviderOllama }
func (m *OllamaModel) Name() string       { return m.name }

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// Stream implements Model. The response is newline-delimited JSON.
func (m *OllamaModel) Stream(ctx context.Context, messages []Message, temperature float64) (<-chan string, <-chan error) {
	logging.APIDebug("[Ollama] Stream: starting model=%s messages=%d", m.name, len(messages))

	return openStream(ctx, m.httpClient, streamRequest{
		tag: "[Ollama]",
		url: m.baseURL + "/api/chat",
		body: ollamaRequest{
			Model:    m.name,
			Messages: messages,
			Stream:   true,
			Options:  ollamaOptions{Temperature: temperature},
		},
		timeout: m.timeout,
		retries: m.retries,
	}, decodeOllamaLine)
}

type ollamaChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func decodeOllamaLine(line string) (string, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false, nil
	}
	var chunk ollamaChunk
	if err := json.Unmarshal([]byte(line), &chunk); err != nil {
		return "", false, fmt.Errorf("malformed ollama chunk: %w", err)
	}
	if chunk.Error != "" {
		return "", false, errors.New(chunk.Error)
	}
	return chunk.Message.Content, chunk.Done, nil
}

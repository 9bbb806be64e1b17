package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"loom/internal/logging"
)

const (
	defaultOpenAIBase = "https://api.openai.com/v1"
	// customPlaceholderKey is sent to OpenAI-compatible endpoints that need no key.
	customPlaceholderKey = "dummy-key"
)

// OpenAIModel streams from an OpenAI chat-completions endpoint. It serves both
// the openai and custom providers.
type OpenAIModel struct {
	provider   Provider
	name       string
	apiKey     string
	baseURL    string
	timeout    time.Duration
	retries    int
	httpClient *http.Client
}

// NewOpenAIModel returns a handle for model on the OpenAI API.
func NewOpenAIModel(cfg ProviderConfig, model string) *OpenAIModel {
	return newOpenAICompatible(ProviderOpenAI, cfg, cfg.APIKey, model)
}

// NewCustomModel returns a handle for model on an OpenAI-compatible endpoint.
// A missing key is replaced by a placeholder.
func NewCustomModel(cfg ProviderConfig, model string) *OpenAIModel {
	key := cfg.APIKey
	if key == "" {
		key = customPlaceholderKey
	}
	return newOpenAICompatible(ProviderCustom, cfg, key, model)
}

func newOpenAICompatible(p Provider, cfg ProviderConfig, key, model string) *OpenAIModel {
	base := cfg.APIBase
	if base == "" {
		base = defaultOpenAIBase
	}
	return &OpenAIModel{
		provider:   p,
		name:       model,
		apiKey:     key,
		baseURL:    strings.TrimRight(base, "/"),
		timeout:    cfg.Timeout,
		retries:    cfg.MaxRetries,
		httpClient: &http.Client{},
	}
}

func (m *OpenAIModel) Provider() Provider { return m.provider }
func (m *OpenAIModel) Name() string       { return m.name }

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// Stream implements Model.
func (m *OpenAIModel) Stream(ctx context.Context, messages []Message, temperature float64) (<-chan string, <-chan error) {
	logging.APIDebug("[OpenAI] Stream: starting provider=%s model=%s messages=%d", m.provider, m.name, len(messages))

	return openStream(ctx, m.httpClient, streamRequest{
		tag: "[OpenAI]",
		url: m.baseURL + "/chat/completions",
		headers: map[string]string{
			"Authorization": "Bearer " + m.apiKey,
			"Accept":        "text/event-stream",
		},
		body: openAIRequest{
			Model:       m.name,
			Messages:    messages,
			Temperature: temperature,
			Stream:      true,
		},
		timeout: m.timeout,
		retries: m.retries,
	}, decodeOpenAILine)
}

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func decodeOpenAILine(line string) (string, bool, error) {
	data, ok := sseData(line)
	if !ok {
		return "", false, nil
	}
	if data == "[DONE]" {
		return "", true, nil
	}
	var chunk openAIChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", false, fmt.Errorf("malformed openai chunk: %w", err)
	}
	if chunk.Error != nil {
		return "", false, fmt.Errorf("API error: %s", chunk.Error.Message)
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, false, nil
}

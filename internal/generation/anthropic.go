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
	defaultAnthropicBase = "https://api.anthropic.com/v1"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 4096
)

// AnthropicModel streams from the Anthropic Messages API.
type AnthropicModel struct {
	name       string
	apiKey     string
	baseURL    string
	timeout    time.Duration
	retries    int
	httpClient *http.Client
}

// NewAnthropicModel returns a handle for model on the Anthropic API.
func NewAnthropicModel(cfg ProviderConfig, model string) *AnthropicModel {
	base := cfg.APIBase
	if base == "" {
		base = defaultAnthropicBase
	}
	return &AnthropicModel{
		name:       model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(base, "/"),
		timeout:    cfg.Timeout,
		retries:    cfg.MaxRetries,
		httpClient: &http.Client{},
	}
}

func (m *AnthropicModel) Provider() Provider { return ProviderAnthropic }
func (m *AnthropicModel) Name() string       { return m.name }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream"`
}

// Stream implements Model. System messages are lifted into the top-level
// system field.
func (m *AnthropicModel) Stream(ctx context.Context, messages []Message, temperature float64) (<-chan string, <-chan error) {
	logging.APIDebug("[Anthropic] Stream: starting model=%s messages=%d", m.name, len(messages))

	var system []string
	req := anthropicRequest{
		Model:       m.name,
		MaxTokens:   anthropicMaxTokens,
		Temperature: temperature,
		Stream:      true,
	}
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
	}
	req.System = strings.Join(system, "\n\n")

	return openStream(ctx, m.httpClient, streamRequest{
		tag: "[Anthropic]",
		url: m.baseURL + "/messages",
		headers: map[string]string{
			"x-api-key":         m.apiKey,
			"anthropic-version": anthropicVersion,
			"Accept":            "text/event-stream",
		},
		body:    req,
		timeout: m.timeout,
		retries: m.retries,
	}, decodeAnthropicLine)
}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func decodeAnthropicLine(line string) (string, bool, error) {
	data, ok := sseData(line)
	if !ok {
		return "", false, nil
	}
	if data == "[DONE]" {
		return "", true, nil
	}
	var evt anthropicEvent
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return "", false, fmt.Errorf("malformed anthropic event: %w", err)
	}
	switch {
	case evt.Error != nil:
		return "", false, fmt.Errorf("API error: %s", evt.Error.Message)
	case evt.Type == "message_stop":
		return "", true, nil
	case evt.Type == "content_block_delta" && evt.Delta != nil:
		return evt.Delta.Text, false, nil
	}
	return "", false, nil
}

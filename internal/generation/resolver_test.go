package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ProviderConfig
		wantType any
		wantErr  error
	}{
		{"anthropic", ProviderConfig{Provider: ProviderAnthropic, APIKey: "sk-ant"}, &AnthropicModel{}, nil},
		{"anthropic without key", ProviderConfig{Provider: ProviderAnthropic}, nil, ErrMissingAPIKey},
		{"openai", ProviderConfig{Provider: ProviderOpenAI, APIKey: "sk"}, &OpenAIModel{}, nil},
		{"openai without key", ProviderConfig{Provider: ProviderOpenAI}, nil, ErrMissingAPIKey},
		{"ollama needs no key", ProviderConfig{Provider: ProviderOllama}, &OllamaModel{}, nil},
		{"custom without key", ProviderConfig{Provider: ProviderCustom, APIBase: "http://x"}, &OpenAIModel{}, nil},
		{"unknown", ProviderConfig{Provider: "gemini"}, nil, ErrUnsupportedProvider},
		{"empty", ProviderConfig{}, nil, ErrUnsupportedProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ResolveModel(tt.cfg, "some-model")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, m)
			assert.Equal(t, tt.cfg.Provider, m.Provider())
			assert.Equal(t, "some-model", m.Name())
		})
	}
}

func TestResolveModel_Defaults(t *testing.T) {
	m, err := ResolveModel(ProviderConfig{Provider: ProviderCustom}, "m")
	require.NoError(t, err)
	custom := m.(*OpenAIModel)
	assert.Equal(t, customPlaceholderKey, custom.apiKey)
	assert.Equal(t, defaultOpenAIBase, custom.baseURL)

	m, err = ResolveModel(ProviderConfig{Provider: ProviderOllama, APIBase: "http://gpu:11434/"}, "llama3")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu:11434", m.(*OllamaModel).baseURL)

	m, err = ResolveModel(ProviderConfig{Provider: ProviderAnthropic, APIKey: "k"}, "claude")
	require.NoError(t, err)
	assert.Equal(t, defaultAnthropicBase, m.(*AnthropicModel).baseURL)
}

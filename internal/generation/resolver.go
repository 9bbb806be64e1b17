package generation

import "fmt"

// Resolver maps a provider configuration and model name to a Model.
type Resolver func(cfg ProviderConfig, model string) (Model, error)

// ResolveModel is the default Resolver. It performs no I/O. The anthropic and
// openai providers require a key; ollama takes none and custom falls back to
// a placeholder.
func ResolveModel(cfg ProviderConfig, model string) (Model, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingAPIKey)
		}
		return NewAnthropicModel(cfg, model), nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingAPIKey)
		}
		return NewOpenAIModel(cfg, model), nil

	case ProviderOllama:
		return NewOllamaModel(cfg, model), nil

	case ProviderCustom:
		return NewCustomModel(cfg, model), nil

	default:
		return nil, fmt.Errorf("%w: %q (valid: anthropic, openai, ollama, custom)", ErrUnsupportedProvider, cfg.Provider)
	}
}

package provider

import (
	"fmt"
	"strings"

	"muhabbet/model"
)

// NewProvider creates a provider based on configuration.
//
// Supported provider types:
//   - ProviderTypeOpenAI: OpenAI Chat Completions (default when Type is empty)
//   - ProviderTypeOpenRouter: OpenRouter through the OpenAI SDK
//   - ProviderTypeAnthropic: Anthropic Messages API
//   - ProviderTypeOllama: Local Ollama server
//
// Returns an error if the provider type is unknown or the provider-specific
// constructor fails (e.g., missing API key, invalid URL).
func NewProvider(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case ProviderTypeOpenAI, "":
		return asProvider(NewOpenAIProvider(cfg))
	case ProviderTypeOpenRouter:
		return asProvider(NewOpenRouterProvider(cfg))
	case ProviderTypeAnthropic:
		return asProvider(NewAnthropicProvider(cfg))
	case ProviderTypeOllama:
		return asProvider(NewOllamaProvider(cfg))
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// asProvider keeps a typed nil pointer out of the returned interface.
func asProvider[P model.Provider](p P, err error) (model.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MapProviderIDToType converts a config provider ID to a factory ProviderType.
//
// Matching is case-insensitive. For unknown IDs, returns the ID cast as
// ProviderType (factory will error).
func MapProviderIDToType(id string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "", "openai":
		return ProviderTypeOpenAI
	case "openrouter":
		return ProviderTypeOpenRouter
	case "anthropic", "claude":
		return ProviderTypeAnthropic
	case "ollama":
		return ProviderTypeOllama
	default:
		return ProviderType(id)
	}
}

// RequiresAPIKey reports whether the backend refuses to start without a key.
func (t ProviderType) RequiresAPIKey() bool {
	return t != ProviderTypeOllama
}

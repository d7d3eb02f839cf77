package provider

import (
	"errors"

	"github.com/openai/openai-go/v3/option"
)

// OpenRouterProvider connects to OpenRouter's API, which is OpenAI-compatible,
// through the OpenAI SDK.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
//
// Defaults: BaseURL "https://openrouter.ai/api/v1", Model "openai/gpt-4o".
// Returns an error if the API key is missing.
func NewOpenRouterProvider(cfg Config) (*OpenRouterProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.APIKey == "" {
		return nil, errors.New("OpenRouter API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "openai/" + DefaultModel
	}

	// OpenRouter attributes traffic to the app by this header.
	p := newOpenAICompatible(cfg,
		option.WithHeader("X-Title", "Muhabbet AI"),
	)
	return &OpenRouterProvider{OpenAIProvider: p}, nil
}

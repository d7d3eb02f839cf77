// Package provider implements the LLM backends and the gateway in front of them.
//
// muhabbet talks to exactly one completion backend per deployment (OpenAI,
// OpenRouter, Anthropic or Ollama) through the model.Provider interface. The
// Gateway wraps a text backend and an optional vision backend and turns every
// outcome, including failures, into a model.Reply the chat layer can show.
//
// # Type Conversions
//
// Each backend converts model.Turn values into its SDK's message type. See
// conversions.go:
//   - ConvertToOpenAIMessages
//   - ConvertToAnthropicMessages
//   - ConvertToOllamaMessages
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:   provider.ProviderTypeOpenAI,
//	    APIKey: "sk-...",
//	    Model:  "gpt-4o",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	gw := provider.NewGateway(p, p, logger)
//	reply := gw.Complete(ctx, req, false)
package provider

// Note: The Provider interface is defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// DefaultModel is used when no model is configured for the OpenAI backend.
const DefaultModel = "gpt-4o"

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For OpenAI/OpenRouter/Anthropic (unused for Ollama)
}

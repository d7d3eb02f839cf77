package model

import "context"

// Provider abstracts LLM backend implementations (OpenAI, OpenRouter,
// Anthropic, Ollama) using the provider-agnostic types of this package.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations can import model, and the chat layer
// can use the Provider interface without importing the provider package.
type Provider interface {
	// Complete sends the request as a single non-streamed call and returns the
	// text of the first choice. An empty string with a nil error means the
	// backend answered without content.
	Complete(ctx context.Context, req Request) (string, error)

	// GetModel returns the currently selected model name as sent to the API.
	GetModel() string

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

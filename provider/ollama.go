package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"muhabbet/model"
)

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	client  *api.Client
	model   string
	baseURL string
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Defaults: BaseURL "http://localhost:11434", Model "llama3.2-vision:latest".
// Returns an error if the baseURL is invalid.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2-vision:latest"
	}

	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	// Deadlines come from the caller's context only.
	return &OllamaProvider{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
	}, nil
}

// Complete implements Provider.Complete with stream disabled, so the callback
// runs once with the full message.
func (p *OllamaProvider) Complete(ctx context.Context, req model.Request) (string, error) {
	messages, err := ConvertToOllamaMessages(req.Messages)
	if err != nil {
		return "", err
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var content string
	err = p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama chat failed: %w", err)
	}
	return content, nil
}

// GetModel implements Provider.GetModel.
func (p *OllamaProvider) GetModel() string {
	return p.model
}


// Ping implements Provider.Ping using the server heartbeat.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("Ollama ping failed: %w", err)
	}
	return nil
}

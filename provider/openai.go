package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"muhabbet/model"
)

// OpenAIProvider implements the Provider interface using OpenAI's official API.
// Any OpenAI-compatible endpoint works through BaseURL.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Defaults: BaseURL "https://api.openai.com/v1", Model "gpt-4o".
// Returns an error if the API key is missing.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return newOpenAICompatible(cfg), nil
}

func newOpenAICompatible(cfg Config, extra ...option.RequestOption) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		// One request per call; the gateway decides what a failure means.
		option.WithMaxRetries(0),
	}
	opts = append(opts, extra...)

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Complete implements Provider.Complete with a single non-streamed request.
func (p *OpenAIProvider) Complete(ctx context.Context, req model.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(req.Messages),
		Model:    openai.ChatModel(p.model),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

// GetModel implements Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}


// Ping implements Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}

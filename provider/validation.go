package provider

import (
	"context"
	"fmt"

	"muhabbet/config"
)

// ValidateSettings checks that cfg names a known backend and carries the key
// that backend needs, after the general checks of config.Validate.
func ValidateSettings(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	t := MapProviderIDToType(cfg.Provider.Type)
	switch t {
	case ProviderTypeOpenAI, ProviderTypeOpenRouter, ProviderTypeAnthropic, ProviderTypeOllama:
	default:
		return fmt.Errorf("unknown provider type: %s", cfg.Provider.Type)
	}
	if t.RequiresAPIKey() && cfg.Provider.APIKey == "" {
		return fmt.Errorf("%w for %s (set provider.api_key, MUHABBET_API_KEY or AI_INTEGRATIONS_OPENAI_API_KEY)",
			config.ErrMissingAPIKey, t)
	}
	return nil
}

// PingProvider validates a backend's reachability and credentials by calling
// Ping. Used by the check command before a server is started.
func PingProvider(ctx context.Context, cfg Config) error {
	p, err := NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}

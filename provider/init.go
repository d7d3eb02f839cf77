package provider

import (
	"fmt"

	"github.com/rs/zerolog"

	"muhabbet/config"
	"muhabbet/model"
)

// ConfigFromSettings maps the [provider] section of the application config to
// a backend Config.
func ConfigFromSettings(cfg *config.Config) Config {
	return Config{
		Type:    MapProviderIDToType(cfg.Provider.Type),
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		APIKey:  cfg.Provider.APIKey,
	}
}

// NewGatewayFromConfig builds the text backend and, when vision is enabled,
// a second backend for image requests.
//
// A vision backend that fails to initialize is logged and left out; the
// gateway then answers image requests with the vision-disabled text instead
// of refusing to start.
func NewGatewayFromConfig(cfg *config.Config, logger zerolog.Logger) (*Gateway, error) {
	textCfg := ConfigFromSettings(cfg)
	text, err := NewProvider(textCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s provider: %w", textCfg.Type, err)
	}

	var vision model.Provider
	if cfg.VisionEnabled() {
		visionCfg := textCfg
		visionCfg.APIKey = cfg.VisionAPIKey()
		visionCfg.Model = cfg.VisionModel()

		vision, err = NewProvider(visionCfg)
		if err != nil {
			logger.Warn().Err(err).Str("provider", string(visionCfg.Type)).Msg("vision backend disabled")
			vision = nil
		}
	}

	logger.Info().
		Str("provider", string(textCfg.Type)).
		Str("model", text.GetModel()).
		Bool("vision", vision != nil).
		Msg("providers initialized")

	return NewGateway(text, vision, logger), nil
}

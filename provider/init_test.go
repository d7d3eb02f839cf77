package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muhabbet/config"
	"muhabbet/model"
	"muhabbet/provider/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestNewGatewayFromConfig(t *testing.T) {
	t.Run("openai with vision key", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.APIKey = "sk-text"
		cfg.Vision.Model = "gpt-4o-mini"

		gw, err := NewGatewayFromConfig(cfg, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", gw.Model())
		assert.True(t, gw.VisionAvailable())
		assert.Equal(t, "gpt-4o-mini", gw.vision.GetModel())
	})

	t.Run("vision explicitly disabled", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.APIKey = "sk-text"
		cfg.Vision.Enabled = boolPtr(false)

		gw, err := NewGatewayFromConfig(cfg, zerolog.Nop())
		require.NoError(t, err)
		assert.False(t, gw.VisionAvailable())
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.Type = "ollama"
		cfg.Provider.Model = "llama3.2"
		cfg.Provider.BaseURL = "http://127.0.0.1:11434"

		gw, err := NewGatewayFromConfig(cfg, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "llama3.2", gw.Model())
		assert.False(t, gw.VisionAvailable())
	})

	t.Run("missing key fails", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.Type = "anthropic"

		_, err := NewGatewayFromConfig(cfg, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestNewGatewayFromConfig_NoClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Merhaba"},"finish_reason":"stop"}]}`)
	}))
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Provider.APIKey = "sk"
	cfg.Provider.BaseURL = srv.URL
	cfg.Vision.Enabled = boolPtr(false)
	// chat_timeout belongs to the HTTP layer; the backend client must not
	// apply it.
	cfg.ChatTimeout = 20 * time.Millisecond

	gw, err := NewGatewayFromConfig(cfg, zerolog.Nop())
	require.NoError(t, err)

	reply := gw.Complete(context.Background(), testutil.TextRequest("Selam"), false)
	assert.Equal(t, model.ReplyOK, reply.Kind)
	assert.Equal(t, "Merhaba", reply.Text)
}

func TestPingProvider_UnknownType(t *testing.T) {
	err := PingProvider(context.Background(), Config{Type: "gemini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create provider")
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  error
		unknown  bool
	}{
		{name: "openai default needs a key", wantErr: config.ErrMissingAPIKey},
		{name: "openai with key", provider: "openai", apiKey: "sk"},
		{name: "openrouter needs a key", provider: "openrouter", wantErr: config.ErrMissingAPIKey},
		{name: "claude alias needs a key", provider: "Claude", wantErr: config.ErrMissingAPIKey},
		{name: "claude alias with key", provider: "claude", apiKey: "sk-ant"},
		{name: "ollama needs no key", provider: "ollama"},
		{name: "unknown type", provider: "gemini", apiKey: "x", unknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Provider.Type = tt.provider
			cfg.Provider.APIKey = tt.apiKey

			err := ValidateSettings(cfg)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.unknown:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown provider type")
			default:
				assert.NoError(t, err)
			}
		})
	}

	t.Run("general checks still apply", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.APIKey = "sk"
		cfg.ChatTimeout = -time.Second
		assert.Error(t, ValidateSettings(cfg))
	})
}

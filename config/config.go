package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type ProviderConfig struct {
	Type    string `toml:"type"`
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
	Model   string `toml:"model"`
}

// VisionConfig controls image analysis. Enabled is a pointer so an absent key
// can mean "on whenever a credential exists".
type VisionConfig struct {
	Enabled *bool  `toml:"enabled,omitempty"`
	Model   string `toml:"model,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
}

type PersonaConfig struct {
	Name     string `toml:"name"`
	Creator  string `toml:"creator"`
	Timezone string `toml:"timezone"`
}

type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint,omitempty"`
}

type SecurityConfig struct {
	CredentialStorage SecurityMethod `toml:"credential_storage"`
	SSHKeyPath        string         `toml:"ssh_key_path,omitempty"`
}

type Config struct {
	DataDirectory  string          `toml:"data_directory"`
	ListenAddr     string          `toml:"listen_addr"`
	ChatTimeout    time.Duration   `toml:"chat_timeout"`
	LogLevel       string          `toml:"log_level"`
	AllowedOrigins []string        `toml:"allowed_origins"`
	Provider       ProviderConfig  `toml:"provider"`
	Vision         VisionConfig    `toml:"vision"`
	Persona        PersonaConfig   `toml:"persona"`
	Telemetry      TelemetryConfig `toml:"telemetry"`
	Security       SecurityConfig  `toml:"security"`

	// CredentialStore holds keys that are not written in this file.
	CredentialStore *CredentialStore `toml:"-"`
}

// ErrMissingAPIKey is returned when a cloud backend has no key.
var ErrMissingAPIKey = errors.New("provider API key is required")

// DataDir returns the expanded data directory, or the platform default when
// none is set.
func (c *Config) DataDir() string {
	if strings.TrimSpace(c.DataDirectory) == "" {
		return GetDefaultDataDir()
	}
	return ExpandPath(c.DataDirectory)
}

// ProviderType returns the normalized backend type.
func (c *Config) ProviderType() string {
	t := strings.ToLower(strings.TrimSpace(c.Provider.Type))
	if t == "" {
		return "openai"
	}
	return t
}

// VisionAPIKey returns the credential used for image requests: the dedicated
// vision key, or the provider key.
func (c *Config) VisionAPIKey() string {
	if c.Vision.APIKey != "" {
		return c.Vision.APIKey
	}
	return c.Provider.APIKey
}

// VisionEnabled reports whether image analysis should be offered. An
// explicit enabled=false wins; otherwise vision follows the credential.
func (c *Config) VisionEnabled() bool {
	if c.Vision.Enabled != nil && !*c.Vision.Enabled {
		return false
	}
	if c.ProviderType() == "ollama" {
		return c.Vision.Enabled != nil && *c.Vision.Enabled
	}
	return c.VisionAPIKey() != ""
}

// VisionModel returns the model used for image requests.
func (c *Config) VisionModel() string {
	if c.Vision.Model != "" {
		return c.Vision.Model
	}
	return c.Provider.Model
}

// Validate checks the settings that do not depend on the backend. Backend
// type and key checks live in provider.ValidateSettings.
func (c *Config) Validate() error {
	if c.ChatTimeout < 0 {
		return fmt.Errorf("chat_timeout must not be negative: %s", c.ChatTimeout)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MUHABBET_PROVIDER"); v != "" {
		c.Provider.Type = v
	}

	// Variables of the hosted deployment this service replaces.
	if key := os.Getenv("AI_INTEGRATIONS_OPENAI_API_KEY"); key != "" && c.ProviderType() == "openai" {
		c.Provider.APIKey = key
	}
	if url := os.Getenv("AI_INTEGRATIONS_OPENAI_BASE_URL"); url != "" && c.ProviderType() == "openai" {
		c.Provider.BaseURL = url
	}

	if v := os.Getenv("MUHABBET_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("MUHABBET_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("MUHABBET_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("MUHABBET_VISION_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := os.Getenv("MUHABBET_VISION_API_KEY"); v != "" {
		c.Vision.APIKey = v
	}
	if v := os.Getenv("MUHABBET_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MUHABBET_DATA_DIR"); v != "" {
		c.DataDirectory = v
	}
	if v := os.Getenv("MUHABBET_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MUHABBET_CHAT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ChatTimeout = d
		}
	}
	if v := os.Getenv("MUHABBET_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = v
	}
	if CheckDebug() {
		c.LogLevel = "debug"
	}
}

// applyCredentials fills empty keys from the credential store. Keys are
// stored under the provider type, and the vision key under "vision".
func (c *Config) applyCredentials() {
	if c.CredentialStore == nil {
		return
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = c.CredentialStore.Get(c.ProviderType())
	}
	if c.Vision.APIKey == "" {
		c.Vision.APIKey = c.CredentialStore.Get("vision")
	}
}

func CheckDebug() bool {
	debug := os.Getenv("MUHABBET_DEBUG")
	return debug == "true" || debug == "1"
}

// Load reads the config file at path (the default location when empty),
// creating it from the template when missing, then applies environment
// overrides and stored credentials.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	store := NewCredentialStore(cfg.Security.CredentialStorage, cfg.Security.SSHKeyPath)
	store.SetPassphrase(os.Getenv("MUHABBET_SSH_PASSPHRASE"))
	if err := store.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = store
	cfg.applyCredentials()

	return cfg, nil
}

package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// clearEnv keeps the developer's shell from leaking into Load.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MUHABBET_PROVIDER", "MUHABBET_BASE_URL", "MUHABBET_API_KEY", "MUHABBET_MODEL",
		"MUHABBET_VISION_MODEL", "MUHABBET_VISION_API_KEY", "MUHABBET_LISTEN_ADDR",
		"MUHABBET_DATA_DIR", "MUHABBET_LOG_LEVEL", "MUHABBET_CHAT_TIMEOUT",
		"MUHABBET_OTLP_ENDPOINT", "MUHABBET_DEBUG",
		"AI_INTEGRATIONS_OPENAI_API_KEY", "AI_INTEGRATIONS_OPENAI_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_CreatesTemplate(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("MUHABBET_DATA_DIR", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "conf", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, FileExists(path))
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultChatTimeout, cfg.ChatTimeout)
	assert.Equal(t, "openai", cfg.ProviderType())
	assert.Equal(t, "Muhabbet AI", cfg.Persona.Name)

	// The written template must decode to the same defaults.
	again, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Provider.Model, again.Provider.Model)
	assert.Equal(t, DefaultChatTimeout, again.ChatTimeout)
	assert.Equal(t, SecurityPlainText, again.Security.CredentialStorage)
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
data_directory = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"
listen_addr = "127.0.0.1:8080"
chat_timeout = "30s"

[provider]
type = "Anthropic"
model = "claude-sonnet-4-5"
api_key = "sk-ant"

[vision]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "anthropic", cfg.ProviderType())
	assert.False(t, cfg.VisionEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_INTEGRATIONS_OPENAI_API_KEY", "sk-hosted")
	t.Setenv("AI_INTEGRATIONS_OPENAI_BASE_URL", "https://proxy.example/v1")
	t.Setenv("MUHABBET_MODEL", "gpt-4o-mini")
	t.Setenv("MUHABBET_CHAT_TIMEOUT", "15s")
	t.Setenv("MUHABBET_OTLP_ENDPOINT", "http://collector:4318")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "sk-hosted", cfg.Provider.APIKey)
	assert.Equal(t, "https://proxy.example/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, 15*time.Second, cfg.ChatTimeout)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://collector:4318", cfg.Telemetry.Endpoint)
}

func TestEnvOverrides_HostedKeyOnlyForOpenAI(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUHABBET_PROVIDER", "ollama")
	t.Setenv("AI_INTEGRATIONS_OPENAI_API_KEY", "sk-hosted")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "ollama", cfg.ProviderType())
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestEnvOverrides_ExplicitKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_INTEGRATIONS_OPENAI_API_KEY", "sk-hosted")
	t.Setenv("MUHABBET_API_KEY", "sk-own")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, "sk-own", cfg.Provider.APIKey)
}

func TestEnvOverrides_Debug(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUHABBET_DEBUG", "1")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestVisionEnabled(t *testing.T) {
	on, off := true, false

	tests := []struct {
		name     string
		provider string
		apiKey   string
		vision   VisionConfig
		want     bool
	}{
		{"cloud with key", "openai", "sk", VisionConfig{}, true},
		{"cloud without key", "openai", "", VisionConfig{}, false},
		{"dedicated vision key", "openai", "", VisionConfig{APIKey: "sk-v"}, true},
		{"explicitly off", "anthropic", "sk", VisionConfig{Enabled: &off}, false},
		{"ollama default off", "ollama", "", VisionConfig{}, false},
		{"ollama opted in", "ollama", "", VisionConfig{Enabled: &on}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Provider.Type = tt.provider
			cfg.Provider.APIKey = tt.apiKey
			cfg.Vision = tt.vision
			assert.Equal(t, tt.want, cfg.VisionEnabled())
		})
	}
}

func TestVisionModelFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gpt-4o", cfg.VisionModel())
	cfg.Vision.Model = "gpt-4o-mini"
	assert.Equal(t, "gpt-4o-mini", cfg.VisionModel())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.ChatTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestCredentialStore_PlainText(t *testing.T) {
	dir := t.TempDir()

	store := NewCredentialStore("", "")
	assert.Equal(t, SecurityPlainText, store.GetMethod())
	store.Set("openai", "sk-stored")
	store.Set("vision", "sk-vision")
	require.NoError(t, store.Save(dir))

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := NewCredentialStore(SecurityPlainText, "")
	require.NoError(t, loaded.Load(dir))
	assert.Equal(t, []string{"openai", "vision"}, loaded.Keys())
	assert.Equal(t, "sk-stored", loaded.Get("openai"))

	loaded.Delete("vision")
	assert.Empty(t, loaded.Get("vision"))
}

func TestCredentialStore_MissingFileIsEmpty(t *testing.T) {
	store := NewCredentialStore(SecuritySSHKey, filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, store.Load(t.TempDir()))
	assert.Empty(t, store.Keys())
}

func writeTestKey(t *testing.T, dir string) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "test")
	require.NoError(t, err)

	path := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))
	return path
}

func TestCredentialStore_SSHKeyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestKey(t, dir)

	store := NewCredentialStore(SecuritySSHKey, keyPath)
	store.Set("anthropic", "sk-ant-secret")
	require.NoError(t, store.Save(dir))

	raw, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-ant-secret")

	loaded := NewCredentialStore(SecuritySSHKey, keyPath)
	require.NoError(t, loaded.Load(dir))
	assert.Equal(t, "sk-ant-secret", loaded.Get("anthropic"))
}

func TestCredentialStore_WrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(SecuritySSHKey, writeTestKey(t, dir))
	store.Set("openai", "sk")
	require.NoError(t, store.Save(dir))

	other := NewCredentialStore(SecuritySSHKey, writeTestKey(t, t.TempDir()))
	assert.Error(t, other.Load(dir))
}

func TestLoad_AppliesStoredCredentials(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, EnsureDir(dataDir))

	store := NewCredentialStore(SecurityPlainText, "")
	store.Set("openai", "sk-from-store")
	store.Set("vision", "sk-vision")
	require.NoError(t, store.Save(dataDir))

	t.Setenv("MUHABBET_DATA_DIR", dataDir)
	cfg, err := Load(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-store", cfg.Provider.APIKey)
	assert.Equal(t, "sk-vision", cfg.VisionAPIKey())
	assert.True(t, cfg.VisionEnabled())
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, filepath.Join("/home/tester", "data"), ExpandPath("~/data"))
	assert.Equal(t, "", ExpandPath(""))
}

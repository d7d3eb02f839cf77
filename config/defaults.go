package config

import "time"

const (
	DefaultListenAddr  = ":5000"
	DefaultChatTimeout = 90 * time.Second
)

func DefaultConfig() *Config {
	return &Config{
		DataDirectory: "~/.local/share/muhabbet",
		ListenAddr:    DefaultListenAddr,
		ChatTimeout:   DefaultChatTimeout,
		LogLevel:      "info",
		Provider: ProviderConfig{
			Type:  "openai",
			Model: "gpt-4o",
		},
		Persona: PersonaConfig{
			Name:     "Muhabbet AI",
			Creator:  "Ahmet",
			Timezone: "Europe/Istanbul",
		},
		Security: SecurityConfig{
			CredentialStorage: SecurityPlainText,
		},
	}
}

func GenerateConfigTemplate() string {
	return `# Muhabbet Configuration
# Location: ~/.config/muhabbet/config.toml
# This file uses TOML format: https://toml.io

# Directory where the conversation database and credentials are stored
data_directory = "~/.local/share/muhabbet"

# HTTP listen address
listen_addr = ":5000"

# Upper bound for one chat round, including the model call
chat_timeout = "90s"

# debug, info, warn, error
log_level = "info"

# Origins allowed to call the API from a browser (empty allows any)
allowed_origins = []

[provider]
# openai, openrouter, anthropic or ollama
type = "openai"
# base_url = "https://api.openai.com/v1"
# api_key = ""  (prefer credentials.toml or MUHABBET_API_KEY)
model = "gpt-4o"

[vision]
# Image analysis is on whenever a key is available; set false to turn it off.
# enabled = true
# model = "gpt-4o"
# api_key = ""

[persona]
name = "Muhabbet AI"
creator = "Ahmet"
timezone = "Europe/Istanbul"

[telemetry]
enabled = false
# endpoint = "http://localhost:4318"

[security]
# plaintext (credentials.toml) or ssh_key (credentials.enc)
credential_storage = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"
`
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadFile decodes the config at path over the defaults. A missing file is
// created from the commented template.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if !FileExists(path) {
		if err := CreateDefaultConfig(path); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
		return cfg, nil
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// CreateDefaultConfig writes the commented template to path unless a file
// already exists there.
func CreateDefaultConfig(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if FileExists(path) {
		return nil
	}

	content := GenerateConfigTemplate()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

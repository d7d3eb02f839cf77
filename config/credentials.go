package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines the credential storage method
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// CredentialStore manages encrypted or plain-text API credentials.
// Keys are provider types ("openai", "anthropic", ...) plus "vision".
type CredentialStore struct {
	method      SecurityMethod
	credentials map[string]string
	sshKeyPath  string
	passphrase  string // Optional passphrase for encrypted keys
	sealer      *Sealer
}

// NewCredentialStore creates a new credential store. An empty method means
// plaintext.
func NewCredentialStore(method SecurityMethod, sshKeyPath string) *CredentialStore {
	if method == "" {
		method = SecurityPlainText
	}
	return &CredentialStore{
		method:      method,
		credentials: make(map[string]string),
		sshKeyPath:  ExpandPath(sshKeyPath),
	}
}

// SetPassphrase sets the passphrase for decrypting the SSH key
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.passphrase = passphrase
	c.sealer = nil
}

// Load loads credentials from disk based on the configured security method
func (c *CredentialStore) Load(dataDir string) error {
	var (
		creds map[string]string
		err   error
	)
	switch c.method {
	case SecurityPlainText:
		creds, err = loadPlainText(dataDir)
	case SecuritySSHKey:
		creds, err = c.loadSealed(dataDir)
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
	if err != nil {
		return err
	}
	if creds == nil {
		creds = make(map[string]string)
	}
	c.credentials = creds
	return nil
}

// Save saves credentials to disk based on the configured security method
func (c *CredentialStore) Save(dataDir string) error {
	switch c.method {
	case SecurityPlainText:
		return savePlainText(dataDir, c.credentials)
	case SecuritySSHKey:
		return c.saveSealed(dataDir)
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

// Get retrieves a credential
func (c *CredentialStore) Get(key string) string {
	return c.credentials[key]
}

// Set stores a credential
func (c *CredentialStore) Set(key, value string) {
	c.credentials[key] = value
}

// Delete removes a credential
func (c *CredentialStore) Delete(key string) {
	delete(c.credentials, key)
}

// Keys returns the stored credential names in sorted order.
func (c *CredentialStore) Keys() []string {
	keys := make([]string, 0, len(c.credentials))
	for k := range c.credentials {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetMethod returns the current security method
func (c *CredentialStore) GetMethod() SecurityMethod {
	return c.method
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func sealedCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

// ===== Plain Text Storage =====

func loadPlainText(dataDir string) (map[string]string, error) {
	path := credentialsPath(dataDir)

	// If file doesn't exist, return empty map (no error)
	if !FileExists(path) {
		return make(map[string]string), nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return cf.Credentials, nil
}

// savePlainText saves credentials to plain text TOML file with 0600 permissions
func savePlainText(dataDir string, creds map[string]string) error {
	f, err := os.OpenFile(credentialsPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: creds}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return nil
}

// ===== SSH Key Sealed Storage =====

func (c *CredentialStore) ensureSealer() error {
	if c.sealer != nil {
		return nil
	}
	keyPath := c.sshKeyPath
	if keyPath == "" {
		found, err := FindSSHKeys()
		if err != nil {
			return fmt.Errorf("failed to look for SSH keys: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("ssh_key storage needs security.ssh_key_path or a key in ~/.ssh")
		}
		keyPath = found[0]
	}

	sealer, err := NewSealer(keyPath, c.passphrase)
	if err != nil {
		return err
	}
	c.sealer = sealer
	return nil
}

func (c *CredentialStore) loadSealed(dataDir string) (map[string]string, error) {
	path := sealedCredentialsPath(dataDir)
	if !FileExists(path) {
		return make(map[string]string), nil
	}

	if err := c.ensureSealer(); err != nil {
		return nil, err
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted credentials: %w", err)
	}

	plain, err := c.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}
	return creds, nil
}

func (c *CredentialStore) saveSealed(dataDir string) error {
	if err := c.ensureSealer(); err != nil {
		return err
	}

	plain, err := json.Marshal(c.credentials)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	sealed, err := c.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(sealedCredentialsPath(dataDir), sealed, 0600); err != nil {
		return fmt.Errorf("failed to write encrypted credentials: %w", err)
	}
	return nil
}

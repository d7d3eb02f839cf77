package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Sealer encrypts small blobs with an AES-256-GCM key derived from an SSH
// private key. The key is the SHA-256 of the key's signature over a fixed
// message, so it only works with deterministic signature schemes (ed25519,
// RSA PKCS#1 v1.5).
type Sealer struct {
	aesKey []byte
}

const keyDerivationMessage = "muhabbet-credentials-key-v1"

// NewSealer loads the SSH key at keyPath, decrypting it with passphrase when
// the key is protected.
func NewSealer(keyPath, passphrase string) (*Sealer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == "" {
			return nil, errors.New("SSH key is encrypted - passphrase required")
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	aesKey, err := deriveKey(signer)
	if err != nil {
		return nil, err
	}
	return &Sealer{aesKey: aesKey}, nil
}

func deriveKey(signer ssh.Signer) ([]byte, error) {
	signature, err := signer.Sign(rand.Reader, []byte(keyDerivationMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	hash := sha256.Sum256(signature.Blob)
	return hash[:], nil
}

// Seal encrypts plaintext; the random nonce is prepended to the output.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func (s *Sealer) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.aesKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// FindSSHKeys returns private keys in ~/.ssh usable for sealing, most
// preferred first.
func FindSSHKeys() ([]string, error) {
	sshDir := filepath.Join(GetHomeDir(), ".ssh")
	if _, err := os.Stat(sshDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	// ECDSA keys sign non-deterministically and cannot derive a stable key.
	keyNames := []string{"muhabbet_ed25519", "id_ed25519", "id_rsa"}

	var found []string
	for _, name := range keyNames {
		keyPath := filepath.Join(sshDir, name)
		if isPrivateKey(keyPath) {
			found = append(found, keyPath)
		}
	}
	return found, nil
}

func isPrivateKey(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	content := string(data)
	return strings.Contains(content, "BEGIN") && strings.Contains(content, "PRIVATE KEY")
}

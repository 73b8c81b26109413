package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// MasterKeyEnv names the environment variable consulted when no master key
// file is configured.
const MasterKeyEnv = "AUTH_MASTER_KEY"

// ErrNoMasterKey is returned when neither a file nor the environment provides
// key material.
var ErrNoMasterKey = errors.New("cryptox: no master key configured")

// KeyCipher encrypts signing key material at rest with AES-256-GCM.
// Ciphertexts are laid out as nonce || sealed data || tag.
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher derives a 32-byte key from material with SHA-256.
func NewKeyCipher(material []byte) (*KeyCipher, error) {
	if len(material) == 0 {
		return nil, ErrNoMasterKey
	}

	sum := sha256.Sum256(material)
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &KeyCipher{aead: aead}, nil
}

// LoadKeyCipher reads key material from path, or from AUTH_MASTER_KEY when
// path is empty.
func LoadKeyCipher(path string) (*KeyCipher, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cryptox: read master key: %w", err)
		}
		return NewKeyCipher(data)
	}

	return NewKeyCipher([]byte(os.Getenv(MasterKeyEnv)))
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *KeyCipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt.
func (c *KeyCipher) Decrypt(data []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(data) < n {
		return nil, errors.New("cryptox: ciphertext too short")
	}

	plaintext, err := c.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decrypt: %w", err)
	}
	return plaintext, nil
}

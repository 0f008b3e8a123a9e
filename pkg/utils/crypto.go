package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var ErrCiphertextInvalid = errors.New("ciphertext is invalid or was encrypted with a different key")

// TokenCipher encrypts OAuth tokens at rest with AES-256-GCM. It is
// constructed once at startup; a missing or malformed key is a fatal
// configuration error.
type TokenCipher struct {
	gcm cipher.AEAD
}

// NewTokenCipher accepts either a raw 32-byte ASCII secret or a
// base64-encoded 32-byte key.
func NewTokenCipher(key string) (*TokenCipher, error) {
	if key == "" {
		return nil, errors.New("ENCRYPTION_KEY is required")
	}

	raw := []byte(key)
	if !isRaw32ByteKey(key) {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY is neither a 32-byte secret nor valid base64: %w", err)
		}
		raw = decoded
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(raw))
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &TokenCipher{gcm: gcm}, nil
}

func isRaw32ByteKey(key string) bool {
	if len(key) != 32 {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] > 127 {
			return false
		}
	}
	return true
}

// Encrypt returns base64(nonce || ciphertext).
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Corrupt or foreign ciphertext fails the GCM
// authentication check and returns ErrCiphertextInvalid, never garbage.
func (c *TokenCipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertextInvalid
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextInvalid
	}
	nonce, sealed := data[:nonceSize], data[nonceSize:]

	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plaintext), nil
}

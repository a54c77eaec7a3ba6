package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/bichon-mail/bichon/internal/errors"
)

// CredentialCipher decrypts account secrets with a process-wide
// AES-256-GCM key loaded once at startup from BICHON_ENCRYPT_PASSWORD (or
// a file path in the same variable). Stored secrets are
// base64(nonce || ciphertext).
type CredentialCipher struct {
	mu  sync.RWMutex
	key []byte
}

// LoadCredentialCipher reads the process-wide key from the environment.
// Absence of the key is not an error here - decrypt calls fail with
// MissingConfiguration only when actually invoked, matching the "encrypt!
// infallible only on pre-set plaintext" contract.
func LoadCredentialCipher() (*CredentialCipher, error) {
	raw := os.Getenv("BICHON_ENCRYPT_PASSWORD")
	if raw == "" {
		return &CredentialCipher{}, nil
	}

	if looksLikePath(raw) {
		contents, err := os.ReadFile(raw)
		if err != nil {
			return nil, errors.Wrap(errors.MissingConfiguration, "cannot read BICHON_ENCRYPT_PASSWORD file", err)
		}
		raw = strings.TrimSpace(string(contents))
	}

	key, err := normalizeKey(raw)
	if err != nil {
		return nil, err
	}
	return &CredentialCipher{key: key}, nil
}

func looksLikePath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}

func normalizeKey(raw string) ([]byte, error) {
	// Accept either a raw 32-byte key or a base64-encoded one.
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	return nil, errors.Raise(errors.MissingConfiguration, "BICHON_ENCRYPT_PASSWORD must decode to 32 bytes")
}

func (c *CredentialCipher) gcm() (cipher.AEAD, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.key) == 0 {
		return nil, errors.Raise(errors.MissingConfiguration, "credential encryption key not configured")
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "invalid credential encryption key", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt produces base64(nonce || ciphertext) for storage.
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(errors.InternalError, "failed to generate nonce", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure - missing key, malformed
// ciphertext, authentication failure - is a MissingConfiguration error per
// the credential-decryption contract in spec section 6.
func (c *CredentialCipher) Decrypt(encoded string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Wrap(errors.MissingConfiguration, "malformed credential ciphertext", err)
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.Raise(errors.MissingConfiguration, "credential ciphertext too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(errors.MissingConfiguration, "credential decryption failed", err)
	}
	return string(plaintext), nil
}

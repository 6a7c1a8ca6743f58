package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrEmptyCiphertext is returned when opening an empty string
var ErrEmptyCiphertext = errors.New("crypto: empty ciphertext")

// Sealer encrypts short secrets (OAuth refresh tokens) for storage at rest.
// The AES-256 key is derived from the application secret with HKDF so the
// raw secret is never used directly as key material.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a key for the given purpose. Sealers built from the same
// secret but different purposes cannot open each other's output.
func NewSealer(secret, purpose string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("crypto: secret is required")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("crypto: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal returns hex(nonce || ciphertext)
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: read nonce: %w", err)
	}

	return hex.EncodeToString(s.aead.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// Open reverses Seal
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", ErrEmptyCiphertext
	}

	data, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("crypto: decode: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("crypto: ciphertext too short")
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("crypto: open: %w", err)
	}

	return string(plaintext), nil
}

// RandomToken returns n random bytes encoded as unpadded URL-safe base64
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("crypto: random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ComputeHMAC256 returns the hex HMAC-SHA256 of data
func ComputeHMAC256(data []byte, secretKey string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC compares a provided signature in constant time
func VerifyHMAC(data []byte, signature, secretKey string) bool {
	expected := ComputeHMAC256(data, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Package session seals small values into opaque, tamper-proof tokens
// suitable for a cookie.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyIterations = 100000
	keyLength     = 32
)

// ErrInvalidToken is returned when a token cannot be decoded or authenticated.
var ErrInvalidToken = errors.New("session: invalid token")

// Codec encrypts values with AES-256-GCM under a key derived from a secret.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the sealing key from secret and salt.
func NewCodec(secret, salt string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("session: empty secret")
	}
	key := pbkdf2.Key([]byte(secret), []byte(salt), keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encodes v as JSON and encrypts it into a URL-safe token.
func (c *Codec) Seal(v interface{}) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts token into dest.
func (c *Codec) Open(token string, dest interface{}) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return ErrInvalidToken
	}

	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(plain, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

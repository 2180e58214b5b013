// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// URL codec errors.
var (
	// ErrMasterKeyInvalid indicates the master key is missing or too weak.
	ErrMasterKeyInvalid = errors.New("master key must be at least 32 base64-encoded bytes")

	// ErrInvalidCiphertext indicates the ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrDecryptionFailed indicates authentication of the ciphertext failed:
	// wrong session key, or a tampered blob.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// urlKeyContext is the HKDF info prefix for playback URL keys. Binding the
// session ID into the derivation gives every session its own key, so a blob
// captured from one session is useless under any other.
const urlKeyContext = "courseguard-url-encryption:"

// URLCodec seals raw playback URLs under per-session AES-256-GCM keys.
// Keys are derived on demand with HKDF-SHA256 from the master key and the
// session ID; nothing key-shaped is ever persisted.
type URLCodec struct {
	masterKey []byte
}

// NewURLCodec creates a codec from a base64-encoded master key.
func NewURLCodec(masterKeyB64 string) (*URLCodec, error) {
	masterKey, err := base64.StdEncoding.DecodeString(masterKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(masterKey) < 32 {
		return nil, ErrMasterKeyInvalid
	}
	return &URLCodec{masterKey: masterKey}, nil
}

// sessionAEAD derives the AEAD cipher for one session.
func (c *URLCodec) sessionAEAD(sessionID string) (cipher.AEAD, error) {
	key, err := deriveKey(c.masterKey, []byte(urlKeyContext+sessionID), 32)
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}
	return aead, nil
}

// deriveKey derives a key using HKDF-SHA256.
func deriveKey(secret, context []byte, keyLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, context)
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptURL seals a raw playback URL under the session's key.
// The nonce is prepended to the ciphertext and the result is URL-safe
// base64, suitable for embedding in JSON responses and query parameters.
func (c *URLCodec) EncryptURL(sessionID, rawURL string) (string, error) {
	aead, err := c.sessionAEAD(sessionID)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nonce, nonce, []byte(rawURL), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// DecryptURL opens a sealed playback URL with the session's key.
// Returns ErrInvalidCiphertext for malformed input and ErrDecryptionFailed
// when authentication fails (wrong session, tampering).
func (c *URLCodec) DecryptURL(sessionID, sealed string) (string, error) {
	aead, err := c.sessionAEAD(sessionID)
	if err != nil {
		return "", err
	}

	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrInvalidCiphertext)
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize+aead.Overhead() {
		return "", fmt.Errorf("%w: data too short", ErrInvalidCiphertext)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDecryptionFailed, err.Error())
	}

	return string(plaintext), nil
}

// GenerateMasterKey generates a cryptographically secure master key.
// Returns the key as a base64-encoded string suitable for configuration.
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

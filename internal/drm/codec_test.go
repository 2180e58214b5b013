// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testMasterKey(t *testing.T) string {
	t.Helper()
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey: %v", err)
	}
	return key
}

func TestNewURLCodec(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid 32-byte key", base64.StdEncoding.EncodeToString(make([]byte, 32)), false},
		{"valid 64-byte key", base64.StdEncoding.EncodeToString(make([]byte, 64)), false},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 16)), true},
		{"empty", "", true},
		{"not base64", "!!!not-base64!!!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewURLCodec(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewURLCodec() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec, err := NewURLCodec(testMasterKey(t))
	if err != nil {
		t.Fatalf("NewURLCodec: %v", err)
	}

	rawURL := "https://cdn.example.com/videos/v-1/master.m3u8?sig=abc123&expires=1700000000"

	sealed, err := codec.EncryptURL("session-a", rawURL)
	if err != nil {
		t.Fatalf("EncryptURL: %v", err)
	}
	if sealed == rawURL {
		t.Fatal("sealed URL must not equal plaintext")
	}
	if strings.ContainsAny(sealed, "+/=") {
		t.Errorf("sealed URL must be URL-safe base64, got %q", sealed)
	}

	got, err := codec.DecryptURL("session-a", sealed)
	if err != nil {
		t.Fatalf("DecryptURL: %v", err)
	}
	if got != rawURL {
		t.Errorf("round trip = %q, want %q", got, rawURL)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	codec, err := NewURLCodec(testMasterKey(t))
	if err != nil {
		t.Fatalf("NewURLCodec: %v", err)
	}

	a, _ := codec.EncryptURL("session-a", "https://cdn.example.com/v")
	b, _ := codec.EncryptURL("session-a", "https://cdn.example.com/v")
	if a == b {
		t.Error("two encryptions of the same URL must differ (random nonce)")
	}
}

func TestDecryptWithWrongSessionFails(t *testing.T) {
	codec, err := NewURLCodec(testMasterKey(t))
	if err != nil {
		t.Fatalf("NewURLCodec: %v", err)
	}

	sealed, err := codec.EncryptURL("session-a", "https://cdn.example.com/v")
	if err != nil {
		t.Fatalf("EncryptURL: %v", err)
	}

	_, err = codec.DecryptURL("session-b", sealed)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("cross-session decrypt error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptMalformedInput(t *testing.T) {
	codec, err := NewURLCodec(testMasterKey(t))
	if err != nil {
		t.Fatalf("NewURLCodec: %v", err)
	}

	tests := []struct {
		name   string
		sealed string
	}{
		{"not base64", "???***"},
		{"too short", base64.RawURLEncoding.EncodeToString([]byte("tiny"))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecryptURL("session-a", tt.sealed)
			if !errors.Is(err, ErrInvalidCiphertext) {
				t.Errorf("error = %v, want ErrInvalidCiphertext", err)
			}
		})
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	codec, err := NewURLCodec(testMasterKey(t))
	if err != nil {
		t.Fatalf("NewURLCodec: %v", err)
	}

	sealed, err := codec.EncryptURL("session-a", "https://cdn.example.com/v")
	if err != nil {
		t.Fatalf("EncryptURL: %v", err)
	}

	data, _ := base64.RawURLEncoding.DecodeString(sealed)
	data[len(data)-1] ^= 0xff
	tampered := base64.RawURLEncoding.EncodeToString(data)

	_, err = codec.DecryptURL("session-a", tampered)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("tampered decrypt error = %v, want ErrDecryptionFailed", err)
	}
}

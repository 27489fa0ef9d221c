// Package v0 implements operations supporting the v0 tag version.
package v0

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/swfrench/simple-verify/internal/token/common"
	"golang.org/x/crypto/hkdf"
)

// Version is the version identifier prefix for this tag implementation.
const Version = "v0"

// v0 tags are defined by:
// * Key: HKDF-SHA256 over the caller secret, info "simple-verify.uri.v0"
// * MAC: HMAC-SHA256
// * Format:
//     <version><VersionSeparator><base64url (unpadded) MAC>

var hkdfInfo = []byte("simple-verify.uri.v0")

// KeySize is the length of derived v0 keys.
const KeySize = 32

// DeriveKey derives the v0 MAC key from the provided secret.
func DeriveKey(secret []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, hkdfInfo)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	return key, nil
}

// Length of an unpadded base64-encoded 32 byte MAC.
const base64MACLen = 43

func mac(key, msg []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return h.Sum(nil)
}

// Create returns a tag authenticating msg under the provided (derived) key.
func Create(key []byte, msg []byte) string {
	return Version + common.VersionSeparator + base64.RawURLEncoding.EncodeToString(mac(key, msg))
}

// Verify checks that tag authenticates msg under the provided (derived) key.
func Verify(key []byte, msg []byte, tag string) error {
	header, encoded, ok := strings.Cut(tag, common.VersionSeparator)
	if !ok {
		return fmt.Errorf("failed to parse version header from tag: %w", common.ErrBadToken)
	}
	if header != Version {
		return fmt.Errorf("failed to parse tag: %w", common.ErrUnsupportedVersion)
	}
	if len(encoded) != base64MACLen {
		return fmt.Errorf("failed to parse tag (incorrect MAC length): %w", common.ErrBadToken)
	}
	got, err := base64.RawURLEncoding.Strict().DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode MAC (error: %v): %w", err, common.ErrBadToken)
	}
	if !hmac.Equal(mac(key, msg), got) {
		return fmt.Errorf("tag MAC verification failed: %w", common.ErrInvalidToken)
	}
	return nil
}

// Package testutil provides helpers shared by tests.
package testutil

import (
	"encoding/base64"
	"testing"
)

// MustDecodeBase64 decodes the provided base64-encoded string (e.g., a test
// signing secret).
func MustDecodeBase64(t *testing.T, encoded string) []byte {
	t.Helper()
	bs, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("Unexpected error decoding %q: %v", encoded, err)
	}
	return bs
}

// Package token provides utilities for creation and verification of versioned
// MAC tags over arbitrary messages (e.g., canonicalized URIs).
package token

import (
	"strings"

	"github.com/swfrench/simple-verify/internal/token/common"
	v0 "github.com/swfrench/simple-verify/internal/token/v0"
)

var (
	ErrUnsupportedVersion = common.ErrUnsupportedVersion
	ErrBadToken           = common.ErrBadToken
	ErrInvalidToken       = common.ErrInvalidToken
)

// Authenticator manages MAC tags.
type Authenticator struct {
	v0Key []byte
}

// NewAuthenticator returns a new Authenticator instance, deriving its MAC keys
// from the provided secret.
func NewAuthenticator(secret []byte) (*Authenticator, error) {
	k, err := v0.DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Authenticator{v0Key: k}, nil
}

// Create returns a tag authenticating msg.
func (a *Authenticator) Create(msg []byte) string {
	return v0.Create(a.v0Key, msg)
}

// The only supported tag version at this time is v0.
const v0Header = v0.Version + common.VersionSeparator

// Verify checks that tag authenticates msg.
func (a *Authenticator) Verify(msg []byte, tag string) error {
	if strings.HasPrefix(tag, v0Header) {
		return v0.Verify(a.v0Key, msg, tag)
	}
	return common.ErrUnsupportedVersion
}

package common

import "errors"

// VersionSeparator is the separator between the tag version identifier prefix
// and the encoded MAC.
// Tags are versioned by their backing implementation, which includes details
// such as key derivation and MAC scheme.
const VersionSeparator = "."

var (
	// ErrUnsupportedVersion indicates that the version identifier embedded in
	// the tag is not supported by this implementation.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrBadToken indicates that the tag is structurally invalid.
	ErrBadToken = errors.New("bad token")
	// ErrInvalidToken indicates that the tag fails authenticity checks.
	ErrInvalidToken = errors.New("invalid token")
)

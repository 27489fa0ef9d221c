// Package signer provides URI signing for verification links.
//
// A Signer appends a MAC parameter to a URI and later checks that parameter
// against the rest of the URI. The HMAC implementation here authenticates a
// canonical form of the URI in which query parameters are sorted by name, so
// that parameters re-attached at verification time need not occupy the same
// position they had at signing time.
package signer

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/swfrench/simple-verify/internal/query"
	"github.com/swfrench/simple-verify/internal/token"
	"golang.org/x/exp/slog"
)

const defaultParameter = "_hash"

// ErrParameterPresent indicates that a URI passed to Sign already carries the
// MAC parameter.
var ErrParameterPresent = errors.New("MAC parameter already present")

// Signer represents an abstract URI signer.
type Signer interface {
	// Sign returns uri with a MAC query parameter appended.
	Sign(uri string) (string, error)
	// Verify reports whether the MAC query parameter of uri is valid for the
	// remainder of uri.
	Verify(uri string) bool
}

// Options represents tunable knobs that control the behavior of HMAC.
type Options struct {
	// Parameter is the name of the query parameter carrying the MAC.
	// Default if unspecified: "_hash"
	Parameter string
}

// HMAC is a Signer using versioned HMAC-SHA256 tags (see internal/token).
// Multiple goroutines may use a given HMAC instance concurrently.
type HMAC struct {
	param string
	ta    *token.Authenticator
}

var _ Signer = (*HMAC)(nil)

// NewHMAC returns a new HMAC signer whose MAC keys are derived from the
// provided secret. A nil opts uses defaults.
func NewHMAC(secret []byte, opts *Options) (*HMAC, error) {
	if len(secret) == 0 {
		return nil, errors.New("signer secret must not be empty")
	}
	param := defaultParameter
	if opts != nil && opts.Parameter != "" {
		param = opts.Parameter
	}
	ta, err := token.NewAuthenticator(secret)
	if err != nil {
		return nil, err
	}
	return &HMAC{param: param, ta: ta}, nil
}

// Parameter returns the name of the query parameter carrying the MAC.
func (s *HMAC) Parameter() string {
	return s.param
}

// canonicalize returns the byte sequence authenticated for uri, ignoring any
// MAC parameter present, along with the values of the latter.
func (s *HMAC) canonicalize(uri string) ([]byte, []string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, err
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, nil, err
	}
	tags := q[s.param]
	q.Del(s.param)
	c := *u
	c.RawQuery = q.Encode() // sorted by name
	c.ForceQuery = false
	return []byte(c.String()), tags, nil
}

// Sign returns uri with the MAC parameter appended. It returns
// ErrParameterPresent if uri already carries the MAC parameter.
func (s *HMAC) Sign(uri string) (string, error) {
	msg, tags, err := s.canonicalize(uri)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize URI for signing: %w", err)
	}
	if len(tags) > 0 {
		return "", fmt.Errorf("%q: %w", s.param, ErrParameterPresent)
	}
	return query.Add([]query.Pair{{Name: s.param, Value: s.ta.Create(msg)}}, uri), nil
}

// Verify reports whether uri carries exactly one MAC parameter, and whether it
// is valid for the remainder of uri.
func (s *HMAC) Verify(uri string) bool {
	msg, tags, err := s.canonicalize(uri)
	if err != nil {
		slog.Debug("Failed to canonicalize URI for verification", "error", err)
		return false
	}
	if len(tags) != 1 {
		slog.Debug("Unexpected number of MAC parameters", "param", s.param, "count", len(tags))
		return false
	}
	if err := s.ta.Verify(msg, tags[0]); err != nil {
		slog.Debug("URI MAC verification failed", "error", err)
		return false
	}
	return true
}

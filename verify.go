// Package verify provides helpers for issuing and checking signed, short-lived
// verification links (e.g., "click here to confirm your email address").
//
// At a high level, Helper.Generate binds a user's identity claims (ID and
// email address) and an expiry timestamp into a signed URI, then scrubs the
// identity claims from that URI so the link itself does not leak them (e.g.,
// via logs or Referer headers). The expiry and the MAC parameter remain.
//
// When the link is followed, the caller re-supplies the identity claims (e.g.,
// from the logged-in user) and Helper.Validate re-attaches them before
// checking the MAC. Links are stateless: nothing is stored at generation time,
// and there is no revocation list.
package verify

import (
	"errors"
	"fmt"
	"time"

	"github.com/swfrench/simple-verify/internal/query"
	"github.com/swfrench/simple-verify/signer"
	"golang.org/x/exp/slog"
)

const defaultLifetime = time.Hour

var (
	// ErrExpiredSignature indicates that the link expiry has passed. It is
	// distinct from an invalid MAC so callers can offer to issue a new link.
	ErrExpiredSignature = errors.New("expired signature")
	// ErrMalformedSignature indicates that the expiry claim is missing from
	// the link or cannot be parsed.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrReservedClaim indicates that an extra claim uses one of the reserved
	// claim names, or the name of the signer's MAC parameter.
	ErrReservedClaim = errors.New("reserved claim name")
)

// PathBuilder resolves a route name into a URL, substituting params for any
// placeholders in the route. Implementations must be deterministic. See the
// router package for an implementation.
type PathBuilder interface {
	Resolve(route string, params map[string]string) (string, error)
}

// Options represents tunable knobs that control the behavior of Helper.
type Options struct {
	// Lifetime is the duration for which generated links remain valid. It is
	// applied at whole-second granularity.
	// Default if unspecified: 1h
	Lifetime time.Duration
	// TrustForwardedProto makes ValidateRequest take the request scheme from
	// the X-Forwarded-Proto header. Enable this only behind a proxy that sets
	// or strips that header.
	// Default if unspecified: false
	TrustForwardedProto bool
}

// Helper generates and validates verification links. Multiple goroutines may
// use a given Helper concurrently.
type Helper struct {
	// Clock can be used to override measurement of time in tests.
	Clock      func() time.Time
	pb         PathBuilder
	signer     signer.Signer
	lifetime   time.Duration
	trustProto bool
}

// NewHelper returns a new Helper resolving routes with pb and signing links
// with s. A nil opts uses defaults.
func NewHelper(pb PathBuilder, s signer.Signer, opts *Options) *Helper {
	lifetime := defaultLifetime
	var trustProto bool
	if opts != nil {
		if opts.Lifetime > 0 {
			lifetime = opts.Lifetime.Truncate(time.Second)
			if lifetime == 0 {
				lifetime = time.Second
			}
		}
		trustProto = opts.TrustForwardedProto
	}
	return &Helper{
		Clock:      func() time.Time { return time.Now() },
		pb:         pb,
		signer:     s,
		lifetime:   lifetime,
		trustProto: trustProto,
	}
}

// macParam returns the name of the signer's MAC parameter, if it exposes one.
func (h *Helper) macParam() string {
	if p, ok := h.signer.(interface{ Parameter() string }); ok {
		return p.Parameter()
	}
	return ""
}

// SignatureLifetime returns the duration for which generated links remain
// valid.
func (h *Helper) SignatureLifetime() time.Duration {
	return h.lifetime
}

// Generate returns a signed link to route for the provided user. Extra claims
// are used as route placeholder values and are also bound into the signature;
// like the identity claims, they are removed from the returned link.
func (h *Helper) Generate(route, userID, userEmail string, extra ClaimSet) (*SignatureComponents, error) {
	param := h.macParam()
	for _, c := range extra {
		if isReserved(c.name) || (param != "" && c.name == param) {
			return nil, fmt.Errorf("extra claim %q: %w", c.name, ErrReservedClaim)
		}
	}
	now := h.Clock().Truncate(time.Second)
	expiresAt := now.Add(h.lifetime)

	claims := make(ClaimSet, 0, 3+len(extra))
	claims = append(claims,
		NewClaim(ClaimUserID, userID),
		NewClaim(ClaimUserEmail, userEmail),
		NewClaim(ClaimExpiresAt, fmt.Sprint(expiresAt.Unix())),
	)
	claims = append(claims, extra...)

	base, err := h.pb.Resolve(route, extra.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve route %q: %w", route, err)
	}
	toBeSigned := query.Add(claims.pairs(), base)

	// The expiry stays visible in the link; everything else is scrubbed.
	scrub := claims.Without(ClaimExpiresAt)

	signed, err := h.signer.Sign(toBeSigned)
	if err != nil {
		slog.Error("Failed to sign verification link", "route", route, "error", err)
		return nil, fmt.Errorf("failed to sign link: %w", err)
	}
	final, err := query.Remove(scrub.Names(), signed)
	if err != nil {
		return nil, fmt.Errorf("failed to scrub claims from signed link: %w", err)
	}
	slog.Debug("Generated verification link", "route", route, "expires", expiresAt)
	return &SignatureComponents{
		SignedURI:   final,
		ExpiresAt:   expiresAt,
		GeneratedAt: now,
	}, nil
}

// Validate checks the signed link previously returned by Generate against the
// provided user identity. It returns ErrExpiredSignature if the link has
// expired, and ErrMalformedSignature if its expiry cannot be parsed. An invalid
// MAC (e.g., a tampered link, or a different user) is reported as false with
// a nil error.
//
// Only the identity claims are re-attached. Links generated with extra claims
// will not validate here; use ValidateClaims for those.
func (h *Helper) Validate(signedURI, userID, userEmail string) (bool, error) {
	return h.ValidateClaims(signedURI, userID, userEmail, nil)
}

// ValidateClaims is like Validate, but also re-attaches the provided extra
// claims, which must match those supplied to Generate.
func (h *Helper) ValidateClaims(signedURI, userID, userEmail string, extra ClaimSet) (bool, error) {
	ts, err := query.ExpiryTimestamp(signedURI)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if ts <= h.Clock().Unix() {
		slog.Debug("Rejected expired verification link", "expires", time.Unix(ts, 0))
		return false, ErrExpiredSignature
	}
	claims := make(ClaimSet, 0, 2+len(extra))
	claims = append(claims,
		NewClaim(ClaimUserID, userID),
		NewClaim(ClaimUserEmail, userEmail),
	)
	claims = append(claims, extra...)
	ok := h.signer.Verify(query.Add(claims.pairs(), signedURI))
	if !ok {
		slog.Debug("Rejected verification link with invalid signature")
	}
	return ok, nil
}

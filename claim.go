package verify

import (
	"fmt"
	"time"

	"github.com/swfrench/simple-verify/internal/query"
)

// Reserved claim names. Any other name denotes an extra claim.
const (
	ClaimUserID    = "id"
	ClaimUserEmail = "email"
	ClaimExpiresAt = query.ExpiresParam
)

// Claim is a named value bound into a signed link. Claims are immutable and
// comparable.
type Claim struct {
	name  string
	value string
}

// NewClaim returns a new Claim.
func NewClaim(name, value string) Claim {
	return Claim{name: name, value: value}
}

// Name returns the claim name (i.e., its query parameter name).
func (c Claim) Name() string { return c.name }

// Value returns the claim value.
func (c Claim) Value() string { return c.value }

func (c Claim) String() string {
	return fmt.Sprintf("%s=%s", c.name, c.value)
}

// ClaimSet is an ordered list of claims. Order determines query parameter
// order in the signed link.
type ClaimSet []Claim

// Names returns the claim names, in order.
func (cs ClaimSet) Names() []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.name)
	}
	return names
}

// Without returns a copy of cs omitting claims with the provided name.
func (cs ClaimSet) Without(name string) ClaimSet {
	out := make(ClaimSet, 0, len(cs))
	for _, c := range cs {
		if c.name != name {
			out = append(out, c)
		}
	}
	return out
}

// Map returns the claims keyed by name. Later claims win on duplicate names.
func (cs ClaimSet) Map() map[string]string {
	m := make(map[string]string, len(cs))
	for _, c := range cs {
		m[c.name] = c.value
	}
	return m
}

func (cs ClaimSet) pairs() []query.Pair {
	ps := make([]query.Pair, 0, len(cs))
	for _, c := range cs {
		ps = append(ps, query.Pair{Name: c.name, Value: c.value})
	}
	return ps
}

func isReserved(name string) bool {
	return name == ClaimUserID || name == ClaimUserEmail || name == ClaimExpiresAt
}

// SignatureComponents is the result of Helper.Generate, suitable for embedding
// in an outgoing message (e.g., a verification email).
type SignatureComponents struct {
	// SignedURI is the signed link, with user identity claims removed.
	SignedURI string
	// ExpiresAt is the time after which the link is no longer valid.
	ExpiresAt time.Time
	// GeneratedAt is the time at which the link was generated.
	GeneratedAt time.Time
}

var lifetimeUnits = []struct {
	d    time.Duration
	name string
}{
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
	{time.Second, "second"},
}

// ExpirationMessage describes the link lifetime in its largest whole unit,
// e.g. "1 hour" or "30 minutes", for use in message templates.
func (sc *SignatureComponents) ExpirationMessage() string {
	lifetime := sc.ExpiresAt.Sub(sc.GeneratedAt)
	for _, u := range lifetimeUnits {
		if n := int64(lifetime / u.d); n > 0 {
			if n == 1 {
				return "1 " + u.name
			}
			return fmt.Sprintf("%d %ss", n, u.name)
		}
	}
	return "0 seconds"
}

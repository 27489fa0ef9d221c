// Package query implements order-preserving assembly and removal of URI query
// parameters, and extraction of the expiry parameter from signed URIs.
//
// All operations work on the raw query string rather than on url.Values, since
// the latter does not preserve parameter order and the signed bytes depend on
// it.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ExpiresParam is the name of the query parameter holding the expiry
// timestamp (seconds since the Unix epoch).
const ExpiresParam = "expires"

var (
	// ErrMissingParameter indicates that the requested query parameter is not
	// present in the URI.
	ErrMissingParameter = errors.New("missing query parameter")
	// ErrInvalidTimestamp indicates that the expiry parameter is not an
	// integer timestamp.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Pair is a single query parameter.
type Pair struct {
	Name  string
	Value string
}

// split separates uri into its base (scheme, authority and path), raw query and
// fragment (including the leading '#', if any).
func split(uri string) (base, rawQuery, fragment string) {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		uri, fragment = uri[:i], uri[i:]
	}
	base, rawQuery, _ = strings.Cut(uri, "?")
	return base, rawQuery, fragment
}

// join is the inverse of split, except that an empty query is dropped along
// with its '?'. A URI ending in a bare '?' is therefore not reproduced.
func join(base, rawQuery, fragment string) string {
	if rawQuery == "" {
		return base + fragment
	}
	return base + "?" + rawQuery + fragment
}

func paramName(part string) (string, error) {
	name, _, _ := strings.Cut(part, "=")
	return url.QueryUnescape(name)
}

// Add appends each pair to the query string of uri, in order, as
// name=QueryEscape(value). Existing parameters and any fragment are preserved.
// An empty query (e.g., "https://example.com/verify?") is normalized away.
func Add(pairs []Pair, uri string) string {
	base, rawQuery, fragment := split(uri)
	var sb strings.Builder
	sb.WriteString(rawQuery)
	for _, p := range pairs {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return join(base, sb.String(), fragment)
}

// Remove removes every query parameter of uri whose name is in names.
// Names that are not present are ignored. The relative order of the remaining
// parameters is preserved. If no parameters remain, the '?' is dropped as
// well, so Remove(names, Add(pairs, uri)) reproduces uri exactly only when
// uri does not end its path in a bare '?'.
func Remove(names []string, uri string) (string, error) {
	base, rawQuery, fragment := split(uri)
	if rawQuery == "" {
		return join(base, "", fragment), nil
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var kept []string
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			kept = append(kept, part)
			continue
		}
		name, err := paramName(part)
		if err != nil {
			return "", fmt.Errorf("failed to decode query parameter name %q: %w", part, err)
		}
		if !drop[name] {
			kept = append(kept, part)
		}
	}
	return join(base, strings.Join(kept, "&"), fragment), nil
}

// Get returns the (unescaped) value of the first query parameter of uri named
// name, or ErrMissingParameter if there is none.
func Get(name, uri string) (string, error) {
	_, rawQuery, _ := split(uri)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		n, v, _ := strings.Cut(part, "=")
		if un, err := url.QueryUnescape(n); err != nil || un != name {
			continue
		}
		uv, err := url.QueryUnescape(v)
		if err != nil {
			return "", fmt.Errorf("failed to decode value of query parameter %q: %w", name, err)
		}
		return uv, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrMissingParameter)
}

// ExpiryTimestamp returns the expiry timestamp carried by uri.
func ExpiryTimestamp(uri string) (int64, error) {
	v, err := Get(ExpiresParam, uri)
	if err != nil {
		return 0, err
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q (error: %v): %w", v, err, ErrInvalidTimestamp)
	}
	return ts, nil
}

// Package router provides a minimal named-route table for building the URLs
// that verification links point at.
//
// Route patterns are paths with {param} placeholders, e.g. "/verify/{token}".
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

var (
	// ErrRouteNotFound indicates that no route is registered under the
	// requested name.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMissingParameter indicates that a placeholder in the route pattern
	// has no corresponding parameter value.
	ErrMissingParameter = errors.New("missing route parameter")
	// ErrInvalidPattern indicates that a route pattern is malformed.
	ErrInvalidPattern = errors.New("invalid route pattern")
	// ErrRouteExists indicates that a route is already registered under the
	// provided name.
	ErrRouteExists = errors.New("route exists")
)

type segment struct {
	literal string
	param   string // non-empty for placeholders
}

// Table maps route names to URL patterns. Multiple goroutines may use a given
// Table concurrently.
type Table struct {
	base   *url.URL
	mu     sync.RWMutex
	routes map[string][]segment
}

// New returns a new Table. Resolved routes are absolute URLs relative to
// baseURL (e.g., "https://example.com"); an empty baseURL yields paths.
func New(baseURL string) (*Table, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL %q: %w", baseURL, err)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("base URL %q must not carry a query or fragment", baseURL)
	}
	return &Table{base: u, routes: make(map[string][]segment)}, nil
}

func parse(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must start with '/': %w", pattern, ErrInvalidPattern)
	}
	var segs []segment
	rest := pattern
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open == -1 {
			if strings.ContainsRune(rest, '}') {
				return nil, fmt.Errorf("unbalanced '}' in %q: %w", pattern, ErrInvalidPattern)
			}
			segs = append(segs, segment{literal: rest})
			break
		}
		if open > 0 {
			lit := rest[:open]
			if strings.ContainsRune(lit, '}') {
				return nil, fmt.Errorf("unbalanced '}' in %q: %w", pattern, ErrInvalidPattern)
			}
			segs = append(segs, segment{literal: lit})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end == -1 {
			return nil, fmt.Errorf("unterminated placeholder in %q: %w", pattern, ErrInvalidPattern)
		}
		name := rest[open+1 : open+end]
		if name == "" || strings.ContainsAny(name, "{/") {
			return nil, fmt.Errorf("bad placeholder %q in %q: %w", name, pattern, ErrInvalidPattern)
		}
		segs = append(segs, segment{param: name})
		rest = rest[open+end+1:]
	}
	if strings.ContainsAny(pattern, "?#") {
		return nil, fmt.Errorf("pattern %q must not carry a query or fragment: %w", pattern, ErrInvalidPattern)
	}
	return segs, nil
}

// Add registers pattern under name.
func (rt *Table) Add(name, pattern string) error {
	segs, err := parse(pattern)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.routes[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrRouteExists)
	}
	rt.routes[name] = segs
	return nil
}

// Resolve returns the URL for the route registered under name, substituting
// (path-escaped) params for its placeholders. Params not referenced by the
// pattern are ignored.
func (rt *Table) Resolve(name string, params map[string]string) (string, error) {
	rt.mu.RLock()
	segs, ok := rt.routes[name]
	rt.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrRouteNotFound)
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(rt.base.String(), "/"))
	for _, s := range segs {
		if s.param == "" {
			sb.WriteString(s.literal)
			continue
		}
		v, ok := params[s.param]
		if !ok {
			return "", fmt.Errorf("route %q requires %q: %w", name, s.param, ErrMissingParameter)
		}
		sb.WriteString(url.PathEscape(v))
	}
	return sb.String(), nil
}

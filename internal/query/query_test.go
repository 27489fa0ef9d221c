package query_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/swfrench/simple-verify/internal/query"
)

func TestAdd(t *testing.T) {
	testCases := []struct {
		name  string
		pairs []query.Pair
		uri   string
		want  string
	}{
		{
			name:  "no existing query",
			pairs: []query.Pair{{Name: "id", Value: "42"}, {Name: "email", Value: "a@b.com"}},
			uri:   "https://example.com/verify",
			want:  "https://example.com/verify?id=42&email=a%40b.com",
		},
		{
			name:  "existing query",
			pairs: []query.Pair{{Name: "id", Value: "42"}},
			uri:   "https://example.com/verify?lang=en",
			want:  "https://example.com/verify?lang=en&id=42",
		},
		{
			name:  "fragment preserved",
			pairs: []query.Pair{{Name: "id", Value: "42"}},
			uri:   "https://example.com/verify?lang=en#top",
			want:  "https://example.com/verify?lang=en&id=42#top",
		},
		{
			name:  "order preserved",
			pairs: []query.Pair{{Name: "z", Value: "1"}, {Name: "a", Value: "2"}, {Name: "m", Value: "3"}},
			uri:   "/verify",
			want:  "/verify?z=1&a=2&m=3",
		},
		{
			name:  "values escaped",
			pairs: []query.Pair{{Name: "name", Value: "a b&c=d"}},
			uri:   "/verify",
			want:  "/verify?name=a+b%26c%3Dd",
		},
		{
			name: "no pairs",
			uri:  "/verify?lang=en",
			want: "/verify?lang=en",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := query.Add(tc.pairs, tc.uri)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Add() returned incorrect URI (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	testCases := []struct {
		name  string
		names []string
		uri   string
		want  string
	}{
		{
			name:  "remove all",
			names: []string{"id", "email"},
			uri:   "https://example.com/verify?id=42&email=a%40b.com",
			want:  "https://example.com/verify",
		},
		{
			name:  "remove some",
			names: []string{"id", "email"},
			uri:   "https://example.com/verify?id=42&expires=1700003600&email=a%40b.com&_hash=abc",
			want:  "https://example.com/verify?expires=1700003600&_hash=abc",
		},
		{
			name:  "absent names ignored",
			names: []string{"nope"},
			uri:   "/verify?a=1&b=2",
			want:  "/verify?a=1&b=2",
		},
		{
			name:  "repeated parameter",
			names: []string{"a"},
			uri:   "/verify?a=1&b=2&a=3",
			want:  "/verify?b=2",
		},
		{
			name:  "escaped name",
			names: []string{"a b"},
			uri:   "/verify?a+b=1&c=2",
			want:  "/verify?c=2",
		},
		{
			name:  "valueless parameter",
			names: []string{"flag"},
			uri:   "/verify?flag&c=2",
			want:  "/verify?c=2",
		},
		{
			name:  "fragment preserved",
			names: []string{"id"},
			uri:   "/verify?id=1#top",
			want:  "/verify#top",
		},
		{
			name:  "no query",
			names: []string{"id"},
			uri:   "/verify",
			want:  "/verify",
		},
		{
			name:  "empty query dropped",
			names: []string{"id"},
			uri:   "/verify?#top",
			want:  "/verify#top",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := query.Remove(tc.names, tc.uri)
			if err != nil {
				t.Fatalf("Remove() returned unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Remove() returned incorrect URI (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemoveBadEscape(t *testing.T) {
	if _, err := query.Remove([]string{"id"}, "/verify?%zz=1"); err == nil {
		t.Error("Remove() with malformed parameter name returned nil error")
	}
}

func TestExpiryTimestamp(t *testing.T) {
	testCases := []struct {
		name string
		uri  string
		want int64
		err  error
	}{
		{
			name: "present",
			uri:  "https://example.com/verify?expires=1700003600&_hash=abc",
			want: 1700003600,
		},
		{
			name: "first wins",
			uri:  "/verify?expires=10&expires=20",
			want: 10,
		},
		{
			name: "missing",
			uri:  "/verify?_hash=abc",
			err:  query.ErrMissingParameter,
		},
		{
			name: "no query",
			uri:  "/verify",
			err:  query.ErrMissingParameter,
		},
		{
			name: "non-numeric",
			uri:  "/verify?expires=tomorrow",
			err:  query.ErrInvalidTimestamp,
		},
		{
			name: "empty",
			uri:  "/verify?expires=",
			err:  query.ErrInvalidTimestamp,
		},
		{
			name: "in fragment only",
			uri:  "/verify#expires=10",
			err:  query.ErrMissingParameter,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := query.ExpiryTimestamp(tc.uri)
			if gotErr, wantErr := err != nil, tc.err != nil; gotErr != wantErr {
				t.Fatalf("ExpiryTimestamp(%q) returned incorrect error status - got: %v want: %v", tc.uri, err, tc.err)
			}
			if err != nil {
				if !errors.Is(err, tc.err) {
					t.Errorf("ExpiryTimestamp(%q) returned incorrect error type - got: %v want: %v", tc.uri, err, tc.err)
				}
				return
			}
			if got != tc.want {
				t.Errorf("ExpiryTimestamp(%q) returned incorrect timestamp - got: %d want: %d", tc.uri, got, tc.want)
			}
		})
	}
}

func TestAddRemoveEmptyQuery(t *testing.T) {
	uri := "https://x/verify?"
	added := query.Add([]query.Pair{{Name: "id", Value: "1"}}, uri)
	if want := "https://x/verify?id=1"; added != want {
		t.Errorf("Add() returned incorrect URI - got: %q want: %q", added, want)
	}
	got, err := query.Remove([]string{"id"}, added)
	if err != nil {
		t.Fatalf("Remove() returned unexpected error: %v", err)
	}
	if want := "https://x/verify"; got != want {
		t.Errorf("Remove() returned incorrect URI - got: %q want: %q", got, want)
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Remove(names, Add(pairs, uri)) == uri", prop.ForAll(
		func(baseNames, claimNames, values []string) bool {
			// Name prefixes keep the claims disjoint from the base parameters.
			var base []query.Pair
			for _, n := range baseNames {
				base = append(base, query.Pair{Name: "base_" + n, Value: n})
			}
			uri := query.Add(base, "https://example.com/verify")

			var pairs []query.Pair
			var names []string
			for i, n := range claimNames {
				v := ""
				if i < len(values) {
					v = values[i]
				}
				pairs = append(pairs, query.Pair{Name: "claim_" + n, Value: v})
				names = append(names, "claim_"+n)
			}
			got, err := query.Remove(names, query.Add(pairs, uri))
			return err == nil && got == uri
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}

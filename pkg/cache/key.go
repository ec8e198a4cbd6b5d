package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Signature is the normalized identity of one outbound request, used as the
// cache key. Two requests with the same method, URL, and query parameters
// (regardless of parameter order) produce the same signature.
type Signature struct {
	// Method is the HTTP method ("GET").
	Method string

	// URL is the request URL without query string.
	URL string

	// Query holds the query parameters.
	Query url.Values
}

// NewSignature parses a raw URL into a Signature.
func NewSignature(method, rawURL string) (Signature, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Signature{}, fmt.Errorf("parse url: %w", err)
	}

	query := u.Query()
	u.RawQuery = ""
	u.Fragment = ""

	return Signature{
		Method: strings.ToUpper(method),
		URL:    u.String(),
		Query:  query,
	}, nil
}

// String generates a deterministic cache key string.
// Format: nexus:METHOD:url:query1=val1:query2=val2
//
// Example:
//
//	nexus:GET:https://games.roblox.com/v2/users/1/games:limit=50:sortOrder=Asc
func (s Signature) String() string {
	parts := []string{"nexus", s.Method, s.URL}

	// Add query params (sorted for determinism)
	if len(s.Query) > 0 {
		queryKeys := make([]string, 0, len(s.Query))
		for key := range s.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, s.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}

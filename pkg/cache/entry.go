package cache

import (
	"encoding/json"
	"time"
)

// DefaultTTL is how long a cached upstream response stays fresh.
const DefaultTTL = 300 * time.Second

// Entry represents one cached upstream response.
type Entry struct {
	// Payload is the decoded response body.
	Payload json.RawMessage `json:"payload"`

	// StoredAt is when the response was cached.
	StoredAt time.Time `json:"stored_at"`
}

// Expired returns true if the entry is older than ttl.
// Expired entries are treated as absent.
func (e *Entry) Expired(ttl time.Duration) bool {
	return time.Since(e.StoredAt) > ttl
}

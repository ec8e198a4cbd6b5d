package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrCacheMiss indicates the requested signature was not found in cache
	// or the stored entry has exceeded its TTL.
	ErrCacheMiss = errors.New("cache miss")
)

// Store is the response cache contract consumed by the fetcher.
type Store interface {
	// Get returns the cached payload for sig, or ErrCacheMiss.
	Get(ctx context.Context, sig Signature) (json.RawMessage, error)

	// Set stores payload under sig. Last write wins.
	Set(ctx context.Context, sig Signature, payload json.RawMessage) error
}

// MemoryStore is an in-process TTL store. Reads and writes to distinct keys
// never block one another; concurrent writes to the same key race with
// last-write-wins, which is acceptable for idempotent upstream reads.
type MemoryStore struct {
	entries sync.Map // string -> *Entry
	ttl     time.Duration
	count   atomic.Int64
}

// NewMemoryStore creates an in-memory store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl}
}

// Get retrieves a fresh payload by signature. Entries past TTL are evicted
// lazily here; there is no background sweep.
func (s *MemoryStore) Get(_ context.Context, sig Signature) (json.RawMessage, error) {
	key := sig.String()

	value, ok := s.entries.Load(key)
	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	entry := value.(*Entry)
	if entry.Expired(s.ttl) {
		s.entries.Delete(key)
		s.count.Add(-1)
		CacheEntries.WithLabelValues("memory").Set(float64(s.count.Load()))
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry.Payload, nil
}

// Set stores a payload under the signature.
func (s *MemoryStore) Set(_ context.Context, sig Signature, payload json.RawMessage) error {
	_, existed := s.entries.Swap(sig.String(), &Entry{
		Payload:  payload,
		StoredAt: time.Now(),
	})
	if !existed {
		s.count.Add(1)
	}
	CacheEntries.WithLabelValues("memory").Set(float64(s.count.Load()))
	return nil
}

// Len returns the number of stored entries, including not-yet-evicted
// stale ones.
func (s *MemoryStore) Len() int {
	return int(s.count.Load())
}

// Clear drops all entries.
func (s *MemoryStore) Clear() {
	s.entries.Range(func(key, _ any) bool {
		s.entries.Delete(key)
		return true
	})
	s.count.Store(0)
	CacheEntries.WithLabelValues("memory").Set(0)
}

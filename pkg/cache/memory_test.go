package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func testSignature(t *testing.T, rawURL string) Signature {
	t.Helper()
	sig, err := NewSignature("GET", rawURL)
	if err != nil {
		t.Fatalf("NewSignature(%q) failed: %v", rawURL, err)
	}
	return sig
}

func TestEntry_Expired(t *testing.T) {
	tests := []struct {
		name     string
		storedAt time.Time
		ttl      time.Duration
		want     bool
	}{
		{
			name:     "fresh entry",
			storedAt: time.Now(),
			ttl:      300 * time.Second,
			want:     false,
		},
		{
			name:     "expired entry",
			storedAt: time.Now().Add(-301 * time.Second),
			ttl:      300 * time.Second,
			want:     true,
		},
		{
			name:     "just under ttl",
			storedAt: time.Now().Add(-299 * time.Second),
			ttl:      300 * time.Second,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{StoredAt: tt.storedAt}
			if got := entry.Expired(tt.ttl); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryStore_GetSet(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	ctx := context.Background()
	sig := testSignature(t, "https://games.roblox.com/v2/users/1/games?limit=50")

	// Miss before set
	if _, err := store.Get(ctx, sig); err != ErrCacheMiss {
		t.Errorf("Get() before Set = %v, want ErrCacheMiss", err)
	}

	payload := json.RawMessage(`{"data":[{"id":1}]}`)
	if err := store.Set(ctx, sig, payload); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, err := store.Get(ctx, sig)
	if err != nil {
		t.Fatalf("Get() after Set failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get() = %s, want %s", got, payload)
	}
}

func TestMemoryStore_LazyEviction(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	ctx := context.Background()
	sig := testSignature(t, "https://games.roblox.com/v2/users/1/games")

	if err := store.Set(ctx, sig, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}

	time.Sleep(30 * time.Millisecond)

	// The stale entry is still held until the next read evicts it.
	if _, err := store.Get(ctx, sig); err != ErrCacheMiss {
		t.Errorf("Get() past TTL = %v, want ErrCacheMiss", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after lazy eviction = %d, want 0", store.Len())
	}
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	ctx := context.Background()
	sig := testSignature(t, "https://thumbnails.roblox.com/v1/assets?assetIds=1")

	_ = store.Set(ctx, sig, json.RawMessage(`{"v":1}`))
	_ = store.Set(ctx, sig, json.RawMessage(`{"v":2}`))

	got, err := store.Get(ctx, sig)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Get() = %s, want second write", got)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_ConcurrentDistinctKeys(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sig := Signature{Method: "GET", URL: fmt.Sprintf("https://example.com/%d", i)}
			payload := json.RawMessage(fmt.Sprintf(`{"i":%d}`, i))
			if err := store.Set(ctx, sig, payload); err != nil {
				t.Errorf("Set(%d) failed: %v", i, err)
				return
			}
			got, err := store.Get(ctx, sig)
			if err != nil {
				t.Errorf("Get(%d) failed: %v", i, err)
				return
			}
			if string(got) != string(payload) {
				t.Errorf("Get(%d) = %s, want %s", i, got, payload)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != n {
		t.Errorf("Len() = %d, want %d", store.Len(), n)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sig := Signature{Method: "GET", URL: fmt.Sprintf("https://example.com/%d", i)}
		_ = store.Set(ctx, sig, json.RawMessage(`{}`))
	}

	store.Clear()

	if store.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", store.Len())
	}
}

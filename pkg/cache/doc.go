// Package cache provides response caching for upstream Roblox API calls.
//
// Every successful upstream response is stored under its request signature
// (method + URL + normalized query) and served from cache for a fixed TTL.
// Staleness is determined lazily at read time; there is no background sweep.
//
// Two backends implement the Store contract:
//
//   - MemoryStore: in-process, per-key independent, last-write-wins.
//     The default for a single proxy instance.
//   - RedisStore: shared across processes, TTL enforced by Redis expiry.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore(cache.DefaultTTL)
//
//	sig, err := cache.NewSignature("GET", "https://games.roblox.com/v2/users/1/games?limit=50")
//	if err != nil {
//	    return err
//	}
//
//	payload, err := store.Get(ctx, sig)
//	if err == cache.ErrCacheMiss {
//	    // fetch from upstream, then:
//	    _ = store.Set(ctx, sig, payload)
//	}
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - nexus_cache_hits_total{layer} - cache hits by backend
//   - nexus_cache_misses_total - cache misses
//   - nexus_cache_errors_total{operation} - backend operation errors
package cache

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ztnlabs/nexus/internal/testutil"
	"github.com/ztnlabs/nexus/pkg/cache"
	"github.com/ztnlabs/nexus/pkg/fetch"
	"github.com/ztnlabs/nexus/pkg/pacing"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newRedisFetcher(redisClient *redis.Client, ttl time.Duration) *fetch.Fetcher {
	cfg := fetch.DefaultConfig()
	cfg.RateLimitBackoff = time.Millisecond
	cfg.RetryDelay = time.Millisecond
	cfg.CacheTTL = ttl

	gate := pacing.NewGate(time.Millisecond, zerolog.Nop())
	return fetch.New(cache.NewRedisStore(redisClient, ttl), gate, cfg, zerolog.Nop())
}

// TestCacheIdempotenceThroughRedis verifies that two identical fetches
// within the TTL dispatch exactly one upstream call when the cache lives in
// Redis.
func TestCacheIdempotenceThroughRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetResponse("/v1/games", testutil.NewListingResponse(
		`[{"id": 101, "rootPlaceId": 9001, "name": "Obby World"}]`))

	f := newRedisFetcher(redisClient, cache.DefaultTTL)
	url := mock.URL() + "/v1/games?universeIds=101"

	ctx := context.Background()
	first, err := f.Get(ctx, url)
	if err != nil {
		t.Fatalf("first Get() error = %v", err)
	}
	second, err := f.Get(ctx, url)
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}

	if string(first) != string(second) {
		t.Error("cached payload differs from the original response")
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("upstream was dialed %d times, want 1", mock.GetRequestCount())
	}
}

// TestCacheSharedAcrossFetchers verifies that a second fetcher sharing the
// same Redis backend serves from cache without dialing upstream.
func TestCacheSharedAcrossFetchers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetResponse("/v1/games", testutil.NewListingResponse(`[{"id": 101, "name": "Obby World"}]`))

	url := mock.URL() + "/v1/games?universeIds=101"
	ctx := context.Background()

	first := newRedisFetcher(redisClient, cache.DefaultTTL)
	if _, err := first.Get(ctx, url); err != nil {
		t.Fatalf("first fetcher Get() error = %v", err)
	}

	second := newRedisFetcher(redisClient, cache.DefaultTTL)
	if _, err := second.Get(ctx, url); err != nil {
		t.Fatalf("second fetcher Get() error = %v", err)
	}

	if mock.GetRequestCount() != 1 {
		t.Errorf("upstream was dialed %d times, want 1 across two fetchers", mock.GetRequestCount())
	}
}

// TestCacheExpiryThroughRedis verifies the TTL applies via Redis expiry.
func TestCacheExpiryThroughRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockUpstream()
	defer mock.Close()

	mock.SetResponse("/v1/games", testutil.NewListingResponse(`[{"id": 101, "name": "Obby World"}]`))

	f := newRedisFetcher(redisClient, time.Second)
	url := mock.URL() + "/v1/games?universeIds=101"
	ctx := context.Background()

	if _, err := f.Get(ctx, url); err != nil {
		t.Fatalf("first Get() error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := f.Get(ctx, url); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("upstream was dialed %d times, want 2 after expiry", mock.GetRequestCount())
	}
}

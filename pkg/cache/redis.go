package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the response cache with Redis so cache state is shared
// across proxy instances. TTL enforcement is delegated to Redis key expiry.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves a cached payload by signature.
// Returns ErrCacheMiss if the key doesn't exist or has expired.
func (s *RedisStore) Get(ctx context.Context, sig Signature) (json.RawMessage, error) {
	data, err := s.redis.Get(ctx, sig.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	return json.RawMessage(data), nil
}

// Set stores a payload under the signature with the store's TTL.
// The entry is removed by Redis when it expires.
func (s *RedisStore) Set(ctx context.Context, sig Signature, payload json.RawMessage) error {
	if err := s.redis.Set(ctx, sig.String(), []byte(payload), s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a cached payload.
func (s *RedisStore) Delete(ctx context.Context, sig Signature) error {
	if err := s.redis.Del(ctx, sig.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ztnlabs/nexus/internal/httpapi"
	"github.com/ztnlabs/nexus/pkg/cache"
	"github.com/ztnlabs/nexus/pkg/fetch"
	"github.com/ztnlabs/nexus/pkg/logging"
	"github.com/ztnlabs/nexus/pkg/pacing"
	"github.com/ztnlabs/nexus/pkg/policy"
	"github.com/ztnlabs/nexus/pkg/roblox"
	"github.com/ztnlabs/nexus/pkg/telemetry"
)

func main() {
	// Configuration from environment
	port := getEnv("PORT", "8080")
	redisURL := getEnv("REDIS_URL", "")
	logLevel := getEnv("LOG_LEVEL", "info")
	userAgent := getEnv("USER_AGENT", "")

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(logLevel)
	logging.Setup(logCfg)
	logger := logging.NewLogger("nexus-proxy")

	// Cache backend: Redis when configured, in-process memory otherwise.
	var store cache.Store
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("failed to connect to Redis")
		}
		cancel()

		store = cache.NewRedisStore(redisClient, cache.DefaultTTL)
		logger.Info().Str("redis_url", redisURL).Msg("using Redis cache backend")
	} else {
		store = cache.NewMemoryStore(cache.DefaultTTL)
		logger.Info().Msg("using in-memory cache backend")
	}

	gate := pacing.NewGate(pacing.DefaultInterval, logging.NewLogger("pacing"))

	fetchCfg := fetch.DefaultConfig()
	if userAgent != "" {
		fetchCfg.UserAgent = userAgent
	}
	fetcher := fetch.New(store, gate, fetchCfg, logging.NewLogger("fetch"))

	client := roblox.NewClient(fetcher, roblox.DefaultClientConfig(), logging.NewLogger("roblox"))
	aggregator := roblox.NewAggregator(client, logging.NewLogger("aggregate"))

	usage := telemetry.NewStore(telemetry.DefaultCapacity, logging.NewLogger("telemetry"))
	status := policy.NewStatus(logging.NewLogger("policy"))
	blocks := policy.NewBlockList(logging.NewLogger("policy"))
	actions := policy.NewActionLog()

	server := httpapi.NewServer(client, aggregator, usage, status, blocks, actions, logging.NewLogger("httpapi"))

	addr := ":" + port
	logger.Info().Str("addr", addr).Msg("starting nexus proxy")

	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/connectcom-support/internal/auth"
	appconfig "github.com/wolfman30/connectcom-support/internal/config"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRevocationStore prefers Redis so logouts hold across replicas and
// restarts; without it revocations live in process memory.
func BuildRevocationStore(client *redis.Client, logger *logging.Logger) auth.RevocationStore {
	if logger == nil {
		logger = logging.Default()
	}
	if client == nil {
		logger.Warn("redis not configured; token revocations are kept in memory")
		return auth.NewMemoryRevocationStore()
	}
	return auth.NewRedisRevocationStore(client)
}

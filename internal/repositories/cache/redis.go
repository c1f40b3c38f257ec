// Package cache wraps the Redis fast-access store holding per-user fraud
// features and profile context.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient creates a go-redis client from config.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Defaults for users the cache has never seen: a mild risk prior and a long
// gap since the last transaction.
const (
	DefaultHistoricalRisk = 0.1
	DefaultTimeDelta      = 1.0
)

// UserProfile is the historical-risk/time-delta context consumed by the
// policy stage.
type UserProfile struct {
	HistoricalRisk float32 `json:"historicalRisk"`
	TimeDelta      float32 `json:"timeDelta"`
}

// ProfileCache reads fraud features and profile context from Redis. Missing
// keys and transport errors resolve to conservative "new user" defaults,
// never an error: an empty cache must not block payments.
type ProfileCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewProfileCache wraps a Redis client.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client, logger: slog.With("component", "profile_cache")}
}

// Features returns the 2-float feature vector for a user, defaulting to
// {0.0, 1.0} when the key is missing or unreadable.
func (c *ProfileCache) Features(ctx context.Context, userID string) [2]float32 {
	fallback := [2]float32{0.0, 1.0}
	raw, err := c.client.Get(ctx, fmt.Sprintf("user:%s:features", userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("feature fetch failed", "user", userID, "error", err)
		}
		return fallback
	}
	var features []float32
	if err := json.Unmarshal([]byte(raw), &features); err != nil || len(features) < 2 {
		c.logger.Warn("malformed feature vector", "user", userID)
		return fallback
	}
	return [2]float32{features[0], features[1]}
}

// Profile returns the historical-risk/time-delta context for a user,
// defaulting to the new-user prior.
func (c *ProfileCache) Profile(ctx context.Context, userID string) UserProfile {
	fallback := UserProfile{HistoricalRisk: DefaultHistoricalRisk, TimeDelta: DefaultTimeDelta}
	raw, err := c.client.Get(ctx, fmt.Sprintf("user:%s:profile", userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("profile fetch failed", "user", userID, "error", err)
		}
		return fallback
	}
	var profile UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		c.logger.Warn("malformed profile", "user", userID)
		return fallback
	}
	return profile
}

// Ping checks connectivity, used by the health endpoint.
func (c *ProfileCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *ProfileCache) Close() error {
	return c.client.Close()
}

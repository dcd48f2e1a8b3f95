// Package cache holds the Redis-backed product cache and token blacklist.
package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/resona/rental-api/internal/config"
	log "github.com/sirupsen/logrus"
)

// NewRedisClient connects to Redis. A nil client and nil error are returned
// when no host is configured.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		log.Info("redis not configured, product cache and token blacklist disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.WithField("addr", cfg.Addr()).Info("connected to redis")
	return client, nil
}

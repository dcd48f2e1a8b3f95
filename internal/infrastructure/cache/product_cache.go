package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	log "github.com/sirupsen/logrus"
)

const productKeyPrefix = "product:"

// ProductCache keeps catalog products by ID. Misses return (nil, nil).
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	Set(ctx context.Context, product *entity.Product) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache returns a Redis cache, or a no-op cache when client is nil
func NewProductCache(client *redis.Client, ttl time.Duration) ProductCache {
	if client == nil {
		return NoopProductCache{}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisProductCache{client: client, ttl: ttl}
}

func productKey(id uuid.UUID) string {
	return productKeyPrefix + id.String()
}

func (c *redisProductCache) Get(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var product entity.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		log.WithError(err).WithField("product_id", id).Warn("dropping unreadable cached product")
		_ = c.client.Del(ctx, productKey(id)).Err()
		return nil, nil
	}
	return &product, nil
}

func (c *redisProductCache) Set(ctx context.Context, product *entity.Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(product.ID), raw, c.ttl).Err()
}

func (c *redisProductCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, productKey(id)).Err()
}

// NoopProductCache never holds anything
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, uuid.UUID) (*entity.Product, error) { return nil, nil }

func (NoopProductCache) Set(context.Context, *entity.Product) error { return nil }

func (NoopProductCache) Invalidate(context.Context, uuid.UUID) error { return nil }

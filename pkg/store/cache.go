package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/ordershop/pkg/config"
	"github.com/example/ordershop/pkg/models"
	"github.com/go-redis/redis/v8"
)

const orderCacheTTL = 30 * time.Minute

// OrderCache is a Redis read cache for order-by-id lookups on the display
// endpoints. The creation saga never reads through it; writes to an order
// invalidate its key.
type OrderCache struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewOrderCache(cfg *config.RedisConfig) *OrderCache {
	return &OrderCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (c *OrderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *OrderCache) Close() error {
	return c.client.Close()
}

// GetOrder returns the cached order, or nil on a miss.
func (c *OrderCache) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderCache) SetOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, orderKey(order.ID), data, orderCacheTTL).Err()
}

func (c *OrderCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, orderKey(id)).Err()
}

func orderKey(id string) string {
	return fmt.Sprintf("order:%s", id)
}

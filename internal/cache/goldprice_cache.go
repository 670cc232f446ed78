package cache

import (
	"context"
	"strconv"
	"time"
)

const goldPriceKey = "goldprice:irr_per_gram"

// GoldPriceCache keeps the latest fetched gold price so enqueue does not hit
// the upstream price endpoint on every sale.
type GoldPriceCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewGoldPriceCache creates a GoldPriceCache with the given TTL.
func NewGoldPriceCache(redis *RedisClient, ttl time.Duration) *GoldPriceCache {
	return &GoldPriceCache{redis: redis, ttl: ttl}
}

// Get returns the cached price in rials per gram, or false when absent.
func (c *GoldPriceCache) Get(ctx context.Context) (int64, bool) {
	raw, err := c.redis.Get(ctx, goldPriceKey)
	if err != nil {
		return 0, false
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// Set stores the price with the configured TTL.
func (c *GoldPriceCache) Set(ctx context.Context, price int64) error {
	return c.redis.Set(ctx, goldPriceKey, strconv.FormatInt(price, 10), c.ttl)
}

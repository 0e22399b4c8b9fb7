package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCachedGeocoder wraps a Geocoder with a shared Redis cache, an
// alternative to CachedGeocoder's in-process LRU for multi-instance
// deployments. Construction mirrors this ecosystem's standard
// redis.NewClient(&redis.Options{...}) plus connectivity-check idiom.
type RedisCachedGeocoder struct {
	inner Geocoder
	rdb   *redis.Client
	ttl   time.Duration
}

// NewRedisClient builds a pooled Redis client and verifies connectivity
// with a bounded ping, the same shape used for this codebase's other
// Redis-backed cache.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisCachedGeocoder decorates inner with a shared Redis cache. Entries
// expire after ttl so stale place labels eventually refresh.
func NewRedisCachedGeocoder(inner Geocoder, rdb *redis.Client, ttl time.Duration) *RedisCachedGeocoder {
	return &RedisCachedGeocoder{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *RedisCachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	key := "geocode:rev:" + cacheKey(lat, lon)

	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var result Result
		if json.Unmarshal(cached, &result) == nil {
			return &result, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable: degrade to calling through rather than failing.
	}

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if data, mErr := json.Marshal(result); mErr == nil {
			_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
		}
	}
	return result, nil
}

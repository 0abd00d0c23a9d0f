package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

// RedisCacheOptions tunes a RedisCache.
type RedisCacheOptions struct {
	Prefix           string
	TTL              time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// RedisCache keeps recommendation lists in Redis, shared by every replica.
// Entries age out through their TTL.
type RedisCache struct {
	client  redis.Cmdable
	prefix  string
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewRedisCache wraps client. Redis failures trip a circuit breaker and the
// cache behaves as unavailable while it is open.
func NewRedisCache(client redis.Cmdable, opts RedisCacheOptions) *RedisCache {
	if opts.Prefix == "" {
		opts.Prefix = "filmfriends"
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "recommendation-cache",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled)
		},
	})

	return &RedisCache{client: client, prefix: opts.Prefix, ttl: opts.TTL, breaker: breaker}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]int64, bool, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, c.entryKey(key)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupt entry is overwritten by the next Set.
		return nil, false, nil
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, c.entryKey(key), payload, c.ttl).Err()
	})
	return err
}

func (c *RedisCache) entryKey(key string) string {
	return c.prefix + ":rec:" + key
}

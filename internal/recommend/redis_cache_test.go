package recommend

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

func TestRedisCacheBreakerOpensOnFailures(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCache(client, RedisCacheOptions{FailureThreshold: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := cache.Get(ctx, "0:1"); err == nil {
			t.Fatalf("Get #%d: expected connection error", i+1)
		}
	}

	_, hit, err := cache.Get(ctx, "0:1")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if hit {
		t.Fatal("open breaker must report a miss")
	}
	if err := cache.Set(ctx, "0:1", []int64{1}); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Set while open = %v", err)
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("FILMFRIENDS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set FILMFRIENDS_TEST_REDIS_ADDR to run against a Redis server")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	prefix := "filmfriends-test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	cache := NewRedisCache(client, RedisCacheOptions{Prefix: prefix, TTL: time.Minute})

	if _, hit, err := cache.Get(ctx, "0:1"); err != nil || hit {
		t.Fatalf("first Get = hit %v, err %v", hit, err)
	}
	if err := cache.Set(ctx, "0:1", []int64{3, 4}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ids, hit, err := cache.Get(ctx, "0:1")
	if err != nil || !hit || !reflect.DeepEqual(ids, []int64{3, 4}) {
		t.Fatalf("cached Get = %v, hit %v, err %v", ids, hit, err)
	}

	if _, hit, _ := cache.Get(ctx, "1:1"); hit {
		t.Fatal("a later like generation must miss")
	}

	ttl, err := client.TTL(ctx, prefix+":rec:0:1").Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("entry ttl = %v, err %v", ttl, err)
	}
}

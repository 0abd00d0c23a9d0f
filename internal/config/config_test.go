package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("port = %d", cfg.AppPort)
	}
	if cfg.MigrationDir != "migrations" || cfg.SeedDir != "seeds" {
		t.Fatalf("dirs = %q, %q", cfg.MigrationDir, cfg.SeedDir)
	}
	if cfg.Redis.CacheTTL != 10*time.Minute || cfg.Redis.Addr != "" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.RecommendCacheTTL != time.Minute {
		t.Fatalf("recommend cache ttl = %s", cfg.RecommendCacheTTL)
	}
	if cfg.NATS.SubjectPrefix != "filmfriends.events" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Burst != 20 {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FILMFRIENDS_PORT", "9090")
	t.Setenv("FILMFRIENDS_REDIS_ADDR", "localhost:6379")
	t.Setenv("FILMFRIENDS_REDIS_CACHE_TTL", "30s")
	t.Setenv("FILMFRIENDS_NATS_URL", "nats://localhost:4222")
	t.Setenv("FILMFRIENDS_OBJECT_STORE_BUCKET", "snapshots")
	t.Setenv("FILMFRIENDS_HTTP_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppPort != 9090 {
		t.Fatalf("port = %d", cfg.AppPort)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.CacheTTL != 30*time.Second {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
	if cfg.ObjectStore.Bucket != "snapshots" {
		t.Fatalf("object store = %+v", cfg.ObjectStore)
	}
	if cfg.HTTP.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unparseable port", key: "FILMFRIENDS_PORT", val: "http"},
		{name: "port out of range", key: "FILMFRIENDS_PORT", val: "70000"},
		{name: "zero burst", key: "FILMFRIENDS_RATE_LIMIT_BURST", val: "0"},
		{name: "bad duration", key: "FILMFRIENDS_REDIS_CACHE_TTL", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

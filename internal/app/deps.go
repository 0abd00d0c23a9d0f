package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filmfriends/backend/internal/broker"
	"github.com/filmfriends/backend/internal/config"
	"github.com/filmfriends/backend/internal/db"
	"github.com/filmfriends/backend/internal/handlers"
	"github.com/filmfriends/backend/internal/metrics"
	"github.com/filmfriends/backend/internal/middleware"
	"github.com/filmfriends/backend/internal/recommend"
	"github.com/filmfriends/backend/internal/repositories"
	"github.com/filmfriends/backend/internal/social"
)

const rateLimiterIdleTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases the optional Redis and NATS clients.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	var closers []func() error
	cleanup := func(context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	films := repositories.NewPostgresFilmRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)

	sinks := []social.EventSink{metrics.EventCounter{}}

	var cache recommend.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, client.Close)

		cache = recommend.NewRedisCache(client, recommend.RedisCacheOptions{
			Prefix: cfg.Redis.Prefix,
			TTL:    cfg.Redis.CacheTTL,
		})
	} else if cfg.RecommendCacheTTL > 0 {
		cache = recommend.NewMemoryCache(cfg.RecommendCacheTTL)
	}

	if cfg.NATS.URL != "" {
		conn, err := broker.Connect(cfg.NATS.URL, "filmfriends-backend")
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("connect nats: %w", err)
		}
		closers = append(closers, conn.Drain)
		sinks = append(sinks, broker.NewNATSPublisher(conn, cfg.NATS.SubjectPrefix))
	}

	service := social.NewService(social.Stores{
		Users:       repositories.NewPostgresUserRepository(pool),
		Films:       films,
		Friendships: repositories.NewPostgresFriendshipRepository(pool),
		Likes:       likes,
		Events:      repositories.NewPostgresEventLog(pool),
	}, sinks...)

	deps := handlers.Dependencies{
		Friends:     service,
		Likes:       service,
		Events:      service,
		Recommender: recommend.NewEngine(likes, cache),
		Films:       films,
		Health:      pool,
		Validator:   handlers.NewValidator(),
	}

	if cfg.RateLimit.Enabled {
		deps.RateLimiter = middleware.NewScopedRateLimiter(middleware.Limit{
			PerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:     cfg.RateLimit.Burst,
		}, rateLimiterIdleTTL)
	}

	return deps, cleanup, nil
}

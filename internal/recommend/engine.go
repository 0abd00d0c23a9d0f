package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/filmfriends/backend/internal/logging"
	"github.com/filmfriends/backend/internal/metrics"
	"github.com/filmfriends/backend/internal/models"
)

// LikeSource provides the full like relation and its generation, a counter
// of committed like changes that never decreases.
type LikeSource interface {
	AllUserLikes(ctx context.Context) (models.LikeRelation, error)
	LikeGeneration(ctx context.Context) (int64, error)
}

// Cache stores computed recommendations under opaque keys.
type Cache interface {
	Get(ctx context.Context, key string) (ids []int64, hit bool, err error)
	Set(ctx context.Context, key string, ids []int64) error
}

// NearestNeighbour returns the user sharing the most liked films with userID.
// Ties go to the lowest user id. ok is false when nobody shares a film.
func NearestNeighbour(likes models.LikeRelation, userID int64) (neighbour int64, score int, ok bool) {
	mine := likes[userID]
	if len(mine) == 0 {
		return 0, 0, false
	}

	for other, films := range likes {
		if other == userID {
			continue
		}
		overlap := 0
		for filmID := range films {
			if _, liked := mine[filmID]; liked {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		if overlap > score || (overlap == score && other < neighbour) {
			neighbour, score, ok = other, overlap, true
		}
	}
	return neighbour, score, ok
}

// Recommend returns the films liked by the nearest neighbour of userID that
// userID has not liked yet, in ascending id order.
func Recommend(likes models.LikeRelation, userID int64) []int64 {
	neighbour, _, ok := NearestNeighbour(likes, userID)
	if !ok {
		return []int64{}
	}

	mine := likes[userID]
	ids := make([]int64, 0, len(likes[neighbour]))
	for filmID := range likes[neighbour] {
		if _, liked := mine[filmID]; !liked {
			ids = append(ids, filmID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Engine computes recommendations from a LikeSource, optionally through a Cache.
type Engine struct {
	source LikeSource
	cache  Cache
}

// NewEngine constructs an Engine. cache may be nil.
func NewEngine(source LikeSource, cache Cache) *Engine {
	if source == nil {
		panic("recommend: like source is required")
	}
	return &Engine{source: source, cache: cache}
}

// Recommend returns film ids for userID. Users without any overlapping taste,
// including unknown users, get an empty list.
func (e *Engine) Recommend(ctx context.Context, userID int64) (ids []int64, err error) {
	ctx, span := logging.StartSpan(ctx, "recommend.compute", slog.Int64("user_id", userID))
	defer func() { span.Fail(err); span.End() }()

	key := e.cacheKey(ctx, userID)
	if key != "" {
		cached, hit, cacheErr := e.cache.Get(ctx, key)
		switch {
		case cacheErr != nil:
			metrics.RecordCacheLookup("error")
			logging.FromContext(ctx).Debug("recommendation cache unavailable", "error", cacheErr)
			key = ""
		case hit:
			metrics.RecordCacheLookup("hit")
			metrics.RecordRecommendation("hit")
			return cached, nil
		default:
			metrics.RecordCacheLookup("miss")
		}
	}

	likes, err := e.source.AllUserLikes(ctx)
	if err != nil {
		metrics.RecordRecommendation("error")
		return nil, fmt.Errorf("load likes: %w", err)
	}

	ids = Recommend(likes, userID)
	if len(ids) == 0 {
		metrics.RecordRecommendation("empty")
	} else {
		metrics.RecordRecommendation("computed")
	}

	if key != "" {
		if err := e.cache.Set(ctx, key, ids); err != nil {
			logging.FromContext(ctx).Debug("recommendation cache write failed", "error", err)
		}
	}
	return ids, nil
}

// cacheKey pins the like generation read before the likes are loaded, so a
// list is never stored under a generation newer than the state it reflects.
// It returns "" when caching is off or the generation is unavailable.
func (e *Engine) cacheKey(ctx context.Context, userID int64) string {
	if e.cache == nil {
		return ""
	}
	gen, err := e.source.LikeGeneration(ctx)
	if err != nil {
		metrics.RecordCacheLookup("error")
		logging.FromContext(ctx).Debug("like generation unavailable", "error", err)
		return ""
	}
	return strconv.FormatInt(gen, 10) + ":" + strconv.FormatInt(userID, 10)
}

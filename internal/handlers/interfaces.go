package handlers

import (
	"context"

	"github.com/filmfriends/backend/internal/models"
	"github.com/filmfriends/backend/internal/social"
)

// FriendService captures the friendship graph operations used by FriendHandler.
type FriendService interface {
	AddFriend(ctx context.Context, userID, friendID int64) error
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	Friends(ctx context.Context, userID int64) ([]int64, error)
	CommonFriends(ctx context.Context, a, b int64) ([]int64, error)
	FriendshipState(ctx context.Context, a, b int64) (social.FriendshipState, error)
}

// LikeService captures the like operations used by LikeHandler.
type LikeService interface {
	AddLike(ctx context.Context, userID, filmID int64) error
	RemoveLike(ctx context.Context, userID, filmID int64) error
}

// EventService captures the activity log operations used by EventHandler.
type EventService interface {
	AppendEvent(ctx context.Context, event models.Event) (int64, error)
	UserEvents(ctx context.Context, userID int64) ([]models.Event, error)
}

// Recommender computes film recommendations for a user.
type Recommender interface {
	Recommend(ctx context.Context, userID int64) ([]int64, error)
}

// FilmFinder hydrates film ids into catalogue records.
type FilmFinder interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Film, error)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

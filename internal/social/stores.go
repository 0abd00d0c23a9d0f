package social

import (
	"context"

	"github.com/filmfriends/backend/internal/models"
)

// UserLookup reports whether a user id is known to the catalogue.
type UserLookup interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// FilmLookup reports whether a film id is known to the catalogue.
type FilmLookup interface {
	Exists(ctx context.Context, filmID int64) (bool, error)
}

// FriendshipStore persists friendship edges.
type FriendshipStore interface {
	// ApplyFriendship serializes mutations on pair. It hands the current state
	// to plan, persists the returned transition and, when the transition
	// emits, appends event in the same unit of work. The appended event is
	// returned, or nil when nothing was emitted.
	ApplyFriendship(ctx context.Context, pair Pair, plan func(FriendshipState) Transition, event models.Event) (*models.Event, error)
	// FriendshipState returns the current state of pair.
	FriendshipState(ctx context.Context, pair Pair) (FriendshipState, error)
	// FriendIDs lists everyone userID requested plus everyone who confirmed userID.
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

// LikeStore persists the user/film like relation.
type LikeStore interface {
	// ApplyLike serializes mutations on the (userID, filmID) row, following
	// the same contract as FriendshipStore.ApplyFriendship.
	ApplyLike(ctx context.Context, userID, filmID int64, plan func(liked bool) LikeTransition, event models.Event) (*models.Event, error)
	AllUserLikes(ctx context.Context) (models.LikeRelation, error)
	// LikeGeneration returns a counter that grows with every committed like
	// change, whichever process made it.
	LikeGeneration(ctx context.Context) (int64, error)
}

// EventLog is the append-only activity record.
type EventLog interface {
	// Append assigns the event id and timestamp and stores the record.
	Append(ctx context.Context, event models.Event) (models.Event, error)
	// ListByUser returns the events performed by userID in insertion order.
	ListByUser(ctx context.Context, userID int64) ([]models.Event, error)
}

// EventSink receives events after they were appended.
type EventSink interface {
	Observe(ctx context.Context, event models.Event) error
}

package social

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/filmfriends/backend/internal/logging"
	"github.com/filmfriends/backend/internal/models"
)

// Stores groups the persistence collaborators required by Service.
type Stores struct {
	Users       UserLookup
	Films       FilmLookup
	Friendships FriendshipStore
	Likes       LikeStore
	Events      EventLog
}

// Service implements the friendship graph, like store and activity feed
// operations on top of the configured stores.
type Service struct {
	users       UserLookup
	films       FilmLookup
	friendships FriendshipStore
	likes       LikeStore
	events      EventLog
	sinks       []EventSink
}

// NewService constructs a Service. Appended events are delivered to sinks in order.
func NewService(stores Stores, sinks ...EventSink) *Service {
	if stores.Users == nil || stores.Films == nil || stores.Friendships == nil || stores.Likes == nil || stores.Events == nil {
		panic("social: all stores must be provided")
	}
	return &Service{
		users:       stores.Users,
		films:       stores.Films,
		friendships: stores.Friendships,
		likes:       stores.Likes,
		events:      stores.Events,
		sinks:       sinks,
	}
}

// AddFriend sends a friend request from userID to friendID, or confirms the
// pending request friendID already sent to userID.
func (s *Service) AddFriend(ctx context.Context, userID, friendID int64) (err error) {
	ctx, span := logging.StartSpan(ctx, "social.add_friend", slog.Int64("user_id", userID), slog.Int64("friend_id", friendID))
	defer func() { span.Fail(err); span.End() }()

	if userID == friendID {
		return ErrSelfFriendship
	}
	if err := s.requireUsers(ctx, userID, friendID); err != nil {
		return err
	}

	plan := func(from FriendshipState) Transition { return PlanAdd(from, userID, friendID) }
	appended, err := s.friendships.ApplyFriendship(ctx, NewPair(userID, friendID), plan, models.Event{
		UserID:    userID,
		Type:      models.EventTypeFriend,
		Operation: models.OperationAdd,
		EntityID:  friendID,
	})
	if err != nil {
		return fmt.Errorf("add friend: %w", err)
	}

	s.deliver(ctx, appended)
	return nil
}

// RemoveFriend removes the edge between userID and friendID. Unless userID
// is the requester of an unconfirmed edge, the edge is recreated as a pending
// request from friendID to userID.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) (err error) {
	ctx, span := logging.StartSpan(ctx, "social.remove_friend", slog.Int64("user_id", userID), slog.Int64("friend_id", friendID))
	defer func() { span.Fail(err); span.End() }()

	if err := s.requireUsers(ctx, userID, friendID); err != nil {
		return err
	}

	plan := func(from FriendshipState) Transition { return PlanRemove(from, userID, friendID) }
	appended, err := s.friendships.ApplyFriendship(ctx, NewPair(userID, friendID), plan, models.Event{
		UserID:    userID,
		Type:      models.EventTypeFriend,
		Operation: models.OperationRemove,
		EntityID:  friendID,
	})
	if err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}

	s.deliver(ctx, appended)
	return nil
}

// Friends returns the ids visible as friends of userID in ascending order.
func (s *Service) Friends(ctx context.Context, userID int64) ([]int64, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}

	ids, err := s.friendships.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	sortIDs(ids)
	return ids, nil
}

// CommonFriends returns the intersection of the friend lists of a and b.
// Asking a user about themselves is rejected with ErrSelfFriendship.
func (s *Service) CommonFriends(ctx context.Context, a, b int64) ([]int64, error) {
	if a == b {
		return nil, ErrSelfFriendship
	}
	if err := s.requireUsers(ctx, a, b); err != nil {
		return nil, err
	}

	left, err := s.friendships.FriendIDs(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	right, err := s.friendships.FriendIDs(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	seen := make(map[int64]struct{}, len(left))
	for _, id := range left {
		seen[id] = struct{}{}
	}

	common := make([]int64, 0)
	for _, id := range right {
		if _, ok := seen[id]; ok {
			common = append(common, id)
			delete(seen, id)
		}
	}
	sortIDs(common)
	return common, nil
}

// FriendshipState exposes the current state between two users.
func (s *Service) FriendshipState(ctx context.Context, a, b int64) (FriendshipState, error) {
	if err := s.requireUsers(ctx, a, b); err != nil {
		return FriendshipState{}, err
	}
	state, err := s.friendships.FriendshipState(ctx, NewPair(a, b))
	if err != nil {
		return FriendshipState{}, fmt.Errorf("load friendship: %w", err)
	}
	return state, nil
}

// AddLike records that userID likes filmID. A LIKE/ADD event is appended on
// every call, including repeats.
func (s *Service) AddLike(ctx context.Context, userID, filmID int64) (err error) {
	ctx, span := logging.StartSpan(ctx, "social.add_like", slog.Int64("user_id", userID), slog.Int64("film_id", filmID))
	defer func() { span.Fail(err); span.End() }()

	if err := s.requireUsers(ctx, userID); err != nil {
		return err
	}
	if err := s.requireFilm(ctx, filmID); err != nil {
		return err
	}

	appended, err := s.likes.ApplyLike(ctx, userID, filmID, PlanAddLike, models.Event{
		UserID:    userID,
		Type:      models.EventTypeLike,
		Operation: models.OperationAdd,
		EntityID:  filmID,
	})
	if err != nil {
		return fmt.Errorf("add like: %w", err)
	}

	s.deliver(ctx, appended)
	return nil
}

// RemoveLike deletes the like if present. Removing an absent like is a no-op.
func (s *Service) RemoveLike(ctx context.Context, userID, filmID int64) (err error) {
	ctx, span := logging.StartSpan(ctx, "social.remove_like", slog.Int64("user_id", userID), slog.Int64("film_id", filmID))
	defer func() { span.Fail(err); span.End() }()

	appended, err := s.likes.ApplyLike(ctx, userID, filmID, PlanRemoveLike, models.Event{
		UserID:    userID,
		Type:      models.EventTypeLike,
		Operation: models.OperationRemove,
		EntityID:  filmID,
	})
	if err != nil {
		return fmt.Errorf("remove like: %w", err)
	}

	s.deliver(ctx, appended)
	return nil
}

// AllUserLikes returns the full like relation.
func (s *Service) AllUserLikes(ctx context.Context) (models.LikeRelation, error) {
	likes, err := s.likes.AllUserLikes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}
	return likes, nil
}

// LikeGeneration returns the like generation of the underlying store.
func (s *Service) LikeGeneration(ctx context.Context) (int64, error) {
	gen, err := s.likes.LikeGeneration(ctx)
	if err != nil {
		return 0, fmt.Errorf("load like generation: %w", err)
	}
	return gen, nil
}

// AppendEvent stores an event produced outside this package, such as a
// review change, and returns its assigned id.
func (s *Service) AppendEvent(ctx context.Context, event models.Event) (int64, error) {
	if err := ValidateEvent(event); err != nil {
		return 0, err
	}

	appended, err := s.events.Append(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	s.deliver(ctx, &appended)
	return appended.ID, nil
}

// UserEvents returns the activity feed of userID in insertion order.
func (s *Service) UserEvents(ctx context.Context, userID int64) ([]models.Event, error) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ValidateEvent checks the type and operation of an event. UPDATE is only
// meaningful for reviews.
func ValidateEvent(event models.Event) error {
	switch event.Type {
	case models.EventTypeFriend, models.EventTypeLike:
		if event.Operation != models.OperationAdd && event.Operation != models.OperationRemove {
			return fmt.Errorf("%w: operation %q not allowed for %s", ErrInvalidEvent, event.Operation, event.Type)
		}
	case models.EventTypeReview:
		switch event.Operation {
		case models.OperationAdd, models.OperationRemove, models.OperationUpdate:
		default:
			return fmt.Errorf("%w: unknown operation %q", ErrInvalidEvent, event.Operation)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, event.Type)
	}
	return nil
}

func (s *Service) requireUsers(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		ok, err := s.users.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("lookup user %d: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
	}
	return nil
}

func (s *Service) requireFilm(ctx context.Context, id int64) error {
	ok, err := s.films.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup film %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("film %d: %w", id, ErrNotFound)
	}
	return nil
}

// deliver hands an appended event to every sink. Sink failures are logged
// and never change the outcome of the mutation.
func (s *Service) deliver(ctx context.Context, event *models.Event) {
	if event == nil {
		return
	}
	for _, sink := range s.sinks {
		if err := sink.Observe(ctx, *event); err != nil {
			logging.FromContext(ctx).Warn("event sink failed",
				"eventId", event.ID,
				"eventType", event.Type,
				"error", err,
			)
		}
	}
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

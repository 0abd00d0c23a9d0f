package social

import (
	"context"
	"sync"
	"time"

	"github.com/filmfriends/backend/internal/models"
)

type likeKey struct {
	userID int64
	filmID int64
}

// MemoryStore implements FriendshipStore, LikeStore and EventLog in memory.
// It backs tests and local experiments; production uses the Postgres repositories.
type MemoryStore struct {
	pairLocks keyedMutex[Pair]
	likeLocks keyedMutex[likeKey]

	mu             sync.RWMutex
	edges          map[Pair]models.FriendshipEdge
	likes          models.LikeRelation
	likeGeneration int64

	eventsMu    sync.Mutex
	events      []models.Event
	lastEventID int64

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		edges: make(map[Pair]models.FriendshipEdge),
		likes: make(models.LikeRelation),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc allows tests to override the time source.
func (s *MemoryStore) WithNowFunc(now func() time.Time) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	s.now = now
}

// ApplyFriendship implements FriendshipStore.
func (s *MemoryStore) ApplyFriendship(ctx context.Context, pair Pair, plan func(FriendshipState) Transition, event models.Event) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.pairLocks.Lock(pair)
	defer unlock()

	s.mu.RLock()
	edge, ok := s.edges[pair]
	s.mu.RUnlock()

	t := plan(StateOf(edge, ok))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	switch t.Op {
	case EdgeInsert, EdgeReplace:
		s.edges[pair] = t.To.Edge(pair, s.clock())
	case EdgeConfirm:
		edge.Confirmed = true
		s.edges[pair] = edge
	case EdgeDelete:
		delete(s.edges, pair)
	}
	s.mu.Unlock()

	if !t.Emit {
		return nil, nil
	}
	appended := s.appendEvent(event)
	return &appended, nil
}

// FriendshipState implements FriendshipStore.
func (s *MemoryStore) FriendshipState(_ context.Context, pair Pair) (FriendshipState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, ok := s.edges[pair]
	return StateOf(edge, ok), nil
}

// FriendIDs implements FriendshipStore.
func (s *MemoryStore) FriendIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0)
	for _, edge := range s.edges {
		switch {
		case edge.RequesterID == userID:
			ids = append(ids, edge.RecipientID)
		case edge.RecipientID == userID && edge.Confirmed:
			ids = append(ids, edge.RequesterID)
		}
	}
	return ids, nil
}

// ApplyLike implements LikeStore.
func (s *MemoryStore) ApplyLike(ctx context.Context, userID, filmID int64, plan func(bool) LikeTransition, event models.Event) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.likeLocks.Lock(likeKey{userID: userID, filmID: filmID})
	defer unlock()

	s.mu.RLock()
	liked := s.likes.Has(userID, filmID)
	s.mu.RUnlock()

	t := plan(liked)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	switch t.Op {
	case LikeInsert:
		s.likes.Add(userID, filmID)
	case LikeDelete:
		delete(s.likes[userID], filmID)
		if len(s.likes[userID]) == 0 {
			delete(s.likes, userID)
		}
	}
	if t.Emit {
		s.likeGeneration++
	}
	s.mu.Unlock()

	if !t.Emit {
		return nil, nil
	}
	appended := s.appendEvent(event)
	return &appended, nil
}

// LikeGeneration implements LikeStore. It counts the like changes that
// emitted an event.
func (s *MemoryStore) LikeGeneration(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.likeGeneration, nil
}

// AllUserLikes implements LikeStore. The returned relation is a copy.
func (s *MemoryStore) AllUserLikes(_ context.Context) (models.LikeRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.LikeRelation, len(s.likes))
	for userID, films := range s.likes {
		for filmID := range films {
			out.Add(userID, filmID)
		}
	}
	return out, nil
}

// Append implements EventLog.
func (s *MemoryStore) Append(ctx context.Context, event models.Event) (models.Event, error) {
	if err := ctx.Err(); err != nil {
		return models.Event{}, err
	}
	return s.appendEvent(event), nil
}

// appendEvent records event unconditionally. Callers that already changed
// state use it so the change is never left without its event.
func (s *MemoryStore) appendEvent(event models.Event) models.Event {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	s.lastEventID++
	event.ID = s.lastEventID
	event.Timestamp = s.now()
	s.events = append(s.events, event)
	return event
}

// ListByUser implements EventLog.
func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]models.Event, error) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	out := make([]models.Event, 0)
	for _, event := range s.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *MemoryStore) clock() time.Time {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	return s.now()
}

// MemoryDirectory is an in-memory UserLookup and FilmLookup.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[int64]struct{}
	films map[int64]models.Film
}

// NewMemoryDirectory returns an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[int64]struct{}),
		films: make(map[int64]models.Film),
	}
}

// AddUsers registers user ids.
func (d *MemoryDirectory) AddUsers(ids ...int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.users[id] = struct{}{}
	}
}

// AddFilms registers films.
func (d *MemoryDirectory) AddFilms(films ...models.Film) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, film := range films {
		d.films[film.ID] = film
	}
}

// Exists implements UserLookup.
func (d *MemoryDirectory) Exists(_ context.Context, userID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}

// Films exposes the directory as a FilmLookup.
func (d *MemoryDirectory) Films() FilmLookup {
	return memoryFilms{d}
}

// FindByIDs returns the known films among ids, in the order given.
func (d *MemoryDirectory) FindByIDs(_ context.Context, ids []int64) ([]models.Film, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Film, 0, len(ids))
	for _, id := range ids {
		if film, ok := d.films[id]; ok {
			out = append(out, film)
		}
	}
	return out, nil
}

type memoryFilms struct{ d *MemoryDirectory }

func (f memoryFilms) Exists(_ context.Context, filmID int64) (bool, error) {
	f.d.mu.RLock()
	defer f.d.mu.RUnlock()
	_, ok := f.d.films[filmID]
	return ok, nil
}

var (
	_ FriendshipStore = (*MemoryStore)(nil)
	_ LikeStore       = (*MemoryStore)(nil)
	_ EventLog        = (*MemoryStore)(nil)
	_ UserLookup      = (*MemoryDirectory)(nil)
)

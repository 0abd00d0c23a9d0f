package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/filmfriends/backend/internal/logging"
	"github.com/filmfriends/backend/internal/models"
)

// LikeSource provides the like relation to snapshot.
type LikeSource interface {
	AllUserLikes(ctx context.Context) (models.LikeRelation, error)
}

// ObjectStorage persists snapshot payloads.
type ObjectStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// LikesSnapshot is the exported document.
type LikesSnapshot struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Users       int        `json:"users"`
	Likes       int        `json:"likes"`
	Entries     []UserLike `json:"entries"`
}

// UserLike lists the films liked by one user in ascending order.
type UserLike struct {
	UserID  int64   `json:"userId"`
	FilmIDs []int64 `json:"filmIds"`
}

// LikesExporter uploads snapshots of the like relation.
type LikesExporter struct {
	Source  LikeSource
	Storage ObjectStorage
	NowFunc func() time.Time
}

// Export writes one snapshot and returns its location.
func (e LikesExporter) Export(ctx context.Context) (string, LikesSnapshot, error) {
	if e.Source == nil || e.Storage == nil {
		return "", LikesSnapshot{}, errors.New("export: source and storage are required")
	}

	likes, err := e.Source.AllUserLikes(ctx)
	if err != nil {
		return "", LikesSnapshot{}, fmt.Errorf("load likes: %w", err)
	}

	now := time.Now
	if e.NowFunc != nil {
		now = e.NowFunc
	}
	snapshot := BuildSnapshot(likes, now().UTC())

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return "", LikesSnapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("likes/%s.json", snapshot.GeneratedAt.Format("20060102T150405Z"))
	location, err := e.Storage.Save(ctx, name, "application/json", &buf)
	if err != nil {
		return "", LikesSnapshot{}, fmt.Errorf("store snapshot: %w", err)
	}

	logging.FromContext(ctx).Info("like snapshot exported",
		"location", location,
		"users", snapshot.Users,
		"likes", snapshot.Likes,
	)
	return location, snapshot, nil
}

// BuildSnapshot flattens likes into a deterministic document.
func BuildSnapshot(likes models.LikeRelation, at time.Time) LikesSnapshot {
	snapshot := LikesSnapshot{GeneratedAt: at, Entries: make([]UserLike, 0, len(likes))}
	for userID, films := range likes {
		if len(films) == 0 {
			continue
		}
		entry := UserLike{UserID: userID, FilmIDs: make([]int64, 0, len(films))}
		for filmID := range films {
			entry.FilmIDs = append(entry.FilmIDs, filmID)
		}
		sort.Slice(entry.FilmIDs, func(i, j int) bool { return entry.FilmIDs[i] < entry.FilmIDs[j] })
		snapshot.Entries = append(snapshot.Entries, entry)
		snapshot.Likes += len(films)
	}
	sort.Slice(snapshot.Entries, func(i, j int) bool { return snapshot.Entries[i].UserID < snapshot.Entries[j].UserID })
	snapshot.Users = len(snapshot.Entries)
	return snapshot
}

package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmfriends/backend/internal/social"
)

var (
	// ErrNotFound indicates a referenced record does not exist. It matches
	// social.ErrNotFound so callers can test either.
	ErrNotFound = social.ErrNotFound
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// classifyWrite maps constraint violations onto the package sentinels.
func classifyWrite(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		}
	}
	return err
}

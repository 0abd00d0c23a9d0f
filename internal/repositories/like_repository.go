package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/filmfriends/backend/internal/db"
	"github.com/filmfriends/backend/internal/models"
	"github.com/filmfriends/backend/internal/social"
)

// PostgresLikeRepository stores the user/film like relation.
type PostgresLikeRepository struct {
	pool db.Pool
	// NowFunc stamps likes and events. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// ApplyLike locks the (user, film) row, applies the planned transition and
// appends event in the same transaction when the transition emits. Races on
// an absent row are replayed by runInTx like friendship inserts.
func (r *PostgresLikeRepository) ApplyLike(ctx context.Context, userID, filmID int64, plan func(bool) social.LikeTransition, event models.Event) (*models.Event, error) {
	var appended *models.Event
	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		appended = nil

		var one int
		liked := true
		err := tx.QueryRow(ctx, `
            SELECT 1 FROM film_likes
            WHERE user_id = $1 AND film_id = $2
            FOR UPDATE
        `, userID, filmID).Scan(&one)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			liked = false
		case err != nil:
			return fmt.Errorf("select like: %w", err)
		}

		t := plan(liked)
		now := stamp(r.NowFunc)

		switch t.Op {
		case social.LikeInsert:
			_, err = tx.Exec(ctx, `
                INSERT INTO film_likes (user_id, film_id, created_at)
                VALUES ($1, $2, $3)
            `, userID, filmID, now)
			if err != nil {
				return fmt.Errorf("insert like: %w", err)
			}
		case social.LikeDelete:
			_, err = tx.Exec(ctx, `
                DELETE FROM film_likes
                WHERE user_id = $1 AND film_id = $2
            `, userID, filmID)
			if err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
		}

		if t.Emit {
			stored, err := insertEvent(ctx, tx, event, now)
			if err != nil {
				return err
			}
			appended = &stored
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply like: %w", err)
	}
	return appended, nil
}

// AllUserLikes loads the full like relation.
func (r *PostgresLikeRepository) AllUserLikes(ctx context.Context) (models.LikeRelation, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT user_id, film_id FROM film_likes`)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	likes := make(models.LikeRelation)
	for rows.Next() {
		var userID, filmID int64
		if err := rows.Scan(&userID, &filmID); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes.Add(userID, filmID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return likes, nil
}

// LikeGeneration counts LIKE events. Events are append-only and commit with
// the like change they describe, so the count grows with every committed
// change and never moves backwards.
func (r *PostgresLikeRepository) LikeGeneration(ctx context.Context) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var gen int64
	err = conn.QueryRow(ctx, `
        SELECT count(*) FROM user_events
        WHERE event_type = 'LIKE'
    `).Scan(&gen)
	if err != nil {
		return 0, fmt.Errorf("count like events: %w", err)
	}
	return gen, nil
}

var _ social.LikeStore = (*PostgresLikeRepository)(nil)

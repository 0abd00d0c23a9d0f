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

// PostgresFriendshipRepository stores friendship edges, one row per unordered pair.
type PostgresFriendshipRepository struct {
	pool db.Pool
	// NowFunc stamps new edges and events. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewPostgresFriendshipRepository constructs a friendship repository backed by PostgreSQL.
func NewPostgresFriendshipRepository(pool db.Pool) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{pool: pool}
}

// ApplyFriendship locks the pair row, applies the planned transition and
// appends event in the same transaction when the transition emits.
//
// A pair without a row has nothing to lock, so two first requests can both
// plan an insert. The loser fails on the primary key and runInTx replays it
// against the committed row, where the reciprocal request confirms the edge.
func (r *PostgresFriendshipRepository) ApplyFriendship(ctx context.Context, pair social.Pair, plan func(social.FriendshipState) social.Transition, event models.Event) (*models.Event, error) {
	var appended *models.Event
	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		appended = nil

		edge, ok, err := selectEdge(ctx, tx, pair, true)
		if err != nil {
			return err
		}

		t := plan(social.StateOf(edge, ok))
		now := r.now()
		if err := applyEdge(ctx, tx, pair, t, now); err != nil {
			return err
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
		return nil, fmt.Errorf("apply friendship: %w", err)
	}
	return appended, nil
}

func applyEdge(ctx context.Context, tx pgx.Tx, pair social.Pair, t social.Transition, now time.Time) error {
	var err error
	switch t.Op {
	case social.EdgeInsert:
		next := t.To.Edge(pair, now)
		_, err = tx.Exec(ctx, `
            INSERT INTO friendships (user_low, user_high, requester_id, recipient_id, confirmed, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, pair.Low, pair.High, next.RequesterID, next.RecipientID, next.Confirmed, next.CreatedAt)
	case social.EdgeConfirm:
		_, err = tx.Exec(ctx, `
            UPDATE friendships SET confirmed = TRUE
            WHERE user_low = $1 AND user_high = $2
        `, pair.Low, pair.High)
	case social.EdgeDelete:
		_, err = tx.Exec(ctx, `
            DELETE FROM friendships
            WHERE user_low = $1 AND user_high = $2
        `, pair.Low, pair.High)
	case social.EdgeReplace:
		next := t.To.Edge(pair, now)
		_, err = tx.Exec(ctx, `
            UPDATE friendships
            SET requester_id = $3, recipient_id = $4, confirmed = $5, created_at = $6
            WHERE user_low = $1 AND user_high = $2
        `, pair.Low, pair.High, next.RequesterID, next.RecipientID, next.Confirmed, next.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("%s friendship: %w", t.Op, err)
	}
	return nil
}

// FriendshipState returns the current state of pair without locking it.
func (r *PostgresFriendshipRepository) FriendshipState(ctx context.Context, pair social.Pair) (social.FriendshipState, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return social.FriendshipState{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	edge, ok, err := selectEdge(ctx, conn, pair, false)
	if err != nil {
		return social.FriendshipState{}, err
	}
	return social.StateOf(edge, ok), nil
}

// FriendIDs lists the users userID requested plus those who confirmed userID.
func (r *PostgresFriendshipRepository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT recipient_id FROM friendships WHERE requester_id = $1
        UNION
        SELECT requester_id FROM friendships WHERE recipient_id = $1 AND confirmed
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect friends: %w", err)
	}
	return ids, nil
}

func (r *PostgresFriendshipRepository) now() time.Time {
	return stamp(r.NowFunc)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func selectEdge(ctx context.Context, q rowQuerier, pair social.Pair, forUpdate bool) (models.FriendshipEdge, bool, error) {
	query := `
        SELECT requester_id, recipient_id, confirmed, created_at
        FROM friendships
        WHERE user_low = $1 AND user_high = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var edge models.FriendshipEdge
	err := q.QueryRow(ctx, query, pair.Low, pair.High).Scan(&edge.RequesterID, &edge.RecipientID, &edge.Confirmed, &edge.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendshipEdge{}, false, nil
	}
	if err != nil {
		return models.FriendshipEdge{}, false, fmt.Errorf("select friendship: %w", err)
	}
	edge.CreatedAt = edge.CreatedAt.UTC()
	return edge, true, nil
}

// stamp returns the current time from now, truncated to the column precision.
func stamp(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}

var _ social.FriendshipStore = (*PostgresFriendshipRepository)(nil)

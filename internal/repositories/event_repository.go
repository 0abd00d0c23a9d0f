package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/filmfriends/backend/internal/db"
	"github.com/filmfriends/backend/internal/models"
	"github.com/filmfriends/backend/internal/social"
)

// PostgresEventLog stores the append-only activity log.
type PostgresEventLog struct {
	pool db.Pool
	// NowFunc stamps appended events. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewPostgresEventLog constructs an event log backed by PostgreSQL.
func NewPostgresEventLog(pool db.Pool) *PostgresEventLog {
	return &PostgresEventLog{pool: pool}
}

// Append stores event and returns it with the id and timestamp assigned by the database.
func (r *PostgresEventLog) Append(ctx context.Context, event models.Event) (models.Event, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Event{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return insertEvent(ctx, conn, event, stamp(r.NowFunc))
}

// ListByUser returns the events performed by userID in insertion order.
func (r *PostgresEventLog) ListByUser(ctx context.Context, userID int64) ([]models.Event, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT event_id, user_id, event_type, operation, entity_id, created_at
        FROM user_events
        WHERE user_id = $1
        ORDER BY event_id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.UserID, &event.Type, &event.Operation, &event.EntityID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func insertEvent(ctx context.Context, q rowQuerier, event models.Event, at time.Time) (models.Event, error) {
	err := q.QueryRow(ctx, `
        INSERT INTO user_events (user_id, event_type, operation, entity_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING event_id
    `, event.UserID, string(event.Type), string(event.Operation), event.EntityID, at).Scan(&event.ID)
	if err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	event.Timestamp = at
	return event, nil
}

var (
	_ social.EventLog = (*PostgresEventLog)(nil)
	_ rowQuerier      = (pgx.Tx)(nil)
)

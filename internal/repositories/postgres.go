package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmfriends/backend/internal/db"
	"github.com/filmfriends/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed lookups for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record and returns its assigned id.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err = conn.QueryRow(ctx, `
        INSERT INTO users (email, login, name, birthday, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, user.Email, user.Login, user.Name, nullDate(user.Birthday), createdAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

// Exists reports whether a user with the given id is stored.
func (r *PostgresUserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	return exists(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
}

// PostgresFilmRepository provides PostgreSQL-backed lookups for films.
type PostgresFilmRepository struct {
	pool db.Pool
}

// NewPostgresFilmRepository constructs a film repository backed by PostgreSQL.
func NewPostgresFilmRepository(pool db.Pool) *PostgresFilmRepository {
	return &PostgresFilmRepository{pool: pool}
}

// Create persists a new film record and returns its assigned id.
func (r *PostgresFilmRepository) Create(ctx context.Context, film models.Film) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var id int64
	err = conn.QueryRow(ctx, `
        INSERT INTO films (name, description, release_date, duration)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, film.Name, film.Description, nullDate(film.ReleaseDate), film.Duration).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert film: %w", err)
	}

	return id, nil
}

// Exists reports whether a film with the given id is stored.
func (r *PostgresFilmRepository) Exists(ctx context.Context, filmID int64) (bool, error) {
	return exists(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM films WHERE id = $1)`, filmID)
}

// FindByIDs returns the stored films among ids, ordered by id.
func (r *PostgresFilmRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Film, error) {
	films := make([]models.Film, 0, len(ids))
	if len(ids) == 0 {
		return films, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, name, description, release_date, duration
        FROM films
        WHERE id = ANY($1)
        ORDER BY id
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("query films: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			film    models.Film
			release *time.Time
		)
		if err := rows.Scan(&film.ID, &film.Name, &film.Description, &release, &film.Duration); err != nil {
			return nil, fmt.Errorf("scan film: %w", err)
		}
		if release != nil {
			film.ReleaseDate = release.UTC()
		}
		films = append(films, film)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate films: %w", err)
	}

	return films, nil
}

func exists(ctx context.Context, pool db.Pool, query string, id int64) (bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var found bool
	if err := conn.QueryRow(ctx, query, id).Scan(&found); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check existence: %w", err)
	}
	return found, nil
}

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

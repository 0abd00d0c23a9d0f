package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmfriends/backend/internal/db"
)

const (
	txMaxAttempts = 8
	txBaseBackoff = 2 * time.Millisecond
)

// retryableTxCodes are failures after which running the whole unit of work
// again observes the competing transaction's committed result.
var retryableTxCodes = map[string]struct{}{
	"23505": {}, // unique_violation: lost the race to create the same row
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
}

// runInTx runs fn in a transaction and commits it. When a concurrent
// transaction on the same rows wins, fn is run again from the start, so a
// plan made from stale state is never committed. Errors still failing after
// the last attempt are classified with classifyWrite.
func runInTx(ctx context.Context, pool db.Pool, fn func(tx pgx.Tx) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for attempt := 1; ; attempt++ {
		err = runOnce(ctx, conn, fn)
		if err == nil {
			return nil
		}
		if !retryableTx(err) || attempt == txMaxAttempts {
			break
		}

		timer := time.NewTimer(time.Duration(attempt) * txBaseBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if classified := classifyWrite(err); classified != err {
		return fmt.Errorf("%w: %v", classified, err)
	}
	return err
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

func runOnce(ctx context.Context, conn txBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func retryableTx(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	_, ok := retryableTxCodes[pgErr.Code]
	return ok
}

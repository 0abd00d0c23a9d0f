package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestRetryableTx(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "lost insert race", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped serialization failure", err: fmt.Errorf("insert friendship: %w", &pgconn.PgError{Code: "40001"}), want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableTx(tt.err); got != tt.want {
				t.Fatalf("retryableTx(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	race := &pgconn.PgError{Code: "23505"}

	t.Run("commits", func(t *testing.T) {
		tx := &fakeTx{}
		if err := runOnce(ctx, fakeBeginner{tx: tx}, func(pgx.Tx) error { return nil }); err != nil {
			t.Fatalf("runOnce: %v", err)
		}
		if !tx.committed {
			t.Fatal("expected commit")
		}
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		tx := &fakeTx{}
		err := runOnce(ctx, fakeBeginner{tx: tx}, func(pgx.Tx) error { return race })
		if !errors.Is(err, race) || !retryableTx(err) {
			t.Fatalf("runOnce = %v, want retryable race", err)
		}
		if tx.committed || !tx.rolledBack {
			t.Fatalf("committed=%v rolledBack=%v", tx.committed, tx.rolledBack)
		}
	})

	t.Run("commit failure stays retryable", func(t *testing.T) {
		tx := &fakeTx{commitErr: &pgconn.PgError{Code: "40001"}}
		err := runOnce(ctx, fakeBeginner{tx: tx}, func(pgx.Tx) error { return nil })
		if !retryableTx(err) {
			t.Fatalf("runOnce = %v, want retryable", err)
		}
	})

	t.Run("begin failure", func(t *testing.T) {
		err := runOnce(ctx, fakeBeginner{err: errors.New("conn busy")}, func(pgx.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

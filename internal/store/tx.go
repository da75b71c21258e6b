// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DB abstracts query execution over both *pgxpool.Pool and pgx.Tx so that
// repository methods participate in an ambient transaction when one is
// present in the context.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey is the context key under which an active pgx.Tx is stored.
type txKey struct{}

// DBFrom returns the transaction stored in ctx, or fallback when none is.
func DBFrom(ctx context.Context, fallback DB) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}

// Transactor runs multi-step sequences inside a single transaction.
// It stores the active pgx.Tx in context so that transaction-aware
// repository methods join the same transaction.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor creates a Transactor backed by the given connection pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction, stores it in context, and calls fn.
// If fn returns nil the transaction is committed, otherwise rolled back.
// Serialization failures and deadlocks are retried with backoff; fn must
// therefore be safe to call more than once.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := t.runOnce(ctx, fn)
		if isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (t *Transactor) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

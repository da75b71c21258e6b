// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package store provides the shared PostgreSQL infrastructure: pool
// construction, transaction plumbing, and schema migrations.
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// NewPool connects a pgx connection pool to the database at dsn.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return pool, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/store"
	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

// PlayerDirectory implements travel.PlayerDirectory using PostgreSQL.
// Accounts are managed by the upstream gateway; this table is a read-mostly
// mirror used for travel targeting.
type PlayerDirectory struct {
	db store.DB
}

// NewPlayerDirectory creates a new PlayerDirectory.
func NewPlayerDirectory(db store.DB) *PlayerDirectory {
	return &PlayerDirectory{db: db}
}

// Get retrieves a player by ID.
func (d *PlayerDirectory) Get(ctx context.Context, id ulid.ULID) (*travel.Player, error) {
	p, err := d.scanPlayer(store.DBFrom(ctx, d.db).QueryRow(ctx, `
		SELECT id, username, created_at FROM players WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get player").With("id", id.String()).Wrap(err)
	}
	return p, nil
}

// GetByUsername retrieves a player by username.
func (d *PlayerDirectory) GetByUsername(ctx context.Context, username string) (*travel.Player, error) {
	p, err := d.scanPlayer(store.DBFrom(ctx, d.db).QueryRow(ctx, `
		SELECT id, username, created_at FROM players WHERE username = $1
	`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("username", username).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get player by username").With("username", username).Wrap(err)
	}
	return p, nil
}

func (d *PlayerDirectory) scanPlayer(row pgx.Row) (*travel.Player, error) {
	var p travel.Player
	var idStr string

	err := row.Scan(&idStr, &p.Username, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.ID, err = parseULID(idStr, "player id"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Compile-time interface check.
var _ travel.PlayerDirectory = (*PlayerDirectory)(nil)

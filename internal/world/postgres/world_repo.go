// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package postgres provides PostgreSQL implementations of the world
// repositories. All methods join an ambient transaction when one is present
// in the context.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/store"
	"github.com/worldrift/worldrift/internal/world"
)

// WorldRepository implements world.WorldRepository using PostgreSQL.
type WorldRepository struct {
	db store.DB
}

// NewWorldRepository creates a new WorldRepository.
func NewWorldRepository(db store.DB) *WorldRepository {
	return &WorldRepository{db: db}
}

const worldColumns = `id, owner_id, owner_char_id, visibility_mode, world_state, revision, created_at`

// Get retrieves a world by ID.
func (r *WorldRepository) Get(ctx context.Context, id ulid.ULID) (*world.WorldInstance, error) {
	w, err := r.scanWorld(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+worldColumns+` FROM world_instances WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get world").With("id", id.String()).Wrap(err)
	}
	return w, nil
}

// GetByOwner retrieves the world owned by the given player.
func (r *WorldRepository) GetByOwner(ctx context.Context, ownerID ulid.ULID) (*world.WorldInstance, error) {
	w, err := r.scanWorld(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+worldColumns+` FROM world_instances WHERE owner_id = $1
	`, ownerID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("owner_id", ownerID.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get world by owner").With("owner_id", ownerID.String()).Wrap(err)
	}
	return w, nil
}

// Create persists a new world. A second world for the same owner is
// reported as world.ErrAlreadyExists.
func (r *WorldRepository) Create(ctx context.Context, w *world.WorldInstance) error {
	stateJSON, err := marshalBlob(w.WorldState)
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO world_instances (id, owner_id, owner_char_id, visibility_mode, world_state, revision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		w.ID.String(),
		w.OwnerID.String(),
		w.OwnerCharID,
		string(w.VisibilityMode),
		stateJSON,
		w.Revision,
		w.CreatedAt,
	)
	if isUniqueViolation(err) {
		return oops.With("owner_id", w.OwnerID.String()).Wrap(world.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create world").With("id", w.ID.String()).Wrap(err)
	}
	return nil
}

// Update persists the world's mutable fields and bumps the revision
// counter. The new revision is written back to w.
func (r *WorldRepository) Update(ctx context.Context, w *world.WorldInstance) error {
	stateJSON, err := marshalBlob(w.WorldState)
	if err != nil {
		return err
	}

	row := store.DBFrom(ctx, r.db).QueryRow(ctx, `
		UPDATE world_instances
		SET visibility_mode = $2, world_state = $3, revision = revision + 1
		WHERE id = $1
		RETURNING revision
	`,
		w.ID.String(),
		string(w.VisibilityMode),
		stateJSON,
	)
	if err := row.Scan(&w.Revision); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return oops.With("id", w.ID.String()).Wrap(world.ErrNotFound)
		}
		return oops.With("operation", "update world").With("id", w.ID.String()).Wrap(err)
	}
	return nil
}

// scanWorld scans a single world row.
func (r *WorldRepository) scanWorld(row pgx.Row) (*world.WorldInstance, error) {
	var w world.WorldInstance
	var idStr, ownerStr, modeStr string
	var stateJSON []byte

	err := row.Scan(&idStr, &ownerStr, &w.OwnerCharID, &modeStr, &stateJSON, &w.Revision, &w.CreatedAt)
	if err != nil {
		return nil, err
	}

	if w.ID, err = parseULID(idStr, "world id"); err != nil {
		return nil, err
	}
	if w.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
		return nil, err
	}
	w.VisibilityMode = world.VisibilityMode(modeStr)
	if w.WorldState, err = unmarshalBlob(stateJSON); err != nil {
		return nil, err
	}
	return &w, nil
}

// Compile-time interface check.
var _ world.WorldRepository = (*WorldRepository)(nil)

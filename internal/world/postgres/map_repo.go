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
	"github.com/worldrift/worldrift/internal/world"
)

// MapRepository implements world.MapRepository using PostgreSQL.
type MapRepository struct {
	db store.DB
}

// NewMapRepository creates a new MapRepository.
func NewMapRepository(db store.DB) *MapRepository {
	return &MapRepository{db: db}
}

const mapColumns = `id, world_id, map_key, map_state, revision, created_at`

// Get retrieves a map by ID, scoped to a world.
func (r *MapRepository) Get(ctx context.Context, worldID, id ulid.ULID) (*world.MapInstance, error) {
	m, err := r.scanMap(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+mapColumns+` FROM map_instances WHERE world_id = $1 AND id = $2
	`, worldID.String(), id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get map").With("id", id.String()).Wrap(err)
	}
	return m, nil
}

// GetByKey retrieves a map by its key within a world.
func (r *MapRepository) GetByKey(ctx context.Context, worldID ulid.ULID, mapKey string) (*world.MapInstance, error) {
	m, err := r.scanMap(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+mapColumns+` FROM map_instances WHERE world_id = $1 AND map_key = $2
	`, worldID.String(), mapKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("world_id", worldID.String()).With("map_key", mapKey).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get map by key").With("map_key", mapKey).Wrap(err)
	}
	return m, nil
}

// Create persists a new map. A duplicate (world, map_key) pair is reported
// as world.ErrAlreadyExists.
func (r *MapRepository) Create(ctx context.Context, m *world.MapInstance) error {
	stateJSON, err := marshalBlob(m.MapState)
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO map_instances (id, world_id, map_key, map_state, revision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		m.ID.String(),
		m.WorldID.String(),
		m.MapKey,
		stateJSON,
		m.Revision,
		m.CreatedAt,
	)
	if isUniqueViolation(err) {
		return oops.With("world_id", m.WorldID.String()).With("map_key", m.MapKey).Wrap(world.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create map").With("id", m.ID.String()).Wrap(err)
	}
	return nil
}

// ListByWorld returns all maps belonging to a world.
func (r *MapRepository) ListByWorld(ctx context.Context, worldID ulid.ULID) ([]*world.MapInstance, error) {
	rows, err := store.DBFrom(ctx, r.db).Query(ctx, `
		SELECT `+mapColumns+` FROM map_instances WHERE world_id = $1 ORDER BY map_key
	`, worldID.String())
	if err != nil {
		return nil, oops.With("operation", "list maps").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()

	maps := make([]*world.MapInstance, 0)
	for rows.Next() {
		m, err := r.scanMap(rows)
		if err != nil {
			return nil, oops.With("operation", "scan map").Wrap(err)
		}
		maps = append(maps, m)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate maps").Wrap(err)
	}
	return maps, nil
}

// scanMap scans a single map row.
func (r *MapRepository) scanMap(row pgx.Row) (*world.MapInstance, error) {
	var m world.MapInstance
	var idStr, worldStr string
	var stateJSON []byte

	err := row.Scan(&idStr, &worldStr, &m.MapKey, &stateJSON, &m.Revision, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if m.ID, err = parseULID(idStr, "map id"); err != nil {
		return nil, err
	}
	if m.WorldID, err = parseULID(worldStr, "world_id"); err != nil {
		return nil, err
	}
	if m.MapState, err = unmarshalBlob(stateJSON); err != nil {
		return nil, err
	}
	return &m, nil
}

// Compile-time interface check.
var _ world.MapRepository = (*MapRepository)(nil)

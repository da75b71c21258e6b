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

// EntityRepository implements world.EntityRepository using PostgreSQL.
type EntityRepository struct {
	db store.DB
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(db store.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

const entityColumns = `id, world_id, map_id, poi_id, entity_type, owner_id, owner_char_id, stats, ai_memory, state_flags, is_active, created_at`

// Get retrieves an entity by ID.
func (r *EntityRepository) Get(ctx context.Context, id ulid.ULID) (*world.EntityState, error) {
	e, err := r.scanEntity(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+entityColumns+` FROM entity_states WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get entity").With("id", id.String()).Wrap(err)
	}
	return e, nil
}

// GetOwnerOffline returns the owner's player_offline entity in a world.
func (r *EntityRepository) GetOwnerOffline(ctx context.Context, worldID, ownerID ulid.ULID) (*world.EntityState, error) {
	e, err := r.scanEntity(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+entityColumns+` FROM entity_states
		WHERE world_id = $1 AND owner_id = $2 AND entity_type = $3
	`, worldID.String(), ownerID.String(), string(world.EntityPlayerOffline)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("world_id", worldID.String()).With("owner_id", ownerID.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get owner offline entity").With("world_id", worldID.String()).Wrap(err)
	}
	return e, nil
}

// Create persists a new entity.
func (r *EntityRepository) Create(ctx context.Context, e *world.EntityState) error {
	statsJSON, err := marshalBlob(e.Stats)
	if err != nil {
		return err
	}
	memoryJSON, err := marshalBlob(e.AIMemory)
	if err != nil {
		return err
	}
	flagsJSON, err := marshalBlob(e.StateFlags)
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO entity_states (id, world_id, map_id, poi_id, entity_type, owner_id, owner_char_id, stats, ai_memory, state_flags, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		e.ID.String(),
		e.WorldID.String(),
		e.MapID.String(),
		e.PoiID.String(),
		string(e.Type),
		e.OwnerID.String(),
		e.OwnerCharID,
		statsJSON,
		memoryJSON,
		flagsJSON,
		e.IsActive,
		e.CreatedAt,
	)
	if err != nil {
		return oops.With("operation", "create entity").With("id", e.ID.String()).Wrap(err)
	}
	return nil
}

// UpdateLocation moves an entity to a new (map, poi) pair.
func (r *EntityRepository) UpdateLocation(ctx context.Context, id, mapID, poiID ulid.ULID) error {
	result, err := store.DBFrom(ctx, r.db).Exec(ctx, `
		UPDATE entity_states SET map_id = $2, poi_id = $3 WHERE id = $1
	`, id.String(), mapID.String(), poiID.String())
	if err != nil {
		return oops.With("operation", "update entity location").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// Delete removes an entity. Used when a travel session ends.
func (r *EntityRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := store.DBFrom(ctx, r.db).Exec(ctx, `
		DELETE FROM entity_states WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.With("operation", "delete entity").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// scanEntity scans a single entity row.
func (r *EntityRepository) scanEntity(row pgx.Row) (*world.EntityState, error) {
	var e world.EntityState
	var idStr, worldStr, mapStr, poiStr, typeStr, ownerStr string
	var statsJSON, memoryJSON, flagsJSON []byte

	err := row.Scan(&idStr, &worldStr, &mapStr, &poiStr, &typeStr, &ownerStr, &e.OwnerCharID,
		&statsJSON, &memoryJSON, &flagsJSON, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if e.ID, err = parseULID(idStr, "entity id"); err != nil {
		return nil, err
	}
	if e.WorldID, err = parseULID(worldStr, "world_id"); err != nil {
		return nil, err
	}
	if e.MapID, err = parseULID(mapStr, "map_id"); err != nil {
		return nil, err
	}
	if e.PoiID, err = parseULID(poiStr, "poi_id"); err != nil {
		return nil, err
	}
	if e.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
		return nil, err
	}
	e.Type = world.EntityType(typeStr)
	if e.Stats, err = unmarshalBlob(statsJSON); err != nil {
		return nil, err
	}
	if e.AIMemory, err = unmarshalBlob(memoryJSON); err != nil {
		return nil, err
	}
	if e.StateFlags, err = unmarshalBlob(flagsJSON); err != nil {
		return nil, err
	}
	return &e, nil
}

// Compile-time interface check.
var _ world.EntityRepository = (*EntityRepository)(nil)

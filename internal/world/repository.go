// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// WorldRepository manages world instance persistence.
type WorldRepository interface {
	// Get retrieves a world by ID.
	Get(ctx context.Context, id ulid.ULID) (*WorldInstance, error)

	// GetByOwner retrieves the world owned by the given player.
	GetByOwner(ctx context.Context, ownerID ulid.ULID) (*WorldInstance, error)

	// Create persists a new world.
	Create(ctx context.Context, w *WorldInstance) error

	// Update modifies an existing world.
	Update(ctx context.Context, w *WorldInstance) error
}

// MapRepository manages map instance persistence.
type MapRepository interface {
	// Get retrieves a map by ID, scoped to a world.
	Get(ctx context.Context, worldID, id ulid.ULID) (*MapInstance, error)

	// GetByKey retrieves a map by its key within a world.
	GetByKey(ctx context.Context, worldID ulid.ULID, mapKey string) (*MapInstance, error)

	// Create persists a new map.
	Create(ctx context.Context, m *MapInstance) error

	// ListByWorld returns all maps belonging to a world.
	ListByWorld(ctx context.Context, worldID ulid.ULID) ([]*MapInstance, error)
}

// PoiRepository manages POI persistence. Graphs only grow: no deletes.
type PoiRepository interface {
	// Get retrieves a POI by ID.
	Get(ctx context.Context, id ulid.ULID) (*Poi, error)

	// GetByKey retrieves a POI by its key within a map.
	GetByKey(ctx context.Context, mapID ulid.ULID, poiKey string) (*Poi, error)

	// Create persists a new POI. A duplicate (map, poi_key) pair is
	// reported as ErrAlreadyExists; idempotent callers re-read the winner.
	Create(ctx context.Context, p *Poi) error

	// ListByMap returns all POIs in a map.
	ListByMap(ctx context.Context, mapID ulid.ULID) ([]*Poi, error)

	// ListByIDs returns the POIs with the given ids.
	ListByIDs(ctx context.Context, ids []ulid.ULID) ([]*Poi, error)
}

// EdgeRepository manages edge persistence. Graphs only grow: no deletes.
type EdgeRepository interface {
	// Find returns the edge from one POI to another within a map, or
	// ErrNotFound. Absence of an edge means a move is illegal.
	Find(ctx context.Context, mapID, fromPoiID, toPoiID ulid.ULID) (*Edge, error)

	// Create persists a new directed edge. A duplicate (map, from, to)
	// triple is reported as ErrAlreadyExists.
	Create(ctx context.Context, e *Edge) error

	// ListByMap returns all edges in a map.
	ListByMap(ctx context.Context, mapID ulid.ULID) ([]*Edge, error)

	// ListFrom returns all edges leaving a POI.
	ListFrom(ctx context.Context, mapID, poiID ulid.ULID) ([]*Edge, error)

	// ListTo returns all edges arriving at a POI.
	ListTo(ctx context.Context, mapID, poiID ulid.ULID) ([]*Edge, error)
}

// EntityRepository manages entity persistence.
type EntityRepository interface {
	// Get retrieves an entity by ID.
	Get(ctx context.Context, id ulid.ULID) (*EntityState, error)

	// GetOwnerOffline returns the owner's player_offline entity in a world.
	GetOwnerOffline(ctx context.Context, worldID, ownerID ulid.ULID) (*EntityState, error)

	// Create persists a new entity.
	Create(ctx context.Context, e *EntityState) error

	// UpdateLocation moves an entity to a new (map, poi) pair.
	UpdateLocation(ctx context.Context, id, mapID, poiID ulid.ULID) error

	// Delete removes an entity. Used when a travel session ends.
	Delete(ctx context.Context, id ulid.ULID) error
}

// Transactor runs a function inside a single database transaction.
// This mirrors the store package's Transactor to avoid coupling world to it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

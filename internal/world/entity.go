// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
)

// EntityType identifies the kind of actor inside a world.
type EntityType string

// Entity types.
const (
	EntityPlayerOnline  EntityType = "player_online"
	EntityPlayerOffline EntityType = "player_offline"
	EntityNPC           EntityType = "npc"
)

// String returns the string representation of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// ErrInvalidEntityType indicates an unrecognized entity type.
var ErrInvalidEntityType = errors.New("invalid entity type")

// Validate checks that the entity type is a recognized value.
func (t EntityType) Validate() error {
	switch t {
	case EntityPlayerOnline, EntityPlayerOffline, EntityNPC:
		return nil
	default:
		return ErrInvalidEntityType
	}
}

// EntityState is an actor located at exactly one POI within exactly one map
// within exactly one world. The owner's player_offline entity is the
// standing proxy targeted by invasions while the owner is not connected.
type EntityState struct {
	ID          ulid.ULID
	WorldID     ulid.ULID
	MapID       ulid.ULID
	PoiID       ulid.ULID
	Type        EntityType
	OwnerID     ulid.ULID
	OwnerCharID *string
	Stats       map[string]any
	AIMemory    map[string]any
	StateFlags  map[string]any
	IsActive    bool
	CreatedAt   time.Time
}

// NewEntityState creates an entity with a generated ID at the given location.
// The entity is validated before being returned.
func NewEntityState(worldID, mapID, poiID, ownerID ulid.ULID, entityType EntityType) (*EntityState, error) {
	e := &EntityState{
		ID:        core.NewULID(),
		WorldID:   worldID,
		MapID:     mapID,
		PoiID:     poiID,
		Type:      entityType,
		OwnerID:   ownerID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// MoveTo updates the entity's location. Both ids must be non-zero; the
// caller is responsible for keeping the (world, map, poi) triple consistent.
func (e *EntityState) MoveTo(mapID, poiID ulid.ULID) error {
	if mapID.IsZero() || poiID.IsZero() {
		return &ValidationError{Field: "location", Message: "map and poi cannot be zero"}
	}
	e.MapID = mapID
	e.PoiID = poiID
	return nil
}

// Validate checks that the entity has required fields.
func (e *EntityState) Validate() error {
	if e.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if e.WorldID.IsZero() {
		return &ValidationError{Field: "world_id", Message: "cannot be zero"}
	}
	if e.MapID.IsZero() {
		return &ValidationError{Field: "map_id", Message: "cannot be zero"}
	}
	if e.PoiID.IsZero() {
		return &ValidationError{Field: "poi_id", Message: "cannot be zero"}
	}
	if e.OwnerID.IsZero() {
		return &ValidationError{Field: "owner_id", Message: "cannot be zero"}
	}
	return e.Type.Validate()
}

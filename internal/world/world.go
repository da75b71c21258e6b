// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package world contains the online-world domain model: per-player world
// instances, their maps, the POI graph, and the entities that inhabit them.
//
// For creating domain objects, prefer the constructor functions (NewX) over
// direct struct initialization. Constructors ensure validation and proper
// initialization of required fields.
package world

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
)

// VisibilityMode controls who may enter a world.
type VisibilityMode string

// Visibility modes.
const (
	VisibilityPublic VisibilityMode = "public"
	VisibilityHidden VisibilityMode = "hidden"
	VisibilityLocked VisibilityMode = "locked"
)

// String returns the string representation of the visibility mode.
func (m VisibilityMode) String() string {
	return string(m)
}

// ErrInvalidVisibility indicates an unrecognized visibility mode.
var ErrInvalidVisibility = errors.New("invalid visibility mode")

// Validate checks that the visibility mode is a recognized value.
func (m VisibilityMode) Validate() error {
	switch m {
	case VisibilityPublic, VisibilityHidden, VisibilityLocked:
		return nil
	default:
		return ErrInvalidVisibility
	}
}

// WorldInstance is one player's persistent game world. Exactly one exists
// per owner; it is provisioned lazily on first access and never deleted.
type WorldInstance struct {
	ID             ulid.ULID
	OwnerID        ulid.ULID
	OwnerCharID    *string
	VisibilityMode VisibilityMode
	WorldState     map[string]any
	Revision       int
	CreatedAt      time.Time
}

// NewWorldInstance creates a world with the provisioning defaults:
// public visibility, revision 1, and the initial world state blob.
func NewWorldInstance(ownerID ulid.ULID, ownerCharID *string) *WorldInstance {
	return &WorldInstance{
		ID:             core.NewULID(),
		OwnerID:        ownerID,
		OwnerCharID:    ownerCharID,
		VisibilityMode: VisibilityPublic,
		WorldState: map[string]any{
			"alert_level":        0,
			"background_version": "v1",
		},
		Revision:  1,
		CreatedAt: time.Now(),
	}
}

// Validate checks that the world has required fields.
func (w *WorldInstance) Validate() error {
	if w.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if w.OwnerID.IsZero() {
		return &ValidationError{Field: "owner_id", Message: "cannot be zero"}
	}
	return w.VisibilityMode.Validate()
}

// MapInstance is a named map within a world. MapKey is unique per world;
// the default map is DefaultMapKey.
type MapInstance struct {
	ID        ulid.ULID
	WorldID   ulid.ULID
	MapKey    string
	MapState  map[string]any
	Revision  int
	CreatedAt time.Time
}

// DefaultMapKey is the map key every world is provisioned with.
const DefaultMapKey = "mainland"

// NewMapInstance creates a map with revision 1 and the initial map state.
func NewMapInstance(worldID ulid.ULID, mapKey string) *MapInstance {
	return &MapInstance{
		ID:        core.NewULID(),
		WorldID:   worldID,
		MapKey:    mapKey,
		MapState:  map[string]any{"version": 1},
		Revision:  1,
		CreatedAt: time.Now(),
	}
}

// Validate checks that the map has required fields.
func (m *MapInstance) Validate() error {
	if m.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if m.WorldID.IsZero() {
		return &ValidationError{Field: "world_id", Message: "cannot be zero"}
	}
	if m.MapKey == "" {
		return &ValidationError{Field: "map_key", Message: "cannot be empty"}
	}
	return nil
}

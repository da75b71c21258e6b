// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package eventlog is the append-only record of everything that happens in
// a world. Rows are never mutated or deleted; invasion reports are derived
// from them once, at session end.
package eventlog

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
)

// EventType identifies the kind of world event.
type EventType string

// Event types recorded by the travel subsystem.
const (
	EventMove        EventType = "move"
	EventTravelStart EventType = "travel_start"
	EventTravelEnd   EventType = "travel_end"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is one append-only fact: who did what, where, and what the server
// decided about it. Verdict carries the server's ruling so the log can be
// replayed or audited later.
type Event struct {
	ID             ulid.ULID
	WorldID        ulid.ULID
	MapID          ulid.ULID
	PoiID          *ulid.ULID
	ActorEntityID  *ulid.ULID
	TargetEntityID *ulid.ULID
	Type           EventType
	Payload        map[string]any
	Verdict        map[string]any
	CreatedAt      time.Time
}

// New creates an event with a generated ID and the current timestamp.
func New(worldID, mapID ulid.ULID, eventType EventType) *Event {
	return &Event{
		ID:        core.NewULID(),
		WorldID:   worldID,
		MapID:     mapID,
		Type:      eventType,
		CreatedAt: time.Now(),
	}
}

// OKVerdict is the verdict recorded for an action the server allowed.
func OKVerdict() map[string]any {
	return map[string]any{"ok": true}
}

// Repository manages event persistence. Append-only: no updates, no deletes.
type Repository interface {
	// Append persists one event.
	Append(ctx context.Context, e *Event) error

	// ListByActorSince returns a world's events caused by the given actor
	// entity with created_at at or after since, oldest first.
	ListByActorSince(ctx context.Context, worldID, actorEntityID ulid.ULID, since time.Time) ([]*Event, error)
}

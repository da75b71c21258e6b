// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package travel

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
)

// SessionState is the lifecycle state of a travel session.
type SessionState string

// Session states. Settled is reserved for a future post-processing step;
// no transition into it exists yet.
const (
	SessionActive  SessionState = "active"
	SessionEnded   SessionState = "ended"
	SessionSettled SessionState = "settled"
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	return string(s)
}

// ReturnAnchor records where the visitor came from so the client can put
// them back after the visit.
type ReturnAnchor struct {
	WorldID ulid.ULID `json:"world_id"`
	MapID   ulid.ULID `json:"map_id"`
	PoiID   ulid.ULID `json:"poi_id"`
}

// SessionPolicy is what the visitor is allowed to do inside the target
// world. Loot and destroy stay disabled until those actions exist.
type SessionPolicy struct {
	AllowLoot    bool `json:"allow_loot"`
	AllowDestroy bool `json:"allow_destroy"`
}

// DefaultSessionPolicy returns the fixed policy applied to every session.
func DefaultSessionPolicy() SessionPolicy {
	return SessionPolicy{AllowLoot: false, AllowDestroy: false}
}

// TravelSession is one visit by a player into another player's world.
// VisitorEntityID points at the transient player_online entity; it is
// cleared implicitly when the entity is deleted at session end.
type TravelSession struct {
	ID              ulid.ULID
	VisitorID       ulid.ULID
	TargetWorldID   ulid.ULID
	VisitorEntityID *ulid.ULID
	EntryMapID      ulid.ULID
	EntryPoiID      ulid.ULID
	ReturnAnchor    ReturnAnchor
	Policy          SessionPolicy
	State           SessionState
	StartedAt       time.Time
	EndedAt         *time.Time
}

// NewTravelSession creates an active session with the default policy.
func NewTravelSession(visitorID, targetWorldID, entryMapID, entryPoiID ulid.ULID, anchor ReturnAnchor) *TravelSession {
	return &TravelSession{
		ID:            core.NewULID(),
		VisitorID:     visitorID,
		TargetWorldID: targetWorldID,
		EntryMapID:    entryMapID,
		EntryPoiID:    entryPoiID,
		ReturnAnchor:  anchor,
		Policy:        DefaultSessionPolicy(),
		State:         SessionActive,
		StartedAt:     time.Now(),
	}
}

// IsActive reports whether the session is still in progress.
func (s *TravelSession) IsActive() bool {
	return s.State == SessionActive
}

// End marks the session ended at the given time. Ending is terminal; calling
// End on a non-active session is a no-op.
func (s *TravelSession) End(now time.Time) {
	if !s.IsActive() {
		return
	}
	s.State = SessionEnded
	s.EndedAt = &now
}

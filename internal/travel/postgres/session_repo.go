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

// SessionRepository implements travel.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db store.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db store.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, visitor_id, target_world_id, visitor_entity_id, entry_map_id, entry_poi_id, return_anchor, policy, state, started_at, ended_at`

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id ulid.ULID) (*travel.TravelSession, error) {
	s, err := r.scanSession(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM travel_sessions WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get travel session").With("id", id.String()).Wrap(err)
	}
	return s, nil
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, s *travel.TravelSession) error {
	anchorJSON, err := marshalJSONField(s.ReturnAnchor, "return_anchor")
	if err != nil {
		return err
	}
	policyJSON, err := marshalJSONField(s.Policy, "policy")
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO travel_sessions (id, visitor_id, target_world_id, visitor_entity_id, entry_map_id, entry_poi_id, return_anchor, policy, state, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		s.ID.String(),
		s.VisitorID.String(),
		s.TargetWorldID.String(),
		ulidPtrToString(s.VisitorEntityID),
		s.EntryMapID.String(),
		s.EntryPoiID.String(),
		anchorJSON,
		policyJSON,
		string(s.State),
		s.StartedAt,
		s.EndedAt,
	)
	if err != nil {
		return oops.With("operation", "create travel session").With("id", s.ID.String()).Wrap(err)
	}
	return nil
}

// Update persists the session's mutable fields.
func (r *SessionRepository) Update(ctx context.Context, s *travel.TravelSession) error {
	result, err := store.DBFrom(ctx, r.db).Exec(ctx, `
		UPDATE travel_sessions SET state = $2, ended_at = $3 WHERE id = $1
	`, s.ID.String(), string(s.State), s.EndedAt)
	if err != nil {
		return oops.With("operation", "update travel session").With("id", s.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", s.ID.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// scanSession scans a single session row.
func (r *SessionRepository) scanSession(row pgx.Row) (*travel.TravelSession, error) {
	var s travel.TravelSession
	var idStr, visitorStr, worldStr, mapStr, poiStr, stateStr string
	var entityStr *string
	var anchorJSON, policyJSON []byte

	err := row.Scan(&idStr, &visitorStr, &worldStr, &entityStr, &mapStr, &poiStr, &anchorJSON, &policyJSON, &stateStr, &s.StartedAt, &s.EndedAt)
	if err != nil {
		return nil, err
	}

	if s.ID, err = parseULID(idStr, "session id"); err != nil {
		return nil, err
	}
	if s.VisitorID, err = parseULID(visitorStr, "visitor_id"); err != nil {
		return nil, err
	}
	if s.TargetWorldID, err = parseULID(worldStr, "target_world_id"); err != nil {
		return nil, err
	}
	if s.VisitorEntityID, err = parseOptionalULID(entityStr, "visitor_entity_id"); err != nil {
		return nil, err
	}
	if s.EntryMapID, err = parseULID(mapStr, "entry_map_id"); err != nil {
		return nil, err
	}
	if s.EntryPoiID, err = parseULID(poiStr, "entry_poi_id"); err != nil {
		return nil, err
	}
	if err = unmarshalJSONField(anchorJSON, &s.ReturnAnchor, "return_anchor"); err != nil {
		return nil, err
	}
	if err = unmarshalJSONField(policyJSON, &s.Policy, "policy"); err != nil {
		return nil, err
	}
	s.State = travel.SessionState(stateStr)
	return &s, nil
}

// Compile-time interface check.
var _ travel.SessionRepository = (*SessionRepository)(nil)

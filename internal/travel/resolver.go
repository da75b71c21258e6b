// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package travel

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/world"
)

// Compile-time check: the Service resolves visits for the world engine.
var _ world.VisitResolver = (*Service)(nil)

// ActiveVisit implements world.VisitResolver. A visit resolves only when
// the session exists, is active, belongs to the visitor, targets the given
// world, and still has its entity.
func (s *Service) ActiveVisit(ctx context.Context, sessionID, visitorID, worldID ulid.ULID) (*world.Visit, error) {
	session, err := s.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.VisitorID != visitorID || session.TargetWorldID != worldID {
		return nil, world.ErrNotFound
	}
	if !session.IsActive() || session.VisitorEntityID == nil {
		return nil, world.ErrNotFound
	}
	return &world.Visit{
		SessionID:       session.ID,
		WorldID:         session.TargetWorldID,
		VisitorEntityID: *session.VisitorEntityID,
	}, nil
}

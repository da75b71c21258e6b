// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/eventlog"
)

// ActionMove is the only action type the movement engine supports.
const ActionMove = "move"

// MoveIntent is the payload of a move action: where the entity wants to go.
type MoveIntent struct {
	ToPoiID ulid.ULID
}

// MoveResult reports a completed hop.
type MoveResult struct {
	EntityID  ulid.ULID
	FromPoiID ulid.ULID
	ToPoiID   ulid.ULID
	EventID   ulid.ULID
}

// Engine executes single validated hops for entities and records them in
// the event log.
type Engine struct {
	entities EntityRepository
	pois     PoiRepository
	edges    EdgeRepository
	events   eventlog.Repository
	tx       Transactor
}

// NewEngine creates a movement Engine over the given repositories.
func NewEngine(entities EntityRepository, pois PoiRepository, edges EdgeRepository, events eventlog.Repository, tx Transactor) *Engine {
	return &Engine{
		entities: entities,
		pois:     pois,
		edges:    edges,
		events:   events,
		tx:       tx,
	}
}

// Act validates and executes one action against a world. Only ActionMove is
// supported; anything else is rejected with ErrUnsupportedAction. The acting
// entity comes from the viewer: a visitor acts through the session's entity,
// the owner through the offline proxy. Validation happens before any write,
// and the location update plus the move event commit in one transaction.
func (e *Engine) Act(ctx context.Context, viewer ViewerContext, worldID ulid.ULID, actionType string, intent MoveIntent) (*MoveResult, error) {
	errCtx := oops.With("world_id", worldID.String()).With("action_type", actionType)

	if actionType != ActionMove {
		return nil, errCtx.Code("UNSUPPORTED_ACTION").Wrap(ErrUnsupportedAction)
	}

	entity, err := e.resolveActor(ctx, viewer, worldID)
	if err != nil {
		return nil, errCtx.Wrap(err)
	}
	if entity.WorldID != worldID {
		return nil, errCtx.Code("ENTITY_NOT_IN_WORLD").Wrap(ErrEntityNotInWorld)
	}

	errCtx = errCtx.With("entity_id", entity.ID.String()).With("to_poi_id", intent.ToPoiID.String())

	if _, err := e.edges.Find(ctx, entity.MapID, entity.PoiID, intent.ToPoiID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errCtx.Code("PATH_NOT_FOUND").Wrap(ErrPathNotFound)
		}
		return nil, errCtx.Wrap(err)
	}

	dest, err := e.pois.Get(ctx, intent.ToPoiID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errCtx.Code("POI_NOT_FOUND").Wrap(ErrPoiNotFound)
		}
		return nil, errCtx.Wrap(err)
	}
	if dest.MapID != entity.MapID {
		return nil, errCtx.Code("POI_NOT_FOUND").Wrap(ErrPoiNotFound)
	}

	fromPoiID := entity.PoiID
	event := eventlog.New(worldID, entity.MapID, eventlog.EventMove)
	actorID := entity.ID
	destID := dest.ID
	event.ActorEntityID = &actorID
	event.PoiID = &destID
	event.Payload = map[string]any{
		"from_poi_id": fromPoiID.String(),
		"to_poi_id":   destID.String(),
	}
	event.Verdict = eventlog.OKVerdict()

	err = e.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := e.entities.UpdateLocation(ctx, entity.ID, entity.MapID, dest.ID); err != nil {
			return err
		}
		return e.events.Append(ctx, event)
	})
	if err != nil {
		return nil, errCtx.Code("MOVE_FAILED").Wrap(err)
	}

	return &MoveResult{
		EntityID:  entity.ID,
		FromPoiID: fromPoiID,
		ToPoiID:   dest.ID,
		EventID:   event.ID,
	}, nil
}

// resolveActor picks the entity the viewer acts through.
func (e *Engine) resolveActor(ctx context.Context, viewer ViewerContext, worldID ulid.ULID) (*EntityState, error) {
	switch viewer.Role {
	case RoleVisitor:
		entity, err := e.entities.Get(ctx, viewer.Visit.VisitorEntityID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, oops.Code("NO_VIEWER_ENTITY").Wrap(ErrNoViewerEntity)
			}
			return nil, err
		}
		return entity, nil
	case RoleOwner:
		entity, err := e.entities.GetOwnerOffline(ctx, worldID, viewer.PlayerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, oops.Code("NO_VIEWER_ENTITY").Wrap(ErrNoViewerEntity)
			}
			return nil, err
		}
		return entity, nil
	default:
		return nil, oops.Code("NO_VIEWER_ENTITY").Wrap(ErrNoViewerEntity)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ViewerRole is the capability a caller holds toward a world.
type ViewerRole int

// Viewer roles, from least to most capable.
const (
	RoleDenied ViewerRole = iota
	RoleVisitor
	RoleOwner
)

// Visit is the slice of an active travel session the world engine needs:
// which entity acts for the visitor. The full session lives in the travel
// package; this keeps world from depending on it.
type Visit struct {
	SessionID       ulid.ULID
	WorldID         ulid.ULID
	VisitorEntityID ulid.ULID
}

// VisitResolver looks up the caller's active visit to a world.
// Returns ErrNotFound when the session does not exist, is not active,
// belongs to another player, or targets another world.
type VisitResolver interface {
	ActiveVisit(ctx context.Context, sessionID, visitorID, worldID ulid.ULID) (*Visit, error)
}

// ViewerContext is a caller's resolved capability toward one world,
// computed once per request and passed to the view and movement engines.
// Visit is non-nil only for RoleVisitor.
type ViewerContext struct {
	PlayerID ulid.ULID
	Role     ViewerRole
	Visit    *Visit
}

// IsOwner reports whether the viewer owns the world.
func (v ViewerContext) IsOwner() bool { return v.Role == RoleOwner }

// View resolves viewer capabilities and produces scoped map graphs.
type View struct {
	worlds   WorldRepository
	maps     MapRepository
	pois     PoiRepository
	edges    EdgeRepository
	entities EntityRepository
	visits   VisitResolver
}

// NewView creates a View over the given repositories.
func NewView(worlds WorldRepository, maps MapRepository, pois PoiRepository, edges EdgeRepository, entities EntityRepository, visits VisitResolver) *View {
	return &View{
		worlds:   worlds,
		maps:     maps,
		pois:     pois,
		edges:    edges,
		entities: entities,
		visits:   visits,
	}
}

// ResolveViewer computes the caller's capability toward a world. Owners get
// RoleOwner regardless of any session id. Non-owners presenting the id of
// an active session that targets this world get RoleVisitor. Everyone else
// is RoleDenied.
func (v *View) ResolveViewer(ctx context.Context, playerID, worldID ulid.ULID, sessionID *ulid.ULID) (ViewerContext, error) {
	w, err := v.worlds.Get(ctx, worldID)
	if err != nil {
		return ViewerContext{}, err
	}

	if w.OwnerID == playerID {
		return ViewerContext{PlayerID: playerID, Role: RoleOwner}, nil
	}

	if sessionID != nil {
		visit, err := v.visits.ActiveVisit(ctx, *sessionID, playerID, worldID)
		if err == nil {
			return ViewerContext{PlayerID: playerID, Role: RoleVisitor, Visit: visit}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return ViewerContext{}, err
		}
	}

	return ViewerContext{PlayerID: playerID, Role: RoleDenied}, nil
}

// CanEnterWorld gates whether a visitor may start a travel session into a
// world. Public worlds always admit. Hidden and locked worlds admit any
// caller presenting a non-empty invite code; the code value is not checked
// against a stored secret yet.
func CanEnterWorld(w *WorldInstance, inviteCode string) error {
	switch w.VisibilityMode {
	case VisibilityPublic:
		return nil
	case VisibilityHidden, VisibilityLocked:
		if inviteCode != "" {
			return nil
		}
		return oops.Code("ENTRY_DENIED").
			With("visibility", w.VisibilityMode.String()).
			Wrap(ErrAccessDenied)
	default:
		return oops.Code("ENTRY_DENIED").
			With("visibility", w.VisibilityMode.String()).
			Wrap(ErrAccessDenied)
	}
}

// MapGraph is the portion of a map's POI graph a viewer is allowed to see.
// ViewerPoiID is the viewer's position when one resolves within this map.
type MapGraph struct {
	Pois        []*Poi
	Edges       []*Edge
	ViewerPoiID *ulid.ULID
}

// Graph returns the map graph scoped to the viewer. Owners see every POI
// and edge. Visitors see their current POI plus its one-hop neighbors, and
// the union of outgoing and incoming edges at the current POI, deduplicated
// by edge id. Anyone else is denied.
func (v *View) Graph(ctx context.Context, worldID, mapID ulid.ULID, viewer ViewerContext) (*MapGraph, error) {
	m, err := v.maps.Get(ctx, worldID, mapID)
	if err != nil {
		return nil, err
	}

	switch viewer.Role {
	case RoleOwner:
		return v.ownerGraph(ctx, worldID, viewer.PlayerID, m.ID)
	case RoleVisitor:
		return v.visitorGraph(ctx, m.ID, viewer.Visit)
	default:
		return nil, oops.Code("VIEW_DENIED").Wrap(ErrAccessDenied)
	}
}

func (v *View) ownerGraph(ctx context.Context, worldID, ownerID, mapID ulid.ULID) (*MapGraph, error) {
	pois, err := v.pois.ListByMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	edges, err := v.edges.ListByMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	g := &MapGraph{Pois: pois, Edges: edges}
	if e, err := v.entities.GetOwnerOffline(ctx, worldID, ownerID); err == nil && e.MapID == mapID {
		poiID := e.PoiID
		g.ViewerPoiID = &poiID
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return g, nil
}

func (v *View) visitorGraph(ctx context.Context, mapID ulid.ULID, visit *Visit) (*MapGraph, error) {
	entity, err := v.entities.Get(ctx, visit.VisitorEntityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("VIEW_DENIED").Wrap(ErrNoViewerEntity)
		}
		return nil, err
	}
	if entity.MapID != mapID {
		return nil, oops.Code("VIEW_DENIED").Wrap(ErrAccessDenied)
	}

	outgoing, err := v.edges.ListFrom(ctx, mapID, entity.PoiID)
	if err != nil {
		return nil, err
	}
	incoming, err := v.edges.ListTo(ctx, mapID, entity.PoiID)
	if err != nil {
		return nil, err
	}

	seenEdges := make(map[ulid.ULID]bool)
	var edges []*Edge
	for _, e := range append(outgoing, incoming...) {
		if seenEdges[e.ID] {
			continue
		}
		seenEdges[e.ID] = true
		edges = append(edges, e)
	}

	seenPois := map[ulid.ULID]bool{entity.PoiID: true}
	neighborIDs := []ulid.ULID{entity.PoiID}
	for _, e := range edges {
		for _, id := range []ulid.ULID{e.FromPoiID, e.ToPoiID} {
			if !seenPois[id] {
				seenPois[id] = true
				neighborIDs = append(neighborIDs, id)
			}
		}
	}

	pois, err := v.pois.ListByIDs(ctx, neighborIDs)
	if err != nil {
		return nil, err
	}

	poiID := entity.PoiID
	return &MapGraph{Pois: pois, Edges: edges, ViewerPoiID: &poiID}, nil
}

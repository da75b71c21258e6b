// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Canonical POI keys every provisioned map contains.
const (
	PoiKeySafehouse = "safehouse"
	PoiKeyMarket    = "market"
	PoiKeyWild      = "wild"
)

// Provisioner lazily builds a player's world on first access. Every step is
// get-or-create, so EnsureWorld is safe to call on every request: lost insert
// races re-read the winner and continue.
type Provisioner struct {
	worlds   WorldRepository
	maps     MapRepository
	pois     PoiRepository
	edges    EdgeRepository
	entities EntityRepository
}

// NewProvisioner creates a Provisioner over the given repositories.
func NewProvisioner(worlds WorldRepository, maps MapRepository, pois PoiRepository, edges EdgeRepository, entities EntityRepository) *Provisioner {
	return &Provisioner{
		worlds:   worlds,
		maps:     maps,
		pois:     pois,
		edges:    edges,
		entities: entities,
	}
}

// EnsureWorld returns the player's fully wired world, creating any missing
// pieces: the world row, the mainland map, the three canonical POIs, the
// bidirectional edges between them, and the owner's offline entity at the
// safehouse. An offline entity that drifted away from the safehouse is
// relocated back.
func (p *Provisioner) EnsureWorld(ctx context.Context, ownerID ulid.ULID, ownerCharID *string) (*WorldInstance, *MapInstance, *Poi, error) {
	errCtx := oops.With("owner_id", ownerID.String())

	w, err := p.ensureWorld(ctx, ownerID, ownerCharID)
	if err != nil {
		return nil, nil, nil, errCtx.Code("WORLD_PROVISION_FAILED").Wrap(err)
	}

	m, err := p.ensureMap(ctx, w.ID, DefaultMapKey)
	if err != nil {
		return nil, nil, nil, errCtx.Code("MAP_PROVISION_FAILED").Wrap(err)
	}

	safehouse, err := p.ensurePoi(ctx, m.ID, canonicalSafehouse())
	if err != nil {
		return nil, nil, nil, errCtx.Code("POI_PROVISION_FAILED").Wrap(err)
	}
	market, err := p.ensurePoi(ctx, m.ID, canonicalMarket())
	if err != nil {
		return nil, nil, nil, errCtx.Code("POI_PROVISION_FAILED").Wrap(err)
	}
	wild, err := p.ensurePoi(ctx, m.ID, canonicalWild())
	if err != nil {
		return nil, nil, nil, errCtx.Code("POI_PROVISION_FAILED").Wrap(err)
	}

	links := []struct {
		from, to *Poi
		edgeType EdgeType
		cost     int
	}{
		{safehouse, market, EdgeTypeRoad, 1},
		{market, wild, EdgeTypeTrail, 1},
		{safehouse, wild, EdgeTypeTrail, 2},
	}
	for _, l := range links {
		if err := p.EnsureBidirectionalEdge(ctx, m.ID, l.from.ID, l.to.ID, l.edgeType, l.cost); err != nil {
			return nil, nil, nil, errCtx.Code("EDGE_PROVISION_FAILED").Wrap(err)
		}
	}

	if err := p.ensureOfflineEntity(ctx, w, m, safehouse); err != nil {
		return nil, nil, nil, errCtx.Code("ENTITY_PROVISION_FAILED").Wrap(err)
	}

	return w, m, safehouse, nil
}

func (p *Provisioner) ensureWorld(ctx context.Context, ownerID ulid.ULID, ownerCharID *string) (*WorldInstance, error) {
	w, err := p.worlds.GetByOwner(ctx, ownerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	w = NewWorldInstance(ownerID, ownerCharID)
	if err := p.worlds.Create(ctx, w); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return p.worlds.GetByOwner(ctx, ownerID)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "provisioned world", "world_id", w.ID.String(), "owner_id", ownerID.String())
	return w, nil
}

func (p *Provisioner) ensureMap(ctx context.Context, worldID ulid.ULID, mapKey string) (*MapInstance, error) {
	m, err := p.maps.GetByKey(ctx, worldID, mapKey)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	m = NewMapInstance(worldID, mapKey)
	if err := p.maps.Create(ctx, m); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return p.maps.GetByKey(ctx, worldID, mapKey)
		}
		return nil, err
	}
	return m, nil
}

// poiSeed carries the canonical content for one provisioned POI.
type poiSeed struct {
	key    string
	x, y   int
	typ    PoiType
	tags   []string
	policy VisibilityPolicy
	state  map[string]any
}

func canonicalSafehouse() poiSeed {
	return poiSeed{
		key:    PoiKeySafehouse,
		x:      120,
		y:      220,
		typ:    PoiTypeSafehouse,
		tags:   []string{"safe", "core"},
		policy: PolicyPublic,
		state:  map[string]any{"door_level": 1, "durability": 100},
	}
}

func canonicalMarket() poiSeed {
	return poiSeed{
		key:    PoiKeyMarket,
		x:      420,
		y:      200,
		typ:    PoiTypeTown,
		tags:   []string{"public"},
		policy: PolicyPublic,
		state:  map[string]any{"shops": 3},
	}
}

func canonicalWild() poiSeed {
	return poiSeed{
		key:    PoiKeyWild,
		x:      320,
		y:      420,
		typ:    PoiTypeWild,
		tags:   []string{"danger"},
		policy: PolicyDefault,
		state:  map[string]any{"resource_level": 1},
	}
}

func (p *Provisioner) ensurePoi(ctx context.Context, mapID ulid.ULID, seed poiSeed) (*Poi, error) {
	poi, err := p.pois.GetByKey(ctx, mapID, seed.key)
	if err == nil {
		return poi, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	poi, err = NewPoi(mapID, seed.key, seed.x, seed.y, seed.typ)
	if err != nil {
		return nil, err
	}
	poi.Tags = seed.tags
	poi.VisibilityPolicy = seed.policy
	poi.State = seed.state

	if err := p.pois.Create(ctx, poi); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return p.pois.GetByKey(ctx, mapID, seed.key)
		}
		return nil, err
	}
	return poi, nil
}

// EnsureBidirectionalEdge guarantees both directed rows between two POIs
// exist. Each direction is ensured independently, so a half-created pair
// from an interrupted earlier run is completed rather than duplicated.
// Existing rows are never updated.
func (p *Provisioner) EnsureBidirectionalEdge(ctx context.Context, mapID, fromPoiID, toPoiID ulid.ULID, edgeType EdgeType, travelCost int) error {
	if err := p.ensureEdge(ctx, mapID, fromPoiID, toPoiID, edgeType, travelCost); err != nil {
		return err
	}
	return p.ensureEdge(ctx, mapID, toPoiID, fromPoiID, edgeType, travelCost)
}

func (p *Provisioner) ensureEdge(ctx context.Context, mapID, fromPoiID, toPoiID ulid.ULID, edgeType EdgeType, travelCost int) error {
	_, err := p.edges.Find(ctx, mapID, fromPoiID, toPoiID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	e, err := NewEdge(mapID, fromPoiID, toPoiID, edgeType, travelCost)
	if err != nil {
		return err
	}
	if err := p.edges.Create(ctx, e); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return nil
}

func (p *Provisioner) ensureOfflineEntity(ctx context.Context, w *WorldInstance, m *MapInstance, safehouse *Poi) error {
	e, err := p.entities.GetOwnerOffline(ctx, w.ID, w.OwnerID)
	if err == nil {
		if e.MapID == m.ID && e.PoiID == safehouse.ID {
			return nil
		}
		// Drifted; put the owner's proxy back at the safehouse.
		return p.entities.UpdateLocation(ctx, e.ID, m.ID, safehouse.ID)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	e, err = NewEntityState(w.ID, m.ID, safehouse.ID, w.OwnerID, EntityPlayerOffline)
	if err != nil {
		return err
	}
	e.OwnerCharID = w.OwnerCharID
	e.Stats = map[string]any{"hp": 10, "realm": "mortal"}
	e.AIMemory = map[string]any{"alert": 0, "intel": []any{}}
	e.StateFlags = map[string]any{"state": "idle"}

	if err := p.entities.Create(ctx, e); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return nil
}

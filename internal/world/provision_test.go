// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/world"
	"github.com/worldrift/worldrift/internal/world/worldtest"
)

func newProvisioner(s *worldtest.Store) *world.Provisioner {
	return world.NewProvisioner(s.Worlds, s.Maps, s.Pois, s.Edges, s.Entities)
}

func TestEnsureWorldCreatesCanonicalContent(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)
	ownerID := core.NewULID()

	w, m, safehouse, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	assert.Equal(t, ownerID, w.OwnerID)
	assert.Equal(t, world.VisibilityPublic, w.VisibilityMode)
	assert.Equal(t, world.DefaultMapKey, m.MapKey)
	assert.Equal(t, world.PoiKeySafehouse, safehouse.PoiKey)
	assert.Equal(t, world.PoiTypeSafehouse, safehouse.Type)
	assert.ElementsMatch(t, []string{"safe", "core"}, safehouse.Tags)

	pois, err := s.Pois.ListByMap(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, pois, 3)

	keys := make(map[string]*world.Poi)
	for _, poi := range pois {
		keys[poi.PoiKey] = poi
	}
	require.Contains(t, keys, world.PoiKeyMarket)
	require.Contains(t, keys, world.PoiKeyWild)
	assert.Equal(t, world.PoiTypeTown, keys[world.PoiKeyMarket].Type)
	assert.Equal(t, world.PolicyDefault, keys[world.PoiKeyWild].VisibilityPolicy)

	// Three links, two directed rows each.
	edges, err := s.Edges.ListByMap(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 6)

	entity, err := s.Entities.GetOwnerOffline(ctx, w.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, safehouse.ID, entity.PoiID)
	assert.Equal(t, world.EntityPlayerOffline, entity.Type)
	assert.Equal(t, 10, entity.Stats["hp"])
}

func TestEnsureWorldIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)
	ownerID := core.NewULID()

	w1, m1, safe1, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	w2, m2, safe2, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	assert.Equal(t, w1.ID, w2.ID)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, safe1.ID, safe2.ID)

	pois, err := s.Pois.ListByMap(ctx, m1.ID)
	require.NoError(t, err)
	assert.Len(t, pois, 3)

	edges, err := s.Edges.ListByMap(ctx, m1.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 6)
}

func TestEnsureWorldGraphSymmetry(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)

	_, m, _, err := p.EnsureWorld(ctx, core.NewULID(), nil)
	require.NoError(t, err)

	edges, err := s.Edges.ListByMap(ctx, m.ID)
	require.NoError(t, err)

	for _, e := range edges {
		rev, err := s.Edges.Find(ctx, m.ID, e.ToPoiID, e.FromPoiID)
		require.NoError(t, err, "missing reverse edge for %s -> %s", e.FromPoiID, e.ToPoiID)
		assert.Equal(t, e.TravelCost, rev.TravelCost)
		assert.Equal(t, e.EdgeType, rev.EdgeType)
	}
}

func TestEnsureWorldRelocatesDriftedOfflineEntity(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)
	ownerID := core.NewULID()

	w, m, safehouse, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	market, err := s.Pois.GetByKey(ctx, m.ID, world.PoiKeyMarket)
	require.NoError(t, err)

	entity, err := s.Entities.GetOwnerOffline(ctx, w.ID, ownerID)
	require.NoError(t, err)
	require.NoError(t, s.Entities.UpdateLocation(ctx, entity.ID, m.ID, market.ID))

	_, _, _, err = p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	entity, err = s.Entities.GetOwnerOffline(ctx, w.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, safehouse.ID, entity.PoiID)
}

func TestEnsureWorldSeparateOwners(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)

	w1, _, _, err := p.EnsureWorld(ctx, core.NewULID(), nil)
	require.NoError(t, err)
	w2, _, _, err := p.EnsureWorld(ctx, core.NewULID(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, w1.ID, w2.ID)
}

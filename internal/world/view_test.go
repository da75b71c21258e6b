// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/world"
	"github.com/worldrift/worldrift/internal/world/worldtest"
)

// stubVisits resolves a single canned visit.
type stubVisits struct {
	visit *world.Visit
}

func (s *stubVisits) ActiveVisit(_ context.Context, sessionID, visitorID, worldID ulid.ULID) (*world.Visit, error) {
	if s.visit != nil && s.visit.SessionID == sessionID && s.visit.WorldID == worldID {
		return s.visit, nil
	}
	return nil, world.ErrNotFound
}

func newView(s *worldtest.Store, visits world.VisitResolver) *world.View {
	return world.NewView(s.Worlds, s.Maps, s.Pois, s.Edges, s.Entities, visits)
}

func TestCanEnterWorld(t *testing.T) {
	tests := []struct {
		name       string
		mode       world.VisibilityMode
		inviteCode string
		wantErr    bool
	}{
		{name: "public without code", mode: world.VisibilityPublic, wantErr: false},
		{name: "public with code", mode: world.VisibilityPublic, inviteCode: "x", wantErr: false},
		{name: "hidden without code", mode: world.VisibilityHidden, wantErr: true},
		{name: "hidden with code", mode: world.VisibilityHidden, inviteCode: "x", wantErr: false},
		{name: "locked without code", mode: world.VisibilityLocked, wantErr: true},
		{name: "locked with code", mode: world.VisibilityLocked, inviteCode: "x", wantErr: false},
		{name: "unknown mode", mode: world.VisibilityMode("weird"), inviteCode: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := world.NewWorldInstance(core.NewULID(), nil)
			w.VisibilityMode = tt.mode

			err := world.CanEnterWorld(w, tt.inviteCode)
			if tt.wantErr {
				assert.ErrorIs(t, err, world.ErrAccessDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveViewer(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)

	ownerID := core.NewULID()
	w, _, _, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	visitorID := core.NewULID()
	sessionID := core.NewULID()
	entityID := core.NewULID()
	visits := &stubVisits{visit: &world.Visit{
		SessionID:       sessionID,
		WorldID:         w.ID,
		VisitorEntityID: entityID,
	}}
	v := newView(s, visits)

	t.Run("owner", func(t *testing.T) {
		viewer, err := v.ResolveViewer(ctx, ownerID, w.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, world.RoleOwner, viewer.Role)
		assert.True(t, viewer.IsOwner())
	})

	t.Run("owner ignores session id", func(t *testing.T) {
		viewer, err := v.ResolveViewer(ctx, ownerID, w.ID, &sessionID)
		require.NoError(t, err)
		assert.Equal(t, world.RoleOwner, viewer.Role)
	})

	t.Run("visitor with active session", func(t *testing.T) {
		viewer, err := v.ResolveViewer(ctx, visitorID, w.ID, &sessionID)
		require.NoError(t, err)
		assert.Equal(t, world.RoleVisitor, viewer.Role)
		require.NotNil(t, viewer.Visit)
		assert.Equal(t, entityID, viewer.Visit.VisitorEntityID)
	})

	t.Run("visitor with unknown session", func(t *testing.T) {
		badSession := core.NewULID()
		viewer, err := v.ResolveViewer(ctx, visitorID, w.ID, &badSession)
		require.NoError(t, err)
		assert.Equal(t, world.RoleDenied, viewer.Role)
	})

	t.Run("stranger without session", func(t *testing.T) {
		viewer, err := v.ResolveViewer(ctx, visitorID, w.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, world.RoleDenied, viewer.Role)
	})

	t.Run("unknown world", func(t *testing.T) {
		_, err := v.ResolveViewer(ctx, ownerID, core.NewULID(), nil)
		assert.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestGraphOwnerSeesEverything(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)

	ownerID := core.NewULID()
	w, m, safehouse, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	v := newView(s, &stubVisits{})
	viewer, err := v.ResolveViewer(ctx, ownerID, w.ID, nil)
	require.NoError(t, err)

	g, err := v.Graph(ctx, w.ID, m.ID, viewer)
	require.NoError(t, err)
	assert.Len(t, g.Pois, 3)
	assert.Len(t, g.Edges, 6)
	require.NotNil(t, g.ViewerPoiID)
	assert.Equal(t, safehouse.ID, *g.ViewerPoiID)
}

func TestGraphVisitorOneHopBound(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)

	ownerID := core.NewULID()
	w, m, safehouse, err := p.EnsureWorld(ctx, ownerID, nil)
	require.NoError(t, err)

	// Add a POI two hops from the safehouse: outpost connects only to wild.
	wild, err := s.Pois.GetByKey(ctx, m.ID, world.PoiKeyWild)
	require.NoError(t, err)
	outpost, err := world.NewPoi(m.ID, "outpost", 500, 500, world.PoiTypeWild)
	require.NoError(t, err)
	require.NoError(t, s.Pois.Create(ctx, outpost))
	require.NoError(t, p.EnsureBidirectionalEdge(ctx, m.ID, wild.ID, outpost.ID, world.EdgeTypeTrail, 1))

	// Park a visitor entity at the safehouse.
	visitorID := core.NewULID()
	entity, err := world.NewEntityState(w.ID, m.ID, safehouse.ID, visitorID, world.EntityPlayerOnline)
	require.NoError(t, err)
	require.NoError(t, s.Entities.Create(ctx, entity))

	sessionID := core.NewULID()
	visits := &stubVisits{visit: &world.Visit{
		SessionID:       sessionID,
		WorldID:         w.ID,
		VisitorEntityID: entity.ID,
	}}
	v := newView(s, visits)

	viewer, err := v.ResolveViewer(ctx, visitorID, w.ID, &sessionID)
	require.NoError(t, err)

	g, err := v.Graph(ctx, w.ID, m.ID, viewer)
	require.NoError(t, err)

	// Safehouse plus its direct neighbors; never the outpost two hops away.
	require.NotNil(t, g.ViewerPoiID)
	assert.Equal(t, safehouse.ID, *g.ViewerPoiID)

	keys := make([]string, 0, len(g.Pois))
	for _, poi := range g.Pois {
		keys = append(keys, poi.PoiKey)
	}
	assert.ElementsMatch(t, []string{world.PoiKeySafehouse, world.PoiKeyMarket, world.PoiKeyWild}, keys)

	// Outgoing and incoming edges at the safehouse, deduplicated.
	assert.Len(t, g.Edges, 4)
	seen := make(map[ulid.ULID]bool)
	for _, e := range g.Edges {
		assert.False(t, seen[e.ID], "duplicate edge in visitor graph")
		seen[e.ID] = true
		assert.True(t, e.FromPoiID == safehouse.ID || e.ToPoiID == safehouse.ID)
	}
}

func TestGraphDeniedWithoutSession(t *testing.T) {
	ctx := context.Background()
	s := worldtest.NewStore()
	p := newProvisioner(s)

	w, m, _, err := p.EnsureWorld(ctx, core.NewULID(), nil)
	require.NoError(t, err)

	v := newView(s, &stubVisits{})
	stranger := core.NewULID()
	viewer, err := v.ResolveViewer(ctx, stranger, w.ID, nil)
	require.NoError(t, err)

	_, err = v.Graph(ctx, w.ID, m.ID, viewer)
	assert.ErrorIs(t, err, world.ErrAccessDenied)
}

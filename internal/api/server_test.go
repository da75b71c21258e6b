// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/worldrift/worldrift/internal/api"
	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/travel/traveltest"
	"github.com/worldrift/worldrift/internal/world"
	"github.com/worldrift/worldrift/internal/world/worldtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixture wires the full service stack over the in-memory fakes.
type fixture struct {
	ws  *worldtest.Store
	ts  *traveltest.Store
	srv *api.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ws := worldtest.NewStore()
	ts := traveltest.NewStore()

	provisioner := world.NewProvisioner(ws.Worlds, ws.Maps, ws.Pois, ws.Edges, ws.Entities)
	travelSvc := travel.NewService(travel.Deps{
		Profiles:    ts.Profiles,
		Sessions:    ts.Sessions,
		Reports:     ts.Reports,
		Players:     ts.Players,
		Provisioner: provisioner,
		Worlds:      ws.Worlds,
		Entities:    ws.Entities,
		Events:      ws.Events,
		Tx:          ts,
	}, 1, 1)
	view := world.NewView(ws.Worlds, ws.Maps, ws.Pois, ws.Edges, ws.Entities, travelSvc)
	engine := world.NewEngine(ws.Entities, ws.Pois, ws.Edges, ws.Events, ws)

	srv := api.NewServer(provisioner, view, engine, travelSvc, ws.Worlds, ws.Maps, nil, prometheus.NewRegistry())
	return &fixture{ws: ws, ts: ts, srv: srv}
}

func (f *fixture) addPlayer(username string) ulid.ULID {
	id := core.NewULID()
	f.ts.AddPlayer(&travel.Player{ID: id, Username: username, CreatedAt: time.Now()})
	return id
}

// do performs one request against the in-process server. A zero playerID
// leaves the identity header unset.
func (f *fixture) do(t *testing.T, method, path string, playerID ulid.ULID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if !playerID.IsZero() {
		req.Header.Set(api.PlayerIDHeader, playerID.String())
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeInto(t, rec, &body)
	return body.Error.Code
}

type worldBody struct {
	WorldID        string         `json:"world_id"`
	VisibilityMode string         `json:"visibility_mode"`
	Revision       int            `json:"revision"`
	WorldState     map[string]any `json:"world_state"`
	SafehousePoiID string         `json:"safehouse_poi_id"`
	Maps           []struct {
		MapID  string `json:"map_id"`
		MapKey string `json:"map_key"`
	} `json:"maps"`
}

type graphBody struct {
	Pois []struct {
		ID     string `json:"id"`
		PoiKey string `json:"poi_key"`
		Type   string `json:"type"`
	} `json:"pois"`
	Edges []struct {
		ID        string `json:"id"`
		FromPoiID string `json:"from_poi_id"`
		ToPoiID   string `json:"to_poi_id"`
	} `json:"edges"`
	ViewerPoiID *string `json:"viewer_poi_id"`
}

func TestMyWorldProvisionsOnFirstRequest(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")

	rec := f.do(t, http.MethodGet, "/v1/worlds/me", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body worldBody
	decodeInto(t, rec, &body)
	assert.Equal(t, "public", body.VisibilityMode)
	assert.Equal(t, 1, body.Revision)
	assert.NotEmpty(t, body.SafehousePoiID)
	require.Len(t, body.Maps, 1)
	assert.Equal(t, world.DefaultMapKey, body.Maps[0].MapKey)

	// The second request reuses the same world.
	rec2 := f.do(t, http.MethodGet, "/v1/worlds/me", alice, nil)
	require.Equal(t, http.StatusOK, rec2.Code)
	var body2 worldBody
	decodeInto(t, rec2, &body2)
	assert.Equal(t, body.WorldID, body2.WorldID)
}

func TestUnauthenticated(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/worlds/me", ulid.ULID{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
}

func TestSetVisibility(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")

	// No prior world fetch: the endpoint provisions the world itself.
	rec := f.do(t, http.MethodPost, "/v1/worlds/me/visibility", alice, map[string]string{"mode": "hidden"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		VisibilityMode string `json:"visibility_mode"`
		Revision       int    `json:"revision"`
	}
	decodeInto(t, rec, &body)
	assert.Equal(t, "hidden", body.VisibilityMode)
	assert.Equal(t, 2, body.Revision)

	rec = f.do(t, http.MethodPost, "/v1/worlds/me/visibility", alice, map[string]string{"mode": "invisible"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerGraph(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")

	rec := f.do(t, http.MethodGet, "/v1/worlds/me", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wb worldBody
	decodeInto(t, rec, &wb)

	rec = f.do(t, http.MethodGet, "/v1/worlds/"+wb.WorldID+"/maps/"+wb.Maps[0].MapID+"/graph", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var g graphBody
	decodeInto(t, rec, &g)
	assert.Len(t, g.Pois, 3)
	assert.Len(t, g.Edges, 6)
	require.NotNil(t, g.ViewerPoiID)
	assert.Equal(t, wb.SafehousePoiID, *g.ViewerPoiID)
}

func TestGraphDeniedForStranger(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")
	mallory := f.addPlayer("mallory")

	rec := f.do(t, http.MethodGet, "/v1/worlds/me", alice, nil)
	var wb worldBody
	decodeInto(t, rec, &wb)

	rec = f.do(t, http.MethodGet, "/v1/worlds/"+wb.WorldID+"/maps/"+wb.Maps[0].MapID+"/graph", mallory, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestActionUnsupported(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")

	rec := f.do(t, http.MethodGet, "/v1/worlds/me", alice, nil)
	var wb worldBody
	decodeInto(t, rec, &wb)

	rec = f.do(t, http.MethodPost, "/v1/worlds/"+wb.WorldID+"/action", alice, map[string]any{
		"action_type": "dance",
		"intent":      map[string]string{"to_poi_id": wb.SafehousePoiID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_ACTION", errorCode(t, rec))
}

func TestStartTravelSelf(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")
	f.do(t, http.MethodPost, "/v1/travel/signin", alice, nil)

	rec := f.do(t, http.MethodPost, "/v1/travel/start", alice, map[string]string{"target_username": "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartTravelInsufficientPoints(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")
	f.addPlayer("bob")

	rec := f.do(t, http.MethodPost, "/v1/travel/start", alice, map[string]string{"target_username": "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTravelFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")
	bob := f.addPlayer("bob")

	// Daily sign-in grants one point; the repeat is a no-op.
	rec := f.do(t, http.MethodPost, "/v1/travel/signin", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var signin struct {
		SignedIn bool `json:"signed_in"`
		Points   int  `json:"points"`
	}
	decodeInto(t, rec, &signin)
	assert.True(t, signin.SignedIn)
	assert.Equal(t, 1, signin.Points)

	rec = f.do(t, http.MethodPost, "/v1/travel/signin", alice, nil)
	decodeInto(t, rec, &signin)
	assert.False(t, signin.SignedIn)
	assert.Equal(t, 1, signin.Points)

	rec = f.do(t, http.MethodGet, "/v1/travel/profile", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Points        int  `json:"points"`
		SignedInToday bool `json:"signed_in_today"`
	}
	decodeInto(t, rec, &profile)
	assert.Equal(t, 1, profile.Points)
	assert.True(t, profile.SignedInToday)

	// Start a visit into bob's world.
	rec = f.do(t, http.MethodPost, "/v1/travel/start", alice, map[string]string{"target_username": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var start struct {
		SessionID     string `json:"session_id"`
		TargetWorldID string `json:"target_world_id"`
		EntryMapID    string `json:"entry_map_id"`
		EntryPoiID    string `json:"entry_poi_id"`
		PointsLeft    int    `json:"points_left"`
	}
	decodeInto(t, rec, &start)
	assert.Equal(t, 0, start.PointsLeft)

	// The visitor sees the entry POI plus its one-hop neighbors.
	graphPath := "/v1/worlds/" + start.TargetWorldID + "/maps/" + start.EntryMapID + "/graph?session_id=" + start.SessionID
	rec = f.do(t, http.MethodGet, graphPath, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var g graphBody
	decodeInto(t, rec, &g)
	assert.Len(t, g.Pois, 3)
	assert.Len(t, g.Edges, 4)
	require.NotNil(t, g.ViewerPoiID)
	assert.Equal(t, start.EntryPoiID, *g.ViewerPoiID)

	var marketID string
	for _, p := range g.Pois {
		if p.PoiKey == "market" {
			marketID = p.ID
		}
	}
	require.NotEmpty(t, marketID)

	// One hop to the market.
	rec = f.do(t, http.MethodPost, "/v1/worlds/"+start.TargetWorldID+"/action", alice, map[string]any{
		"action_type": "move",
		"session_id":  start.SessionID,
		"intent":      map[string]string{"to_poi_id": marketID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var move struct {
		FromPoiID string `json:"from_poi_id"`
		ToPoiID   string `json:"to_poi_id"`
	}
	decodeInto(t, rec, &move)
	assert.Equal(t, start.EntryPoiID, move.FromPoiID)
	assert.Equal(t, marketID, move.ToPoiID)

	// End the visit; the anchor points back to alice's own safehouse.
	rec = f.do(t, http.MethodPost, "/v1/travel/end", alice, map[string]string{"session_id": start.SessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var end struct {
		AlreadyEnded bool `json:"already_ended"`
		ReturnAnchor struct {
			WorldID string `json:"world_id"`
			PoiID   string `json:"poi_id"`
		} `json:"return_anchor"`
	}
	decodeInto(t, rec, &end)
	assert.False(t, end.AlreadyEnded)
	assert.NotEqual(t, start.TargetWorldID, end.ReturnAnchor.WorldID)

	// Ending again is a no-op.
	rec = f.do(t, http.MethodPost, "/v1/travel/end", alice, map[string]string{"session_id": start.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &end)
	assert.True(t, end.AlreadyEnded)

	// Bob finds exactly one unread report summarizing the visit.
	rec = f.do(t, http.MethodGet, "/v1/invasion/reports/me", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox struct {
		Reports []struct {
			ID          string         `json:"id"`
			SessionID   string         `json:"session_id"`
			EventCounts map[string]int `json:"event_counts"`
			PoiVisits   []string       `json:"poi_visits"`
			Unread      bool           `json:"unread"`
		} `json:"reports"`
	}
	decodeInto(t, rec, &inbox)
	require.Len(t, inbox.Reports, 1)
	report := inbox.Reports[0]
	assert.Equal(t, start.SessionID, report.SessionID)
	assert.True(t, report.Unread)
	assert.Equal(t, map[string]int{"travel_start": 1, "move": 1, "travel_end": 1}, report.EventCounts)

	// Only the victim can mark it read.
	rec = f.do(t, http.MethodPost, "/v1/invasion/reports/"+report.ID+"/read", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/invasion/reports/"+report.ID+"/read", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/invasion/reports/me", bob, nil)
	decodeInto(t, rec, &inbox)
	require.Len(t, inbox.Reports, 1)
	assert.False(t, inbox.Reports[0].Unread)
}

func TestHiddenWorldGate(t *testing.T) {
	f := newFixture(t)
	alice := f.addPlayer("alice")
	bob := f.addPlayer("bob")

	f.do(t, http.MethodGet, "/v1/worlds/me", bob, nil)
	rec := f.do(t, http.MethodPost, "/v1/worlds/me/visibility", bob, map[string]string{"mode": "hidden"})
	require.Equal(t, http.StatusOK, rec.Code)

	f.do(t, http.MethodPost, "/v1/travel/signin", alice, nil)

	rec = f.do(t, http.MethodPost, "/v1/travel/start", alice, map[string]string{"target_username": "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/travel/start", alice, map[string]string{
		"target_username": "bob",
		"invite_code":     "sesame",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", ulid.ULID{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/readyz", ulid.ULID{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/metrics", ulid.ULID{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

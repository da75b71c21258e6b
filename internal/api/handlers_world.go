// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package api

import (
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/world"
)

type mapSummary struct {
	MapID    string `json:"map_id"`
	MapKey   string `json:"map_key"`
	Revision int    `json:"revision"`
}

type worldResponse struct {
	WorldID        string         `json:"world_id"`
	VisibilityMode string         `json:"visibility_mode"`
	Revision       int            `json:"revision"`
	WorldState     map[string]any `json:"world_state"`
	SafehousePoiID string         `json:"safehouse_poi_id"`
	Maps           []mapSummary   `json:"maps"`
}

// handleMyWorld returns the caller's own world, provisioning it on first
// access.
func (s *Server) handleMyWorld(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	instance, _, safehouse, err := s.provisioner.EnsureWorld(r.Context(), playerID, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	maps, err := s.maps.ListByWorld(r.Context(), instance.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := worldResponse{
		WorldID:        instance.ID.String(),
		VisibilityMode: instance.VisibilityMode.String(),
		Revision:       instance.Revision,
		WorldState:     instance.WorldState,
		SafehousePoiID: safehouse.ID.String(),
		Maps:           make([]mapSummary, 0, len(maps)),
	}
	for _, m := range maps {
		resp.Maps = append(resp.Maps, mapSummary{
			MapID:    m.ID.String(),
			MapKey:   m.MapKey,
			Revision: m.Revision,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type setVisibilityRequest struct {
	Mode string `json:"mode"`
}

type setVisibilityResponse struct {
	VisibilityMode string `json:"visibility_mode"`
	Revision       int    `json:"revision"`
}

// handleSetVisibility changes who may enter the caller's world.
func (s *Server) handleSetVisibility(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	var req setVisibilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return
	}

	mode := world.VisibilityMode(req.Mode)
	if err := mode.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	// Worlds are provisioned lazily, so the caller may set visibility
	// before ever fetching their world.
	instance, _, _, err := s.provisioner.EnsureWorld(r.Context(), playerID, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}
	instance.VisibilityMode = mode
	if err := s.worlds.Update(r.Context(), instance); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, setVisibilityResponse{
		VisibilityMode: instance.VisibilityMode.String(),
		Revision:       instance.Revision,
	})
}

type poiDTO struct {
	ID               string         `json:"id"`
	PoiKey           string         `json:"poi_key"`
	X                int            `json:"x"`
	Y                int            `json:"y"`
	Type             string         `json:"type"`
	Tags             []string       `json:"tags,omitempty"`
	VisibilityPolicy string         `json:"visibility_policy"`
	State            map[string]any `json:"state,omitempty"`
}

type edgeDTO struct {
	ID         string `json:"id"`
	FromPoiID  string `json:"from_poi_id"`
	ToPoiID    string `json:"to_poi_id"`
	EdgeType   string `json:"edge_type"`
	TravelCost int    `json:"travel_cost"`
	Risk       int    `json:"risk"`
}

type graphResponse struct {
	Pois        []poiDTO  `json:"pois"`
	Edges       []edgeDTO `json:"edges"`
	ViewerPoiID *string   `json:"viewer_poi_id,omitempty"`
}

// handleMapGraph returns the POI graph of one map, scoped to what the caller
// is allowed to see. Visitors pass their session id as ?session_id=.
func (s *Server) handleMapGraph(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	worldID, err := ulid.Parse(r.PathValue("world"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid world id")
		return
	}
	mapID, err := ulid.Parse(r.PathValue("map"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid map id")
		return
	}
	sessionID, err := optionalULID(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid session id")
		return
	}

	viewer, err := s.view.ResolveViewer(r.Context(), playerID, worldID, sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	graph, err := s.view.Graph(r.Context(), worldID, mapID, viewer)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := graphResponse{
		Pois:  make([]poiDTO, 0, len(graph.Pois)),
		Edges: make([]edgeDTO, 0, len(graph.Edges)),
	}
	for _, p := range graph.Pois {
		resp.Pois = append(resp.Pois, poiDTO{
			ID:               p.ID.String(),
			PoiKey:           p.PoiKey,
			X:                p.X,
			Y:                p.Y,
			Type:             p.Type.String(),
			Tags:             p.Tags,
			VisibilityPolicy: string(p.VisibilityPolicy),
			State:            p.State,
		})
	}
	for _, e := range graph.Edges {
		resp.Edges = append(resp.Edges, edgeDTO{
			ID:         e.ID.String(),
			FromPoiID:  e.FromPoiID.String(),
			ToPoiID:    e.ToPoiID.String(),
			EdgeType:   e.EdgeType.String(),
			TravelCost: e.TravelCost,
			Risk:       e.Risk,
		})
	}
	if graph.ViewerPoiID != nil {
		id := graph.ViewerPoiID.String()
		resp.ViewerPoiID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

type actionRequest struct {
	ActionType string       `json:"action_type"`
	SessionID  string       `json:"session_id,omitempty"`
	Intent     actionIntent `json:"intent"`
}

type actionIntent struct {
	ToPoiID string `json:"to_poi_id"`
}

type actionResponse struct {
	EntityID  string `json:"entity_id"`
	FromPoiID string `json:"from_poi_id"`
	ToPoiID   string `json:"to_poi_id"`
	EventID   string `json:"event_id"`
}

// handleAction executes one action in a world, currently only "move".
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	worldID, err := ulid.Parse(r.PathValue("world"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid world id")
		return
	}

	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return
	}
	sessionID, err := optionalULID(req.SessionID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid session id")
		return
	}
	toPoiID, err := ulid.Parse(req.Intent.ToPoiID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid to_poi_id")
		return
	}

	viewer, err := s.view.ResolveViewer(r.Context(), playerID, worldID, sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	result, err := s.engine.Act(r.Context(), viewer, worldID, req.ActionType, world.MoveIntent{ToPoiID: toPoiID})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{
		EntityID:  result.EntityID.String(),
		FromPoiID: result.FromPoiID.String(),
		ToPoiID:   result.ToPoiID.String(),
		EventID:   result.EventID.String(),
	})
}

// optionalULID parses s when non-empty, returning nil for the empty string.
func optionalULID(s string) (*ulid.ULID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := ulid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

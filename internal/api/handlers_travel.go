// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package api

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

type signinResponse struct {
	SignedIn bool `json:"signed_in"`
	Points   int  `json:"points"`
}

// handleSignin grants the daily travel points. Repeat calls on the same day
// report signed_in=false with the unchanged balance.
func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	result, err := s.travel.Signin(r.Context(), playerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signinResponse{
		SignedIn: result.SignedIn,
		Points:   result.Points,
	})
}

type profileResponse struct {
	Points        int  `json:"points"`
	SignedInToday bool `json:"signed_in_today"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	view, err := s.travel.Profile(r.Context(), playerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Points:        view.Points,
		SignedInToday: view.SignedInToday,
	})
}

type startTravelRequest struct {
	TargetUsername string `json:"target_username"`
	InviteCode     string `json:"invite_code,omitempty"`
}

type returnAnchorDTO struct {
	WorldID string `json:"world_id"`
	MapID   string `json:"map_id"`
	PoiID   string `json:"poi_id"`
}

type startTravelResponse struct {
	SessionID     string          `json:"session_id"`
	TargetWorldID string          `json:"target_world_id"`
	EntryMapID    string          `json:"entry_map_id"`
	EntryPoiID    string          `json:"entry_poi_id"`
	ReturnAnchor  returnAnchorDTO `json:"return_anchor"`
	PointsLeft    int             `json:"points_left"`
}

// handleStartTravel begins a visit into another player's world.
func (s *Server) handleStartTravel(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	var req startTravelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return
	}
	if req.TargetUsername == "" {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "target_username is required")
		return
	}

	result, err := s.travel.Start(r.Context(), playerID, req.TargetUsername, req.InviteCode)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, startTravelResponse{
		SessionID:     result.SessionID.String(),
		TargetWorldID: result.TargetWorldID.String(),
		EntryMapID:    result.EntryMapID.String(),
		EntryPoiID:    result.EntryPoiID.String(),
		ReturnAnchor: returnAnchorDTO{
			WorldID: result.ReturnAnchor.WorldID.String(),
			MapID:   result.ReturnAnchor.MapID.String(),
			PoiID:   result.ReturnAnchor.PoiID.String(),
		},
		PointsLeft: result.PointsLeft,
	})
}

type endTravelRequest struct {
	SessionID string `json:"session_id"`
}

type endTravelResponse struct {
	AlreadyEnded bool            `json:"already_ended"`
	ReturnAnchor returnAnchorDTO `json:"return_anchor"`
}

// handleEndTravel ends the caller's session and returns the anchor to put
// them back in their own world.
func (s *Server) handleEndTravel(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	var req endTravelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return
	}
	sessionID, err := ulid.Parse(req.SessionID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid session id")
		return
	}

	result, err := s.travel.End(r.Context(), playerID, sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, endTravelResponse{
		AlreadyEnded: result.AlreadyEnded,
		ReturnAnchor: returnAnchorDTO{
			WorldID: result.ReturnAnchor.WorldID.String(),
			MapID:   result.ReturnAnchor.MapID.String(),
			PoiID:   result.ReturnAnchor.PoiID.String(),
		},
	})
}

type reportDTO struct {
	ID          string         `json:"id"`
	WorldID     string         `json:"world_id"`
	SessionID   string         `json:"session_id"`
	EventCounts map[string]int `json:"event_counts"`
	PoiVisits   []string       `json:"poi_visits"`
	Unread      bool           `json:"unread"`
	CreatedAt   time.Time      `json:"created_at"`
}

type listReportsResponse struct {
	Reports []reportDTO `json:"reports"`
}

// handleListReports returns the caller's invasion report inbox, newest first.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	reports, err := s.travel.ListReports(r.Context(), playerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := listReportsResponse{Reports: make([]reportDTO, 0, len(reports))}
	for _, rep := range reports {
		resp.Reports = append(resp.Reports, reportDTO{
			ID:          rep.ID.String(),
			WorldID:     rep.WorldID.String(),
			SessionID:   rep.SessionID.String(),
			EventCounts: rep.Summary.EventCounts,
			PoiVisits:   rep.Summary.PoiVisits,
			Unread:      rep.Unread,
			CreatedAt:   rep.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMarkReportRead flips one of the caller's reports to read.
func (s *Server) handleMarkReportRead(w http.ResponseWriter, r *http.Request, playerID ulid.ULID) {
	reportID, err := ulid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid report id")
		return
	}

	if err := s.travel.MarkReportRead(r.Context(), playerID, reportID); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

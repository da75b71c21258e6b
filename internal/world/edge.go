// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
)

// EdgeType identifies the kind of connection between two POIs.
type EdgeType string

// Edge types.
const (
	EdgeTypeRoad  EdgeType = "road"
	EdgeTypeTrail EdgeType = "trail"
)

// String returns the string representation of the edge type.
func (t EdgeType) String() string {
	return string(t)
}

// Risk bounds for an edge.
const (
	MinRisk = 0
	MaxRisk = 100
)

// ErrSelfReferentialEdge indicates an edge whose endpoints are the same POI.
var ErrSelfReferentialEdge = errors.New("edge endpoints cannot be the same poi")

// Edge is a directed connection between two POIs in the same map.
// Undirected connectivity is modeled as two opposing rows created
// together; see Provisioner and EdgeRepository.
type Edge struct {
	ID           ulid.ULID
	MapID        ulid.ULID
	FromPoiID    ulid.ULID
	ToPoiID      ulid.ULID
	EdgeType     EdgeType
	TravelCost   int
	Risk         int
	Requirements map[string]any
	OneWay       bool
	CreatedAt    time.Time
}

// NewEdge creates a directed edge with a generated ID.
// The edge is validated before being returned.
func NewEdge(mapID, fromPoiID, toPoiID ulid.ULID, edgeType EdgeType, travelCost int) (*Edge, error) {
	e := &Edge{
		ID:         core.NewULID(),
		MapID:      mapID,
		FromPoiID:  fromPoiID,
		ToPoiID:    toPoiID,
		EdgeType:   edgeType,
		TravelCost: travelCost,
		Risk:       MinRisk,
		CreatedAt:  time.Now(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reverse creates the opposing edge for the return direction, carrying the
// same type, cost, and risk. The reverse edge gets its own ID.
func (e *Edge) Reverse() *Edge {
	return &Edge{
		ID:           core.NewULID(),
		MapID:        e.MapID,
		FromPoiID:    e.ToPoiID,
		ToPoiID:      e.FromPoiID,
		EdgeType:     e.EdgeType,
		TravelCost:   e.TravelCost,
		Risk:         e.Risk,
		Requirements: e.Requirements,
		OneWay:       e.OneWay,
		CreatedAt:    e.CreatedAt,
	}
}

// Validate checks that the edge has required fields and risk within bounds.
// Returns ErrSelfReferentialEdge if both endpoints are the same POI.
func (e *Edge) Validate() error {
	if e.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if e.MapID.IsZero() {
		return &ValidationError{Field: "map_id", Message: "cannot be zero"}
	}
	if e.FromPoiID.IsZero() || e.ToPoiID.IsZero() {
		return &ValidationError{Field: "poi_id", Message: "endpoints cannot be zero"}
	}
	if e.FromPoiID == e.ToPoiID {
		return ErrSelfReferentialEdge
	}
	if e.EdgeType == "" {
		return &ValidationError{Field: "edge_type", Message: "cannot be empty"}
	}
	if e.TravelCost < 0 {
		return &ValidationError{Field: "travel_cost", Message: "cannot be negative"}
	}
	if e.Risk < MinRisk || e.Risk > MaxRisk {
		return &ValidationError{Field: "risk", Message: "must be between 0 and 100"}
	}
	return nil
}

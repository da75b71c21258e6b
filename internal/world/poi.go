// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
)

// PoiType identifies the kind of point of interest.
type PoiType string

// POI types.
const (
	PoiTypeSafehouse PoiType = "safehouse"
	PoiTypeTown      PoiType = "town"
	PoiTypeWild      PoiType = "wild"
)

// String returns the string representation of the POI type.
func (t PoiType) String() string {
	return string(t)
}

// VisibilityPolicy controls how a POI is revealed to viewers.
type VisibilityPolicy string

// Visibility policies.
const (
	PolicyDefault VisibilityPolicy = "default"
	PolicyHidden  VisibilityPolicy = "hidden"
	PolicyPublic  VisibilityPolicy = "public"
)

// ErrInvalidVisibilityPolicy indicates an unrecognized POI visibility policy.
var ErrInvalidVisibilityPolicy = errors.New("invalid visibility policy")

// Validate checks that the policy is a recognized value.
func (p VisibilityPolicy) Validate() error {
	switch p {
	case PolicyDefault, PolicyHidden, PolicyPublic:
		return nil
	default:
		return ErrInvalidVisibilityPolicy
	}
}

// Poi is a graph node: a place within a map. PoiKey is unique per map.
type Poi struct {
	ID               ulid.ULID
	MapID            ulid.ULID
	PoiKey           string
	X                int
	Y                int
	Type             PoiType
	Tags             []string
	VisibilityPolicy VisibilityPolicy
	State            map[string]any
	CreatedAt        time.Time
}

// NewPoi creates a POI with a generated ID.
// The POI is validated before being returned.
func NewPoi(mapID ulid.ULID, poiKey string, x, y int, poiType PoiType) (*Poi, error) {
	p := &Poi{
		ID:               core.NewULID(),
		MapID:            mapID,
		PoiKey:           poiKey,
		X:                x,
		Y:                y,
		Type:             poiType,
		VisibilityPolicy: PolicyDefault,
		CreatedAt:        time.Now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the POI has required fields.
func (p *Poi) Validate() error {
	if p.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if p.MapID.IsZero() {
		return &ValidationError{Field: "map_id", Message: "cannot be zero"}
	}
	if p.PoiKey == "" {
		return &ValidationError{Field: "poi_key", Message: "cannot be empty"}
	}
	if p.Type == "" {
		return &ValidationError{Field: "type", Message: "cannot be empty"}
	}
	return p.VisibilityPolicy.Validate()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package travel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/travel"
)

func TestNewTravelSession(t *testing.T) {
	visitorID := core.NewULID()
	worldID := core.NewULID()
	mapID := core.NewULID()
	poiID := core.NewULID()
	anchor := travel.ReturnAnchor{
		WorldID: core.NewULID(),
		MapID:   core.NewULID(),
		PoiID:   core.NewULID(),
	}

	s := travel.NewTravelSession(visitorID, worldID, mapID, poiID, anchor)

	assert.True(t, s.IsActive())
	assert.Equal(t, anchor, s.ReturnAnchor)
	assert.False(t, s.Policy.AllowLoot)
	assert.False(t, s.Policy.AllowDestroy)
	assert.Nil(t, s.EndedAt)
}

func TestSessionEndIsTerminal(t *testing.T) {
	s := travel.NewTravelSession(core.NewULID(), core.NewULID(), core.NewULID(), core.NewULID(), travel.ReturnAnchor{})

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.End(first)

	assert.False(t, s.IsActive())
	assert.Equal(t, travel.SessionEnded, s.State)
	require.NotNil(t, s.EndedAt)
	assert.Equal(t, first, *s.EndedAt)

	// A second End must not move the timestamp.
	s.End(first.Add(time.Hour))
	assert.Equal(t, first, *s.EndedAt)
}

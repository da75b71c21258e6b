// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/world"
)

func TestNewPoi(t *testing.T) {
	mapID := core.NewULID()

	p, err := world.NewPoi(mapID, "market", 420, 200, world.PoiTypeTown)

	require.NoError(t, err)
	assert.Equal(t, mapID, p.MapID)
	assert.Equal(t, "market", p.PoiKey)
	assert.Equal(t, world.PolicyDefault, p.VisibilityPolicy)
}

func TestNewPoiInvalid(t *testing.T) {
	tests := []struct {
		name   string
		poiKey string
		typ    world.PoiType
	}{
		{name: "empty key", poiKey: "", typ: world.PoiTypeTown},
		{name: "empty type", poiKey: "market", typ: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := world.NewPoi(core.NewULID(), tt.poiKey, 0, 0, tt.typ)
			require.Error(t, err)
		})
	}
}

func TestVisibilityPolicyValidate(t *testing.T) {
	assert.NoError(t, world.PolicyDefault.Validate())
	assert.NoError(t, world.PolicyHidden.Validate())
	assert.NoError(t, world.PolicyPublic.Validate())
	assert.ErrorIs(t, world.VisibilityPolicy("glowing").Validate(), world.ErrInvalidVisibilityPolicy)
}

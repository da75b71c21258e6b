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

func TestVisibilityModeValidate(t *testing.T) {
	tests := []struct {
		mode    world.VisibilityMode
		wantErr bool
	}{
		{world.VisibilityPublic, false},
		{world.VisibilityHidden, false},
		{world.VisibilityLocked, false},
		{world.VisibilityMode("secret"), true},
		{world.VisibilityMode(""), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			err := tt.mode.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, world.ErrInvalidVisibility)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWorldInstance(t *testing.T) {
	ownerID := core.NewULID()
	charID := "char-1"

	w := world.NewWorldInstance(ownerID, &charID)

	require.NoError(t, w.Validate())
	assert.False(t, w.ID.IsZero())
	assert.Equal(t, ownerID, w.OwnerID)
	assert.Equal(t, world.VisibilityPublic, w.VisibilityMode)
	assert.Equal(t, 1, w.Revision)
	assert.Equal(t, 0, w.WorldState["alert_level"])
	assert.Equal(t, "v1", w.WorldState["background_version"])
}

func TestNewMapInstance(t *testing.T) {
	worldID := core.NewULID()

	m := world.NewMapInstance(worldID, world.DefaultMapKey)

	require.NoError(t, m.Validate())
	assert.Equal(t, worldID, m.WorldID)
	assert.Equal(t, "mainland", m.MapKey)
	assert.Equal(t, 1, m.Revision)
	assert.Equal(t, 1, m.MapState["version"])
}

func TestMapInstanceValidate(t *testing.T) {
	m := world.NewMapInstance(core.NewULID(), world.DefaultMapKey)
	m.MapKey = ""

	var vErr *world.ValidationError
	require.ErrorAs(t, m.Validate(), &vErr)
	assert.Equal(t, "map_key", vErr.Field)
}

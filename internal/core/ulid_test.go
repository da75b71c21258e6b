// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewULID()
		s := id.String()
		require.False(t, seen[s], "duplicate ULID generated: %s", s)
		seen[s] = true
	}
}

func TestNewULID_Monotonic(t *testing.T) {
	prev := NewULID()
	for range 100 {
		next := NewULID()
		assert.Equal(t, 1, next.Compare(prev), "ULIDs should be strictly increasing")
		prev = next
	}
}

func TestParseULID(t *testing.T) {
	id := NewULID()

	parsed, err := ParseULID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseULID("not-a-ulid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ULID")
}

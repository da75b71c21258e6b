// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package travel manages the visit lifecycle between player worlds: the
// daily-grant point economy, travel sessions, and the invasion reports
// produced when a visit ends.
package travel

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// TravelProfile holds a player's travel point balance and the last UTC day
// they signed in. Profiles are created lazily with a zero balance.
type TravelProfile struct {
	PlayerID     ulid.ULID
	TravelPoints int
	LastSigninAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTravelProfile creates an empty profile for a player.
func NewTravelProfile(playerID ulid.ULID) *TravelProfile {
	now := time.Now()
	return &TravelProfile{
		PlayerID:  playerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SignedInOn reports whether the profile already signed in on the same UTC
// calendar day as t.
func (p *TravelProfile) SignedInOn(t time.Time) bool {
	if p.LastSigninAt == nil {
		return false
	}
	y1, m1, d1 := p.LastSigninAt.UTC().Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Player is a directory entry for resolving travel targets by username.
type Player struct {
	ID        ulid.ULID
	Username  string
	CreatedAt time.Time
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package travel

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sentinel errors for the travel lifecycle.
var (
	// ErrInsufficientPoints is returned when a consume would go negative.
	// The balance is left untouched.
	ErrInsufficientPoints = errors.New("insufficient travel points")

	// ErrSelfTravel is returned when a player tries to visit their own world.
	ErrSelfTravel = errors.New("cannot travel to own world")
)

// ProfileRepository manages travel profile persistence.
type ProfileRepository interface {
	// Get retrieves a player's profile, or world.ErrNotFound.
	Get(ctx context.Context, playerID ulid.ULID) (*TravelProfile, error)

	// Create persists a new profile. Duplicate players are reported as
	// world.ErrAlreadyExists.
	Create(ctx context.Context, p *TravelProfile) error

	// Grant adds points and records the sign-in day, guarded so the grant
	// applies at most once per UTC calendar day even under concurrent
	// sign-ins. It returns the current balance and whether this call
	// granted. A missing profile is world.ErrNotFound.
	Grant(ctx context.Context, playerID ulid.ULID, points int, signinAt time.Time) (int, bool, error)

	// Consume decrements the balance by cost under a row lock, returning
	// the remaining balance. Returns ErrInsufficientPoints without
	// mutating when the balance is too low.
	Consume(ctx context.Context, playerID ulid.ULID, cost int) (int, error)
}

// SessionRepository manages travel session persistence.
type SessionRepository interface {
	// Get retrieves a session by ID, or world.ErrNotFound.
	Get(ctx context.Context, id ulid.ULID) (*TravelSession, error)

	// Create persists a new session.
	Create(ctx context.Context, s *TravelSession) error

	// Update persists the session's mutable fields (state, ended_at).
	Update(ctx context.Context, s *TravelSession) error
}

// ReportRepository manages invasion report persistence.
type ReportRepository interface {
	// Create persists a new report.
	Create(ctx context.Context, r *InvasionReport) error

	// ListByVictim returns the victim's most recent reports, newest first.
	ListByVictim(ctx context.Context, victimID ulid.ULID, limit int) ([]*InvasionReport, error)

	// MarkRead flips a report to read. Scoped to the victim so players
	// cannot touch each other's inboxes; unknown ids are world.ErrNotFound.
	MarkRead(ctx context.Context, id, victimID ulid.ULID) error
}

// PlayerDirectory resolves players for travel targeting. Identity itself is
// managed upstream; this is a read-mostly lookup table.
type PlayerDirectory interface {
	// Get retrieves a player by ID, or world.ErrNotFound.
	Get(ctx context.Context, id ulid.ULID) (*Player, error)

	// GetByUsername retrieves a player by username, or world.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*Player, error)
}

// Transactor runs a function inside a single database transaction.
// Mirrors the store package's Transactor to avoid coupling travel to it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

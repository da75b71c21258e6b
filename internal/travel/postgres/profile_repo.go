// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package postgres provides PostgreSQL implementations of the travel
// repositories. All methods join an ambient transaction when one is present
// in the context.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/store"
	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

// ProfileRepository implements travel.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db store.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db store.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves a player's profile.
func (r *ProfileRepository) Get(ctx context.Context, playerID ulid.ULID) (*travel.TravelProfile, error) {
	row := store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT player_id, travel_points, last_signin_at, created_at, updated_at
		FROM travel_profiles WHERE player_id = $1
	`, playerID.String())

	var p travel.TravelProfile
	var idStr string
	err := row.Scan(&idStr, &p.TravelPoints, &p.LastSigninAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("player_id", playerID.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get travel profile").With("player_id", playerID.String()).Wrap(err)
	}
	if p.PlayerID, err = parseULID(idStr, "player_id"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a new profile. A duplicate player is reported as
// world.ErrAlreadyExists.
func (r *ProfileRepository) Create(ctx context.Context, p *travel.TravelProfile) error {
	_, err := store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO travel_profiles (player_id, travel_points, last_signin_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		p.PlayerID.String(),
		p.TravelPoints,
		p.LastSigninAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.With("player_id", p.PlayerID.String()).Wrap(world.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create travel profile").With("player_id", p.PlayerID.String()).Wrap(err)
	}
	return nil
}

// Grant adds points and stamps the sign-in day. The guarded single-statement
// update makes the once-per-day check atomic with the grant: a profile
// already stamped with signinAt's UTC day matches no row and nothing mutates.
func (r *ProfileRepository) Grant(ctx context.Context, playerID ulid.ULID, points int, signinAt time.Time) (int, bool, error) {
	db := store.DBFrom(ctx, r.db)
	day := signinAt.UTC().Truncate(24 * time.Hour)

	row := db.QueryRow(ctx, `
		UPDATE travel_profiles
		SET travel_points = travel_points + $2, last_signin_at = $3, updated_at = NOW()
		WHERE player_id = $1 AND last_signin_at IS DISTINCT FROM $3
		RETURNING travel_points
	`, playerID.String(), points, day)

	var balance int
	err := row.Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, oops.With("operation", "grant travel points").With("player_id", playerID.String()).Wrap(err)
	}

	// No row matched: either today's grant already happened or the profile
	// is missing. A plain read tells them apart.
	err = db.QueryRow(ctx, `
		SELECT travel_points FROM travel_profiles WHERE player_id = $1
	`, playerID.String()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, oops.With("player_id", playerID.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return 0, false, oops.With("operation", "grant travel points").With("player_id", playerID.String()).Wrap(err)
	}
	return balance, false, nil
}

// Consume decrements the balance by cost, returning the remaining balance.
// The guarded single-statement update makes the check-and-decrement atomic:
// a balance below cost matches no row and nothing mutates.
func (r *ProfileRepository) Consume(ctx context.Context, playerID ulid.ULID, cost int) (int, error) {
	row := store.DBFrom(ctx, r.db).QueryRow(ctx, `
		UPDATE travel_profiles
		SET travel_points = travel_points - $2, updated_at = NOW()
		WHERE player_id = $1 AND travel_points >= $2
		RETURNING travel_points
	`, playerID.String(), cost)

	var remaining int
	err := row.Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.With("player_id", playerID.String()).With("cost", cost).Wrap(travel.ErrInsufficientPoints)
	}
	if err != nil {
		return 0, oops.With("operation", "consume travel points").With("player_id", playerID.String()).Wrap(err)
	}
	return remaining, nil
}

// Compile-time interface check.
var _ travel.ProfileRepository = (*ProfileRepository)(nil)

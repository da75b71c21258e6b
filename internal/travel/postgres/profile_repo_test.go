// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

func TestProfileRepositoryGet(t *testing.T) {
	playerID := core.NewULID()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		signin := now.Add(-time.Hour)
		rows := pgxmock.NewRows([]string{"player_id", "travel_points", "last_signin_at", "created_at", "updated_at"}).
			AddRow(playerID.String(), 3, &signin, now, now)
		mock.ExpectQuery(`SELECT (.+) FROM travel_profiles WHERE player_id =`).
			WithArgs(playerID.String()).
			WillReturnRows(rows)

		repo := NewProfileRepository(mock)
		profile, err := repo.Get(context.Background(), playerID)

		require.NoError(t, err)
		assert.Equal(t, playerID, profile.PlayerID)
		assert.Equal(t, 3, profile.TravelPoints)
		require.NotNil(t, profile.LastSigninAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM travel_profiles WHERE player_id =`).
			WithArgs(playerID.String()).
			WillReturnError(pgx.ErrNoRows)

		repo := NewProfileRepository(mock)
		_, err = repo.Get(context.Background(), playerID)

		assert.ErrorIs(t, err, world.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileRepositoryConsume(t *testing.T) {
	playerID := core.NewULID()

	t.Run("decrements and returns remaining", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"travel_points"}).AddRow(2)
		mock.ExpectQuery(`UPDATE travel_profiles`).
			WithArgs(playerID.String(), 1).
			WillReturnRows(rows)

		repo := NewProfileRepository(mock)
		remaining, err := repo.Consume(context.Background(), playerID, 1)

		require.NoError(t, err)
		assert.Equal(t, 2, remaining)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance mutates nothing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		// The guarded WHERE clause matches no row when balance < cost.
		mock.ExpectQuery(`UPDATE travel_profiles`).
			WithArgs(playerID.String(), 1).
			WillReturnError(pgx.ErrNoRows)

		repo := NewProfileRepository(mock)
		_, err = repo.Consume(context.Background(), playerID, 1)

		assert.ErrorIs(t, err, travel.ErrInsufficientPoints)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileRepositoryGrant(t *testing.T) {
	playerID := core.NewULID()
	signin := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("grants points", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"travel_points"}).AddRow(1)
		mock.ExpectQuery(`UPDATE travel_profiles`).
			WithArgs(playerID.String(), 1, day).
			WillReturnRows(rows)

		repo := NewProfileRepository(mock)
		balance, granted, err := repo.Grant(context.Background(), playerID, 1, signin)

		require.NoError(t, err)
		assert.True(t, granted)
		assert.Equal(t, 1, balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same day is a no-op", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		// The guarded WHERE clause matches no row when last_signin_at
		// already holds the sign-in day, leaving the balance untouched.
		mock.ExpectQuery(`UPDATE travel_profiles`).
			WithArgs(playerID.String(), 1, day).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT travel_points FROM travel_profiles`).
			WithArgs(playerID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"travel_points"}).AddRow(1))

		repo := NewProfileRepository(mock)
		balance, granted, err := repo.Grant(context.Background(), playerID, 1, signin)

		require.NoError(t, err)
		assert.False(t, granted)
		assert.Equal(t, 1, balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE travel_profiles`).
			WithArgs(playerID.String(), 1, day).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT travel_points FROM travel_profiles`).
			WithArgs(playerID.String()).
			WillReturnError(pgx.ErrNoRows)

		repo := NewProfileRepository(mock)
		_, _, err = repo.Grant(context.Background(), playerID, 1, signin)

		assert.ErrorIs(t, err, world.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

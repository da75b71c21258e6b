// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldrift/worldrift/internal/core"
)

func TestPostgresRepositoryAppend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := New(core.NewULID(), core.NewULID(), EventMove)
	actorID := core.NewULID()
	poiID := core.NewULID()
	e.ActorEntityID = &actorID
	e.PoiID = &poiID
	e.Payload = map[string]any{"to_poi_id": poiID.String()}
	e.Verdict = OKVerdict()

	mock.ExpectExec(`INSERT INTO world_event_logs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.Append(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryListByActorSince(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	worldID := core.NewULID()
	mapID := core.NewULID()
	actorID := core.NewULID()
	poiID := core.NewULID()
	since := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	actorStr := actorID.String()
	poiStr := poiID.String()

	rows := pgxmock.NewRows([]string{"id", "world_id", "map_id", "poi_id", "actor_entity_id", "target_entity_id", "event_type", "payload", "server_verdict", "created_at"}).
		AddRow(core.NewULID().String(), worldID.String(), mapID.String(), &poiStr, &actorStr, (*string)(nil), "move", []byte(`{"to_poi_id":"x"}`), []byte(`{"ok":true}`), since.Add(time.Minute))
	mock.ExpectQuery(`SELECT (.+) FROM world_event_logs`).
		WithArgs(worldID.String(), actorID.String(), since).
		WillReturnRows(rows)

	repo := NewPostgresRepository(mock)
	events, err := repo.ListByActorSince(context.Background(), worldID, actorID, since)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventMove, events[0].Type)
	require.NotNil(t, events[0].ActorEntityID)
	assert.Equal(t, actorID, *events[0].ActorEntityID)
	assert.Equal(t, map[string]any{"ok": true}, events[0].Verdict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/store"
)

// PostgresRepository implements Repository using PostgreSQL. The table is
// append-only; no update or delete statements exist here on purpose.
type PostgresRepository struct {
	db store.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db store.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists one event.
func (r *PostgresRepository) Append(ctx context.Context, e *Event) error {
	payloadJSON, err := marshalJSON(e.Payload, "payload")
	if err != nil {
		return err
	}
	verdictJSON, err := marshalJSON(e.Verdict, "server_verdict")
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO world_event_logs (id, world_id, map_id, poi_id, actor_entity_id, target_entity_id, event_type, payload, server_verdict, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		e.ID.String(),
		e.WorldID.String(),
		e.MapID.String(),
		ulidPtrToString(e.PoiID),
		ulidPtrToString(e.ActorEntityID),
		ulidPtrToString(e.TargetEntityID),
		string(e.Type),
		payloadJSON,
		verdictJSON,
		e.CreatedAt,
	)
	if err != nil {
		return oops.With("operation", "append event").With("id", e.ID.String()).Wrap(err)
	}
	return nil
}

// ListByActorSince returns a world's events caused by the given actor
// entity with created_at at or after since, oldest first.
func (r *PostgresRepository) ListByActorSince(ctx context.Context, worldID, actorEntityID ulid.ULID, since time.Time) ([]*Event, error) {
	rows, err := store.DBFrom(ctx, r.db).Query(ctx, `
		SELECT id, world_id, map_id, poi_id, actor_entity_id, target_entity_id, event_type, payload, server_verdict, created_at
		FROM world_event_logs
		WHERE world_id = $1 AND actor_entity_id = $2 AND created_at >= $3
		ORDER BY created_at, id
	`, worldID.String(), actorEntityID.String(), since)
	if err != nil {
		return nil, oops.With("operation", "list events by actor").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, oops.With("operation", "scan event").Wrap(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate events").Wrap(err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var idStr, worldStr, mapStr, typeStr string
	var poiStr, actorStr, targetStr *string
	var payloadJSON, verdictJSON []byte

	err := row.Scan(&idStr, &worldStr, &mapStr, &poiStr, &actorStr, &targetStr, &typeStr, &payloadJSON, &verdictJSON, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if e.ID, err = parseEventULID(idStr, "event id"); err != nil {
		return nil, err
	}
	if e.WorldID, err = parseEventULID(worldStr, "world_id"); err != nil {
		return nil, err
	}
	if e.MapID, err = parseEventULID(mapStr, "map_id"); err != nil {
		return nil, err
	}
	if e.PoiID, err = parseOptionalEventULID(poiStr, "poi_id"); err != nil {
		return nil, err
	}
	if e.ActorEntityID, err = parseOptionalEventULID(actorStr, "actor_entity_id"); err != nil {
		return nil, err
	}
	if e.TargetEntityID, err = parseOptionalEventULID(targetStr, "target_entity_id"); err != nil {
		return nil, err
	}
	e.Type = EventType(typeStr)
	if e.Payload, err = unmarshalJSON(payloadJSON, "payload"); err != nil {
		return nil, err
	}
	if e.Verdict, err = unmarshalJSON(verdictJSON, "server_verdict"); err != nil {
		return nil, err
	}
	return &e, nil
}

func ulidPtrToString(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseEventULID(s, fieldName string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "parse "+fieldName).With(fieldName, s).Wrap(err)
	}
	return id, nil
}

func parseOptionalEventULID(strPtr *string, fieldName string) (*ulid.ULID, error) {
	if strPtr == nil {
		return nil, nil
	}
	id, err := parseEventULID(*strPtr, fieldName)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func marshalJSON(data map[string]any, fieldName string) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, oops.With("operation", "marshal "+fieldName).Wrap(err)
	}
	return b, nil
}

func unmarshalJSON(data []byte, fieldName string) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, oops.With("operation", "unmarshal "+fieldName).Wrap(err)
	}
	return result, nil
}

// Compile-time interface check.
var _ Repository = (*PostgresRepository)(nil)

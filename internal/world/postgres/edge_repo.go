// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/store"
	"github.com/worldrift/worldrift/internal/world"
)

// EdgeRepository implements world.EdgeRepository using PostgreSQL.
type EdgeRepository struct {
	db store.DB
}

// NewEdgeRepository creates a new EdgeRepository.
func NewEdgeRepository(db store.DB) *EdgeRepository {
	return &EdgeRepository{db: db}
}

const edgeColumns = `id, map_id, from_poi_id, to_poi_id, edge_type, travel_cost, risk, requirements, one_way, created_at`

// Find returns the directed edge between two POIs within a map, or
// world.ErrNotFound. Absence of an edge means a move is illegal.
func (r *EdgeRepository) Find(ctx context.Context, mapID, fromPoiID, toPoiID ulid.ULID) (*world.Edge, error) {
	e, err := r.scanEdge(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE map_id = $1 AND from_poi_id = $2 AND to_poi_id = $3
	`, mapID.String(), fromPoiID.String(), toPoiID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.
			With("map_id", mapID.String()).
			With("from_poi_id", fromPoiID.String()).
			With("to_poi_id", toPoiID.String()).
			Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "find edge").With("map_id", mapID.String()).Wrap(err)
	}
	return e, nil
}

// Create persists a new directed edge. A duplicate (map, from, to) triple
// is reported as world.ErrAlreadyExists.
func (r *EdgeRepository) Create(ctx context.Context, e *world.Edge) error {
	reqJSON, err := marshalBlob(e.Requirements)
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO edges (id, map_id, from_poi_id, to_poi_id, edge_type, travel_cost, risk, requirements, one_way, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		e.ID.String(),
		e.MapID.String(),
		e.FromPoiID.String(),
		e.ToPoiID.String(),
		string(e.EdgeType),
		e.TravelCost,
		e.Risk,
		reqJSON,
		e.OneWay,
		e.CreatedAt,
	)
	if isUniqueViolation(err) {
		return oops.
			With("map_id", e.MapID.String()).
			With("from_poi_id", e.FromPoiID.String()).
			With("to_poi_id", e.ToPoiID.String()).
			Wrap(world.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create edge").With("id", e.ID.String()).Wrap(err)
	}
	return nil
}

// ListByMap returns all edges in a map.
func (r *EdgeRepository) ListByMap(ctx context.Context, mapID ulid.ULID) ([]*world.Edge, error) {
	return r.list(ctx, `
		SELECT `+edgeColumns+` FROM edges WHERE map_id = $1 ORDER BY id
	`, mapID.String())
}

// ListFrom returns all edges leaving a POI.
func (r *EdgeRepository) ListFrom(ctx context.Context, mapID, poiID ulid.ULID) ([]*world.Edge, error) {
	return r.list(ctx, `
		SELECT `+edgeColumns+` FROM edges WHERE map_id = $1 AND from_poi_id = $2 ORDER BY id
	`, mapID.String(), poiID.String())
}

// ListTo returns all edges arriving at a POI.
func (r *EdgeRepository) ListTo(ctx context.Context, mapID, poiID ulid.ULID) ([]*world.Edge, error) {
	return r.list(ctx, `
		SELECT `+edgeColumns+` FROM edges WHERE map_id = $1 AND to_poi_id = $2 ORDER BY id
	`, mapID.String(), poiID.String())
}

func (r *EdgeRepository) list(ctx context.Context, query string, args ...any) ([]*world.Edge, error) {
	rows, err := store.DBFrom(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, oops.With("operation", "list edges").Wrap(err)
	}
	defer rows.Close()

	edges := make([]*world.Edge, 0)
	for rows.Next() {
		e, err := r.scanEdge(rows)
		if err != nil {
			return nil, oops.With("operation", "scan edge").Wrap(err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate edges").Wrap(err)
	}
	return edges, nil
}

// scanEdge scans a single edge row.
func (r *EdgeRepository) scanEdge(row pgx.Row) (*world.Edge, error) {
	var e world.Edge
	var idStr, mapStr, fromStr, toStr, typeStr string
	var reqJSON []byte

	err := row.Scan(&idStr, &mapStr, &fromStr, &toStr, &typeStr, &e.TravelCost, &e.Risk, &reqJSON, &e.OneWay, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if e.ID, err = parseULID(idStr, "edge id"); err != nil {
		return nil, err
	}
	if e.MapID, err = parseULID(mapStr, "map_id"); err != nil {
		return nil, err
	}
	if e.FromPoiID, err = parseULID(fromStr, "from_poi_id"); err != nil {
		return nil, err
	}
	if e.ToPoiID, err = parseULID(toStr, "to_poi_id"); err != nil {
		return nil, err
	}
	e.EdgeType = world.EdgeType(typeStr)
	if e.Requirements, err = unmarshalBlob(reqJSON); err != nil {
		return nil, err
	}
	return &e, nil
}

// Compile-time interface check.
var _ world.EdgeRepository = (*EdgeRepository)(nil)

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

// PoiRepository implements world.PoiRepository using PostgreSQL.
type PoiRepository struct {
	db store.DB
}

// NewPoiRepository creates a new PoiRepository.
func NewPoiRepository(db store.DB) *PoiRepository {
	return &PoiRepository{db: db}
}

const poiColumns = `id, map_id, poi_key, x, y, type, tags, visibility_policy, state, created_at`

// Get retrieves a POI by ID.
func (r *PoiRepository) Get(ctx context.Context, id ulid.ULID) (*world.Poi, error) {
	p, err := r.scanPoi(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+poiColumns+` FROM pois WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get poi").With("id", id.String()).Wrap(err)
	}
	return p, nil
}

// GetByKey retrieves a POI by its key within a map.
func (r *PoiRepository) GetByKey(ctx context.Context, mapID ulid.ULID, poiKey string) (*world.Poi, error) {
	p, err := r.scanPoi(store.DBFrom(ctx, r.db).QueryRow(ctx, `
		SELECT `+poiColumns+` FROM pois WHERE map_id = $1 AND poi_key = $2
	`, mapID.String(), poiKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("map_id", mapID.String()).With("poi_key", poiKey).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get poi by key").With("poi_key", poiKey).Wrap(err)
	}
	return p, nil
}

// Create persists a new POI. A duplicate (map, poi_key) pair is reported as
// world.ErrAlreadyExists.
func (r *PoiRepository) Create(ctx context.Context, p *world.Poi) error {
	stateJSON, err := marshalBlob(p.State)
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO pois (id, map_id, poi_key, x, y, type, tags, visibility_policy, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		p.ID.String(),
		p.MapID.String(),
		p.PoiKey,
		p.X,
		p.Y,
		string(p.Type),
		p.Tags,
		string(p.VisibilityPolicy),
		stateJSON,
		p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return oops.With("map_id", p.MapID.String()).With("poi_key", p.PoiKey).Wrap(world.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create poi").With("id", p.ID.String()).Wrap(err)
	}
	return nil
}

// ListByMap returns all POIs in a map.
func (r *PoiRepository) ListByMap(ctx context.Context, mapID ulid.ULID) ([]*world.Poi, error) {
	rows, err := store.DBFrom(ctx, r.db).Query(ctx, `
		SELECT `+poiColumns+` FROM pois WHERE map_id = $1 ORDER BY poi_key
	`, mapID.String())
	if err != nil {
		return nil, oops.With("operation", "list pois").With("map_id", mapID.String()).Wrap(err)
	}
	defer rows.Close()
	return r.scanPois(rows)
}

// ListByIDs returns the POIs with the given ids.
func (r *PoiRepository) ListByIDs(ctx context.Context, ids []ulid.ULID) ([]*world.Poi, error) {
	if len(ids) == 0 {
		return []*world.Poi{}, nil
	}

	rows, err := store.DBFrom(ctx, r.db).Query(ctx, `
		SELECT `+poiColumns+` FROM pois WHERE id = ANY($1) ORDER BY poi_key
	`, ulidsToStrings(ids))
	if err != nil {
		return nil, oops.With("operation", "list pois by ids").Wrap(err)
	}
	defer rows.Close()
	return r.scanPois(rows)
}

// scanPoi scans a single POI row.
func (r *PoiRepository) scanPoi(row pgx.Row) (*world.Poi, error) {
	var p world.Poi
	var idStr, mapStr, typeStr, policyStr string
	var stateJSON []byte

	err := row.Scan(&idStr, &mapStr, &p.PoiKey, &p.X, &p.Y, &typeStr, &p.Tags, &policyStr, &stateJSON, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if p.ID, err = parseULID(idStr, "poi id"); err != nil {
		return nil, err
	}
	if p.MapID, err = parseULID(mapStr, "map_id"); err != nil {
		return nil, err
	}
	p.Type = world.PoiType(typeStr)
	p.VisibilityPolicy = world.VisibilityPolicy(policyStr)
	if p.State, err = unmarshalBlob(stateJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPois scans multiple POI rows.
func (r *PoiRepository) scanPois(rows pgx.Rows) ([]*world.Poi, error) {
	pois := make([]*world.Poi, 0)
	for rows.Next() {
		p, err := r.scanPoi(rows)
		if err != nil {
			return nil, oops.With("operation", "scan poi").Wrap(err)
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate pois").Wrap(err)
	}
	return pois, nil
}

// Compile-time interface check.
var _ world.PoiRepository = (*PoiRepository)(nil)

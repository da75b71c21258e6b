// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package worldtest provides in-memory repository fakes for testing the
// world and travel services without a database. The fakes enforce the same
// uniqueness rules as the schema so idempotency paths are exercised.
package worldtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/eventlog"
	"github.com/worldrift/worldrift/internal/world"
)

// Store holds the shared in-memory state behind all fake repositories. A
// single mutex guards everything; tests are not throughput sensitive.
type Store struct {
	mu       sync.Mutex
	worlds   map[ulid.ULID]*world.WorldInstance
	maps     map[ulid.ULID]*world.MapInstance
	pois     map[ulid.ULID]*world.Poi
	edges    map[ulid.ULID]*world.Edge
	entities map[ulid.ULID]*world.EntityState
	events   []*eventlog.Event

	Worlds   *WorldRepo
	Maps     *MapRepo
	Pois     *PoiRepo
	Edges    *EdgeRepo
	Entities *EntityRepo
	Events   *EventLog
}

// NewStore creates an empty in-memory store with all fake repositories
// wired to it.
func NewStore() *Store {
	s := &Store{
		worlds:   make(map[ulid.ULID]*world.WorldInstance),
		maps:     make(map[ulid.ULID]*world.MapInstance),
		pois:     make(map[ulid.ULID]*world.Poi),
		edges:    make(map[ulid.ULID]*world.Edge),
		entities: make(map[ulid.ULID]*world.EntityState),
	}
	s.Worlds = &WorldRepo{s: s}
	s.Maps = &MapRepo{s: s}
	s.Pois = &PoiRepo{s: s}
	s.Edges = &EdgeRepo{s: s}
	s.Entities = &EntityRepo{s: s}
	s.Events = &EventLog{s: s}
	return s
}

// InTransaction satisfies world.Transactor by calling fn directly; the
// in-memory store has no transactions.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Compile-time interface checks.
var (
	_ world.WorldRepository  = (*WorldRepo)(nil)
	_ world.MapRepository    = (*MapRepo)(nil)
	_ world.PoiRepository    = (*PoiRepo)(nil)
	_ world.EdgeRepository   = (*EdgeRepo)(nil)
	_ world.EntityRepository = (*EntityRepo)(nil)
	_ eventlog.Repository    = (*EventLog)(nil)
	_ world.Transactor       = (*Store)(nil)
)

// WorldRepo is an in-memory world.WorldRepository.
type WorldRepo struct{ s *Store }

func (r *WorldRepo) Get(_ context.Context, id ulid.ULID) (*world.WorldInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.worlds[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *WorldRepo) GetByOwner(_ context.Context, ownerID ulid.ULID) (*world.WorldInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.worlds {
		if w.OwnerID == ownerID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, world.ErrNotFound
}

func (r *WorldRepo) Create(_ context.Context, w *world.WorldInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.worlds {
		if existing.OwnerID == w.OwnerID {
			return world.ErrAlreadyExists
		}
	}
	cp := *w
	r.s.worlds[w.ID] = &cp
	return nil
}

func (r *WorldRepo) Update(_ context.Context, w *world.WorldInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.worlds[w.ID]
	if !ok {
		return world.ErrNotFound
	}
	// Mirror the schema: every update bumps the revision.
	w.Revision = existing.Revision + 1
	cp := *w
	r.s.worlds[w.ID] = &cp
	return nil
}

// MapRepo is an in-memory world.MapRepository.
type MapRepo struct{ s *Store }

func (r *MapRepo) Get(_ context.Context, worldID, id ulid.ULID) (*world.MapInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.maps[id]
	if !ok || m.WorldID != worldID {
		return nil, world.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MapRepo) GetByKey(_ context.Context, worldID ulid.ULID, mapKey string) (*world.MapInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.maps {
		if m.WorldID == worldID && m.MapKey == mapKey {
			cp := *m
			return &cp, nil
		}
	}
	return nil, world.ErrNotFound
}

func (r *MapRepo) Create(_ context.Context, m *world.MapInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.maps {
		if existing.WorldID == m.WorldID && existing.MapKey == m.MapKey {
			return world.ErrAlreadyExists
		}
	}
	cp := *m
	r.s.maps[m.ID] = &cp
	return nil
}

func (r *MapRepo) ListByWorld(_ context.Context, worldID ulid.ULID) ([]*world.MapInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*world.MapInstance
	for _, m := range r.s.maps {
		if m.WorldID == worldID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// PoiRepo is an in-memory world.PoiRepository.
type PoiRepo struct{ s *Store }

func (r *PoiRepo) Get(_ context.Context, id ulid.ULID) (*world.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pois[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PoiRepo) GetByKey(_ context.Context, mapID ulid.ULID, poiKey string) (*world.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.pois {
		if p.MapID == mapID && p.PoiKey == poiKey {
			cp := *p
			return &cp, nil
		}
	}
	return nil, world.ErrNotFound
}

func (r *PoiRepo) Create(_ context.Context, p *world.Poi) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.pois {
		if existing.MapID == p.MapID && existing.PoiKey == p.PoiKey {
			return world.ErrAlreadyExists
		}
	}
	cp := *p
	r.s.pois[p.ID] = &cp
	return nil
}

func (r *PoiRepo) ListByMap(_ context.Context, mapID ulid.ULID) ([]*world.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*world.Poi
	for _, p := range r.s.pois {
		if p.MapID == mapID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *PoiRepo) ListByIDs(_ context.Context, ids []ulid.ULID) ([]*world.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*world.Poi
	for _, id := range ids {
		if p, ok := r.s.pois[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// EdgeRepo is an in-memory world.EdgeRepository.
type EdgeRepo struct{ s *Store }

func (r *EdgeRepo) Find(_ context.Context, mapID, fromPoiID, toPoiID ulid.ULID) (*world.Edge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.edges {
		if e.MapID == mapID && e.FromPoiID == fromPoiID && e.ToPoiID == toPoiID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, world.ErrNotFound
}

func (r *EdgeRepo) Create(_ context.Context, e *world.Edge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.edges {
		if existing.MapID == e.MapID && existing.FromPoiID == e.FromPoiID && existing.ToPoiID == e.ToPoiID {
			return world.ErrAlreadyExists
		}
	}
	cp := *e
	r.s.edges[e.ID] = &cp
	return nil
}

func (r *EdgeRepo) ListByMap(_ context.Context, mapID ulid.ULID) ([]*world.Edge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*world.Edge
	for _, e := range r.s.edges {
		if e.MapID == mapID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *EdgeRepo) ListFrom(_ context.Context, mapID, poiID ulid.ULID) ([]*world.Edge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*world.Edge
	for _, e := range r.s.edges {
		if e.MapID == mapID && e.FromPoiID == poiID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *EdgeRepo) ListTo(_ context.Context, mapID, poiID ulid.ULID) ([]*world.Edge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*world.Edge
	for _, e := range r.s.edges {
		if e.MapID == mapID && e.ToPoiID == poiID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// EntityRepo is an in-memory world.EntityRepository.
type EntityRepo struct{ s *Store }

func (r *EntityRepo) Get(_ context.Context, id ulid.ULID) (*world.EntityState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entities[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *EntityRepo) GetOwnerOffline(_ context.Context, worldID, ownerID ulid.ULID) (*world.EntityState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entities {
		if e.WorldID == worldID && e.OwnerID == ownerID && e.Type == world.EntityPlayerOffline {
			cp := *e
			return &cp, nil
		}
	}
	return nil, world.ErrNotFound
}

func (r *EntityRepo) Create(_ context.Context, e *world.EntityState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	r.s.entities[e.ID] = &cp
	return nil
}

func (r *EntityRepo) UpdateLocation(_ context.Context, id, mapID, poiID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entities[id]
	if !ok {
		return world.ErrNotFound
	}
	e.MapID = mapID
	e.PoiID = poiID
	return nil
}

func (r *EntityRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entities[id]; !ok {
		return world.ErrNotFound
	}
	delete(r.s.entities, id)
	return nil
}

// EventLog is an in-memory eventlog.Repository.
type EventLog struct{ s *Store }

func (l *EventLog) Append(_ context.Context, e *eventlog.Event) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	cp := *e
	l.s.events = append(l.s.events, &cp)
	return nil
}

func (l *EventLog) ListByActorSince(_ context.Context, worldID, actorEntityID ulid.ULID, since time.Time) ([]*eventlog.Event, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []*eventlog.Event
	for _, e := range l.s.events {
		if e.WorldID != worldID || e.ActorEntityID == nil || *e.ActorEntityID != actorEntityID {
			continue
		}
		if e.CreatedAt.Before(since) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// AllEvents returns every appended event, oldest first. Test helper.
func (l *EventLog) AllEvents() []*eventlog.Event {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := make([]*eventlog.Event, len(l.s.events))
	copy(out, l.s.events)
	return out
}

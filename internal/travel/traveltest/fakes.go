// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package traveltest provides in-memory repository fakes for testing the
// travel service and the HTTP API without a database.
package traveltest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

// Store holds the shared in-memory state behind all fake travel
// repositories.
type Store struct {
	mu       sync.Mutex
	profiles map[ulid.ULID]*travel.TravelProfile
	sessions map[ulid.ULID]*travel.TravelSession
	reports  map[ulid.ULID]*travel.InvasionReport
	players  map[ulid.ULID]*travel.Player

	Profiles *ProfileRepo
	Sessions *SessionRepo
	Reports  *ReportRepo
	Players  *PlayerDirectory
}

// NewStore creates an empty in-memory store with all fake repositories
// wired to it.
func NewStore() *Store {
	s := &Store{
		profiles: make(map[ulid.ULID]*travel.TravelProfile),
		sessions: make(map[ulid.ULID]*travel.TravelSession),
		reports:  make(map[ulid.ULID]*travel.InvasionReport),
		players:  make(map[ulid.ULID]*travel.Player),
	}
	s.Profiles = &ProfileRepo{s: s}
	s.Sessions = &SessionRepo{s: s}
	s.Reports = &ReportRepo{s: s}
	s.Players = &PlayerDirectory{s: s}
	return s
}

// Compile-time interface checks.
var (
	_ travel.ProfileRepository = (*ProfileRepo)(nil)
	_ travel.SessionRepository = (*SessionRepo)(nil)
	_ travel.ReportRepository  = (*ReportRepo)(nil)
	_ travel.PlayerDirectory   = (*PlayerDirectory)(nil)
	_ travel.Transactor        = (*Store)(nil)
)

// InTransaction satisfies travel.Transactor by calling fn directly.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// AddPlayer registers a player in the fake directory.
func (s *Store) AddPlayer(p *travel.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.players[p.ID] = &cp
}

// ProfileRepo is an in-memory travel.ProfileRepository.
type ProfileRepo struct{ s *Store }

func (r *ProfileRepo) Get(_ context.Context, playerID ulid.ULID) (*travel.TravelProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[playerID]
	if !ok {
		return nil, world.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProfileRepo) Create(_ context.Context, p *travel.TravelProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.PlayerID]; ok {
		return world.ErrAlreadyExists
	}
	cp := *p
	r.s.profiles[p.PlayerID] = &cp
	return nil
}

func (r *ProfileRepo) Grant(_ context.Context, playerID ulid.ULID, points int, signinAt time.Time) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[playerID]
	if !ok {
		return 0, false, world.ErrNotFound
	}
	if p.SignedInOn(signinAt) {
		return p.TravelPoints, false, nil
	}
	p.TravelPoints += points
	at := signinAt
	p.LastSigninAt = &at
	p.UpdatedAt = time.Now()
	return p.TravelPoints, true, nil
}

func (r *ProfileRepo) Consume(_ context.Context, playerID ulid.ULID, cost int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[playerID]
	if !ok {
		return 0, travel.ErrInsufficientPoints
	}
	if p.TravelPoints < cost {
		return 0, travel.ErrInsufficientPoints
	}
	p.TravelPoints -= cost
	p.UpdatedAt = time.Now()
	return p.TravelPoints, nil
}

// SessionRepo is an in-memory travel.SessionRepository.
type SessionRepo struct{ s *Store }

func (r *SessionRepo) Get(_ context.Context, id ulid.ULID) (*travel.TravelSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *SessionRepo) Create(_ context.Context, sess *travel.TravelSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sess
	r.s.sessions[sess.ID] = &cp
	return nil
}

func (r *SessionRepo) Update(_ context.Context, sess *travel.TravelSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.ID]; !ok {
		return world.ErrNotFound
	}
	cp := *sess
	r.s.sessions[sess.ID] = &cp
	return nil
}

// ReportRepo is an in-memory travel.ReportRepository.
type ReportRepo struct{ s *Store }

func (r *ReportRepo) Create(_ context.Context, report *travel.InvasionReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *report
	r.s.reports[report.ID] = &cp
	return nil
}

func (r *ReportRepo) ListByVictim(_ context.Context, victimID ulid.ULID, limit int) ([]*travel.InvasionReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*travel.InvasionReport
	for _, report := range r.s.reports {
		if report.VictimID == victimID {
			cp := *report
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReportRepo) MarkRead(_ context.Context, id, victimID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	report, ok := r.s.reports[id]
	if !ok || report.VictimID != victimID {
		return world.ErrNotFound
	}
	report.Unread = false
	return nil
}

// PlayerDirectory is an in-memory travel.PlayerDirectory.
type PlayerDirectory struct{ s *Store }

func (d *PlayerDirectory) Get(_ context.Context, id ulid.ULID) (*travel.Player, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	p, ok := d.s.players[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *PlayerDirectory) GetByUsername(_ context.Context, username string) (*travel.Player, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	for _, p := range d.s.players {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, world.ErrNotFound
}

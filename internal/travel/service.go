// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package travel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/eventlog"
	"github.com/worldrift/worldrift/internal/world"
)

// Deps are the collaborators a travel Service needs.
type Deps struct {
	Profiles    ProfileRepository
	Sessions    SessionRepository
	Reports     ReportRepository
	Players     PlayerDirectory
	Provisioner *world.Provisioner
	Worlds      world.WorldRepository
	Entities    world.EntityRepository
	Events      eventlog.Repository
	Tx          Transactor
}

// Service implements the travel lifecycle: daily sign-in, starting and
// ending visits, and the invasion report inbox.
type Service struct {
	deps         Deps
	pointsPerDay int
	startCost    int
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNow overrides the service clock. Used by tests to pin the day.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a travel Service. pointsPerDay is the daily sign-in
// grant; startCost is charged when a visit starts.
func NewService(deps Deps, pointsPerDay, startCost int, opts ...Option) *Service {
	s := &Service{
		deps:         deps,
		pointsPerDay: pointsPerDay,
		startCost:    startCost,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SigninResult reports the outcome of a daily sign-in attempt.
type SigninResult struct {
	SignedIn bool
	Points   int
}

// Signin grants the daily travel points once per UTC calendar day. A repeat
// call on the same day is a no-op reporting SignedIn=false with the
// unchanged balance. The profile is created lazily.
func (s *Service) Signin(ctx context.Context, playerID ulid.ULID) (*SigninResult, error) {
	errCtx := oops.Code("SIGNIN_FAILED").With("player_id", playerID.String())

	var result SigninResult
	err := s.deps.Tx.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ensureProfile(ctx, playerID); err != nil {
			return err
		}

		// The once-per-day guard lives in the Grant statement itself, so
		// two concurrent sign-ins on the same day grant only once.
		points, granted, err := s.deps.Profiles.Grant(ctx, playerID, s.pointsPerDay, s.now())
		if err != nil {
			return err
		}
		result = SigninResult{SignedIn: granted, Points: points}
		return nil
	})
	if err != nil {
		return nil, errCtx.Wrap(err)
	}
	return &result, nil
}

// ProfileView is the player-facing view of a travel profile.
type ProfileView struct {
	Points        int
	SignedInToday bool
}

// Profile reports the player's balance and whether they signed in today.
// A missing profile reads as a zero balance.
func (s *Service) Profile(ctx context.Context, playerID ulid.ULID) (*ProfileView, error) {
	profile, err := s.deps.Profiles.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, world.ErrNotFound) {
			return &ProfileView{}, nil
		}
		return nil, oops.Code("PROFILE_FAILED").Wrap(err)
	}
	return &ProfileView{
		Points:        profile.TravelPoints,
		SignedInToday: profile.SignedInOn(s.now()),
	}, nil
}

// StartResult is everything the client needs to begin a visit.
type StartResult struct {
	SessionID     ulid.ULID
	TargetWorldID ulid.ULID
	EntryMapID    ulid.ULID
	EntryPoiID    ulid.ULID
	ReturnAnchor  ReturnAnchor
	PointsLeft    int
}

// Start begins a visit into the target player's world. Both worlds are
// provisioned first, the entry gate is checked, one travel point is
// consumed, and the visitor entity plus session are created — all in a
// single transaction, so a failure at any step leaves no partial state.
func (s *Service) Start(ctx context.Context, visitorID ulid.ULID, targetUsername, inviteCode string) (*StartResult, error) {
	errCtx := oops.Code("TRAVEL_START_FAILED").
		With("visitor_id", visitorID.String()).
		With("target_username", targetUsername)

	target, err := s.deps.Players.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, errCtx.Wrap(err)
	}
	if target.ID == visitorID {
		return nil, errCtx.Wrap(ErrSelfTravel)
	}

	var result StartResult
	err = s.deps.Tx.InTransaction(ctx, func(ctx context.Context) error {
		homeWorld, homeMap, homeSafehouse, err := s.deps.Provisioner.EnsureWorld(ctx, visitorID, nil)
		if err != nil {
			return err
		}
		targetWorld, targetMap, targetSafehouse, err := s.deps.Provisioner.EnsureWorld(ctx, target.ID, nil)
		if err != nil {
			return err
		}

		if err := world.CanEnterWorld(targetWorld, inviteCode); err != nil {
			return err
		}

		remaining, err := s.deps.Profiles.Consume(ctx, visitorID, s.startCost)
		if err != nil {
			return err
		}

		entity, err := world.NewEntityState(targetWorld.ID, targetMap.ID, targetSafehouse.ID, visitorID, world.EntityPlayerOnline)
		if err != nil {
			return err
		}
		entity.Stats = map[string]any{"hp": 10, "realm": "mortal"}
		entity.StateFlags = map[string]any{"state": "visitor"}
		if err := s.deps.Entities.Create(ctx, entity); err != nil {
			return err
		}

		anchor := ReturnAnchor{
			WorldID: homeWorld.ID,
			MapID:   homeMap.ID,
			PoiID:   homeSafehouse.ID,
		}
		session := NewTravelSession(visitorID, targetWorld.ID, targetMap.ID, targetSafehouse.ID, anchor)
		entityID := entity.ID
		session.VisitorEntityID = &entityID
		if err := s.deps.Sessions.Create(ctx, session); err != nil {
			return err
		}

		event := eventlog.New(targetWorld.ID, targetMap.ID, eventlog.EventTravelStart)
		poiID := targetSafehouse.ID
		event.ActorEntityID = &entityID
		event.PoiID = &poiID
		event.Payload = map[string]any{"session_id": session.ID.String()}
		event.Verdict = eventlog.OKVerdict()
		if err := s.deps.Events.Append(ctx, event); err != nil {
			return err
		}

		result = StartResult{
			SessionID:     session.ID,
			TargetWorldID: targetWorld.ID,
			EntryMapID:    targetMap.ID,
			EntryPoiID:    targetSafehouse.ID,
			ReturnAnchor:  anchor,
			PointsLeft:    remaining,
		}
		return nil
	})
	if err != nil {
		return nil, errCtx.Wrap(err)
	}

	slog.InfoContext(ctx, "travel started",
		"session_id", result.SessionID.String(),
		"visitor_id", visitorID.String(),
		"target_world_id", result.TargetWorldID.String())
	return &result, nil
}

// EndResult reports the outcome of ending a session.
type EndResult struct {
	AlreadyEnded bool
	ReturnAnchor ReturnAnchor
}

// End terminates the caller's session: marks it ended, appends a travel_end
// event, aggregates the session's event trail into one unread invasion
// report for the world owner, and deletes the transient visitor entity.
// Ending an already-ended session succeeds as a no-op. A session belonging
// to another player reads as not found.
func (s *Service) End(ctx context.Context, callerID, sessionID ulid.ULID) (*EndResult, error) {
	errCtx := oops.Code("TRAVEL_END_FAILED").
		With("caller_id", callerID.String()).
		With("session_id", sessionID.String())

	var result EndResult
	err := s.deps.Tx.InTransaction(ctx, func(ctx context.Context) error {
		session, err := s.deps.Sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.VisitorID != callerID {
			// Do not reveal foreign sessions.
			return world.ErrNotFound
		}

		result.ReturnAnchor = session.ReturnAnchor
		if !session.IsActive() {
			result.AlreadyEnded = true
			return nil
		}

		now := s.now()
		session.End(now)
		if err := s.deps.Sessions.Update(ctx, session); err != nil {
			return err
		}

		targetWorld, err := s.deps.Worlds.Get(ctx, session.TargetWorldID)
		if err != nil {
			return err
		}

		if session.VisitorEntityID != nil {
			if err := s.appendTravelEnd(ctx, session); err != nil {
				return err
			}

			events, err := s.deps.Events.ListByActorSince(ctx, session.TargetWorldID, *session.VisitorEntityID, session.StartedAt)
			if err != nil {
				return err
			}
			report := NewInvasionReport(targetWorld.ID, targetWorld.OwnerID, session.ID, BuildSummary(events))
			if err := s.deps.Reports.Create(ctx, report); err != nil {
				return err
			}

			if err := s.deps.Entities.Delete(ctx, *session.VisitorEntityID); err != nil && !errors.Is(err, world.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errCtx.Wrap(err)
	}

	if !result.AlreadyEnded {
		slog.InfoContext(ctx, "travel ended",
			"session_id", sessionID.String(),
			"visitor_id", callerID.String())
	}
	return &result, nil
}

// appendTravelEnd records the travel_end event at the visitor's final
// position, falling back to the entry POI when the entity is already gone.
func (s *Service) appendTravelEnd(ctx context.Context, session *TravelSession) error {
	mapID := session.EntryMapID
	poiID := session.EntryPoiID
	if entity, err := s.deps.Entities.Get(ctx, *session.VisitorEntityID); err == nil {
		mapID = entity.MapID
		poiID = entity.PoiID
	} else if !errors.Is(err, world.ErrNotFound) {
		return err
	}

	event := eventlog.New(session.TargetWorldID, mapID, eventlog.EventTravelEnd)
	event.ActorEntityID = session.VisitorEntityID
	event.PoiID = &poiID
	event.Payload = map[string]any{"session_id": session.ID.String()}
	event.Verdict = eventlog.OKVerdict()
	return s.deps.Events.Append(ctx, event)
}

// ListReports returns the caller's invasion report inbox, newest first,
// limited to ReportInboxLimit entries.
func (s *Service) ListReports(ctx context.Context, victimID ulid.ULID) ([]*InvasionReport, error) {
	reports, err := s.deps.Reports.ListByVictim(ctx, victimID, ReportInboxLimit)
	if err != nil {
		return nil, oops.Code("REPORT_LIST_FAILED").Wrap(err)
	}
	return reports, nil
}

// MarkReportRead flips one of the caller's reports to read.
func (s *Service) MarkReportRead(ctx context.Context, victimID, reportID ulid.ULID) error {
	if err := s.deps.Reports.MarkRead(ctx, reportID, victimID); err != nil {
		return oops.Code("REPORT_READ_FAILED").Wrap(err)
	}
	return nil
}

func (s *Service) ensureProfile(ctx context.Context, playerID ulid.ULID) (*TravelProfile, error) {
	profile, err := s.deps.Profiles.Get(ctx, playerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, world.ErrNotFound) {
		return nil, err
	}

	profile = NewTravelProfile(playerID)
	if err := s.deps.Profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, world.ErrAlreadyExists) {
			return s.deps.Profiles.Get(ctx, playerID)
		}
		return nil, err
	}
	return profile, nil
}

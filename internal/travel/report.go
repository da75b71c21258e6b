// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package travel

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldrift/worldrift/internal/core"
	"github.com/worldrift/worldrift/internal/eventlog"
)

// MaxReportPoiVisits caps how many visited POI ids one report records.
const MaxReportPoiVisits = 200

// ReportInboxLimit is how many recent reports the inbox returns.
const ReportInboxLimit = 50

// ReportSummary is the one-shot aggregation of a session's event trail,
// computed at session end and never recomputed.
type ReportSummary struct {
	EventCounts map[string]int `json:"event_counts"`
	PoiVisits   []string       `json:"poi_visits"`
}

// BuildSummary tallies event counts per type and captures visited POI ids
// in event order, capped at MaxReportPoiVisits.
func BuildSummary(events []*eventlog.Event) ReportSummary {
	summary := ReportSummary{
		EventCounts: make(map[string]int),
		PoiVisits:   []string{},
	}
	for _, e := range events {
		summary.EventCounts[e.Type.String()]++
		if e.PoiID != nil && len(summary.PoiVisits) < MaxReportPoiVisits {
			summary.PoiVisits = append(summary.PoiVisits, e.PoiID.String())
		}
	}
	return summary
}

// InvasionReport tells a world owner what a visitor did while they were
// away. Exactly one report exists per ended session.
type InvasionReport struct {
	ID        ulid.ULID
	WorldID   ulid.ULID
	VictimID  ulid.ULID
	SessionID ulid.ULID
	Summary   ReportSummary
	Unread    bool
	CreatedAt time.Time
}

// NewInvasionReport creates an unread report for the world owner.
func NewInvasionReport(worldID, victimID, sessionID ulid.ULID, summary ReportSummary) *InvasionReport {
	return &InvasionReport{
		ID:        core.NewULID(),
		WorldID:   worldID,
		VictimID:  victimID,
		SessionID: sessionID,
		Summary:   summary,
		Unread:    true,
		CreatedAt: time.Now(),
	}
}

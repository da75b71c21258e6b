// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/store"
	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

// ReportRepository implements travel.ReportRepository using PostgreSQL.
type ReportRepository struct {
	db store.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db store.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a new report.
func (r *ReportRepository) Create(ctx context.Context, report *travel.InvasionReport) error {
	summaryJSON, err := marshalJSONField(report.Summary, "summary")
	if err != nil {
		return err
	}

	_, err = store.DBFrom(ctx, r.db).Exec(ctx, `
		INSERT INTO invasion_reports (id, world_id, victim_id, session_id, summary, unread, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		report.ID.String(),
		report.WorldID.String(),
		report.VictimID.String(),
		report.SessionID.String(),
		summaryJSON,
		report.Unread,
		report.CreatedAt,
	)
	if err != nil {
		return oops.With("operation", "create invasion report").With("id", report.ID.String()).Wrap(err)
	}
	return nil
}

// ListByVictim returns the victim's most recent reports, newest first.
func (r *ReportRepository) ListByVictim(ctx context.Context, victimID ulid.ULID, limit int) ([]*travel.InvasionReport, error) {
	rows, err := store.DBFrom(ctx, r.db).Query(ctx, `
		SELECT id, world_id, victim_id, session_id, summary, unread, created_at
		FROM invasion_reports
		WHERE victim_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, victimID.String(), limit)
	if err != nil {
		return nil, oops.With("operation", "list invasion reports").With("victim_id", victimID.String()).Wrap(err)
	}
	defer rows.Close()

	reports := make([]*travel.InvasionReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, oops.With("operation", "scan invasion report").Wrap(err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate invasion reports").Wrap(err)
	}
	return reports, nil
}

// MarkRead flips a report to read, scoped to the victim.
func (r *ReportRepository) MarkRead(ctx context.Context, id, victimID ulid.ULID) error {
	result, err := store.DBFrom(ctx, r.db).Exec(ctx, `
		UPDATE invasion_reports SET unread = FALSE WHERE id = $1 AND victim_id = $2
	`, id.String(), victimID.String())
	if err != nil {
		return oops.With("operation", "mark report read").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

func scanReport(row pgx.Row) (*travel.InvasionReport, error) {
	var report travel.InvasionReport
	var idStr, worldStr, victimStr, sessionStr string
	var summaryJSON []byte

	err := row.Scan(&idStr, &worldStr, &victimStr, &sessionStr, &summaryJSON, &report.Unread, &report.CreatedAt)
	if err != nil {
		return nil, err
	}

	if report.ID, err = parseULID(idStr, "report id"); err != nil {
		return nil, err
	}
	if report.WorldID, err = parseULID(worldStr, "world_id"); err != nil {
		return nil, err
	}
	if report.VictimID, err = parseULID(victimStr, "victim_id"); err != nil {
		return nil, err
	}
	if report.SessionID, err = parseULID(sessionStr, "session_id"); err != nil {
		return nil, err
	}
	if err = unmarshalJSONField(summaryJSON, &report.Summary, "summary"); err != nil {
		return nil, err
	}
	return &report, nil
}

// Compile-time interface check.
var _ travel.ReportRepository = (*ReportRepository)(nil)

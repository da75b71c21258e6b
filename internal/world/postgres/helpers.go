// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package postgres

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// isUniqueViolation reports whether err is a unique-constraint violation.
// Repositories map it to world.ErrAlreadyExists so idempotent callers can
// re-read the winning row.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation
}

// parseULID parses a required ULID column.
func parseULID(s, fieldName string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "parse "+fieldName).With(fieldName, s).Wrap(err)
	}
	return id, nil
}

// marshalBlob serializes a JSONB state blob. Empty maps store as NULL.
func marshalBlob(data map[string]any) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, oops.With("operation", "marshal state blob").Wrap(err)
	}
	return b, nil
}

// unmarshalBlob deserializes a JSONB state blob. NULL reads as nil.
func unmarshalBlob(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, oops.With("operation", "unmarshal state blob").Wrap(err)
	}
	return result, nil
}

// ulidsToStrings converts ULIDs to their string form for SQL parameters.
func ulidsToStrings(ids []ulid.ULID) []string {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strs
}

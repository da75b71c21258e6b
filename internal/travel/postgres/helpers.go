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

// parseOptionalULID parses an optional ULID string pointer into a ULID
// pointer. Returns nil if the input is nil.
func parseOptionalULID(strPtr *string, fieldName string) (*ulid.ULID, error) {
	if strPtr == nil {
		return nil, nil
	}
	id, err := parseULID(*strPtr, fieldName)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ulidPtrToString converts a ULID pointer to a string pointer for SQL
// parameters.
func ulidPtrToString(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// marshalJSONField serializes a JSONB column value.
func marshalJSONField(v any, fieldName string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, oops.With("operation", "marshal "+fieldName).Wrap(err)
	}
	return b, nil
}

// unmarshalJSONField deserializes a JSONB column value into out.
func unmarshalJSONField(data []byte, out any, fieldName string) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return oops.With("operation", "unmarshal "+fieldName).Wrap(err)
	}
	return nil
}

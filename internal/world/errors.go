// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package world

import (
	"errors"
	"fmt"
)

// ValidationError describes an invalid field on a domain object.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Sentinel errors for the travel and movement operations. Repositories and
// services wrap these with oops for context; callers branch with errors.Is.
var (
	// ErrNotFound is returned when a world, map, POI, edge, or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by Create when a uniqueness constraint is hit.
	// Idempotent callers treat it as "re-read the existing row".
	ErrAlreadyExists = errors.New("already exists")

	// ErrAccessDenied is returned when the visibility policy denies entry or view.
	ErrAccessDenied = errors.New("access denied")

	// ErrNoViewerEntity is returned when no acting entity can be resolved for a caller.
	ErrNoViewerEntity = errors.New("no viewer entity")

	// ErrEntityNotInWorld is returned when the acting entity belongs to a different world.
	ErrEntityNotInWorld = errors.New("entity not in world")

	// ErrPathNotFound is returned when no edge connects the current POI to the destination.
	ErrPathNotFound = errors.New("path not found")

	// ErrPoiNotFound is returned when the destination POI does not exist in the entity's map.
	ErrPoiNotFound = errors.New("poi not found")

	// ErrUnsupportedAction is returned for any action type other than move.
	ErrUnsupportedAction = errors.New("unsupported action")
)

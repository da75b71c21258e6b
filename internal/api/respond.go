// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

// errorBody is the machine-readable error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// respondError maps a domain error to an HTTP status and error envelope.
// The code field comes from the oops error chain when present.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := codeFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, r, status, code, publicMessage(err, status))
}

func statusFor(err error) int {
	var vErr *world.ValidationError
	switch {
	case errors.Is(err, world.ErrNotFound),
		errors.Is(err, world.ErrPoiNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, travel.ErrInsufficientPoints),
		errors.Is(err, travel.ErrSelfTravel),
		errors.Is(err, world.ErrPathNotFound):
		return http.StatusConflict
	case errors.Is(err, world.ErrInvalidVisibility),
		errors.Is(err, world.ErrUnsupportedAction),
		errors.Is(err, world.ErrNoViewerEntity),
		errors.Is(err, world.ErrEntityNotInWorld),
		errors.As(err, &vErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	switch {
	case errors.Is(err, world.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, world.ErrAccessDenied):
		return "ACCESS_DENIED"
	case errors.Is(err, world.ErrInvalidVisibility):
		return "INVALID_VISIBILITY"
	case errors.Is(err, travel.ErrInsufficientPoints):
		return "INSUFFICIENT_POINTS"
	case errors.Is(err, travel.ErrSelfTravel):
		return "SELF_TRAVEL"
	default:
		return "INTERNAL"
	}
}

// publicMessage keeps internal error detail out of 5xx responses.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close() //nolint:errcheck // read-side close
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return oops.Code("BAD_REQUEST").Wrap(err)
	}
	return nil
}

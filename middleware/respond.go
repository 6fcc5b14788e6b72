// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/store"
)

// JSONResponse writes data as the JSON body with the given status
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes an error body for failures outside the workflow,
// such as malformed JSON or a bad caller key
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// KindErrorResponse writes a JSON error response for a rejected workflow
// operation; message is the rejection reason, unchanged.
func KindErrorResponse(w http.ResponseWriter, statusCode int, kind, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Kind:    kind,
		Message: message,
	})
}

// StatusForError maps workflow and storage errors to HTTP status codes
func StatusForError(err error) int {
	switch {
	case errors.Is(err, election.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, election.ErrUnknownCandidate), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, election.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, election.ErrInvalidPhase),
		errors.Is(err, election.ErrAlreadyRegistered),
		errors.Is(err, election.ErrAlreadyVoted),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WorkflowErrorResponse reports err from a repository call. Workflow
// rejections keep their kind and reason; anything unexpected is logged and
// hidden behind a generic 500.
func WorkflowErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)

	if kind := election.KindName(err); kind != "" {
		KindErrorResponse(w, status, kind, election.Reason(err))
		return
	}

	switch status {
	case http.StatusNotFound:
		ErrorResponse(w, status, "Election not found")
	case http.StatusConflict:
		ErrorResponse(w, status, "Election was modified concurrently, retry")
	default:
		slog.Error("election operation failed", "election_id", r.PathValue("id"), "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}

// ParseJSONBody decodes the request body into v and closes it. Unknown
// fields are ignored.
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

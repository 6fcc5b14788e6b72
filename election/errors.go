// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "errors"

// Sentinel errors, one per failure kind. Every *Error unwraps to one of these.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPhase      = errors.New("invalid phase")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrAlreadyVoted      = errors.New("already voted")
	ErrUnknownCandidate  = errors.New("unknown candidate")
	ErrInvalidIdentity   = errors.New("invalid identity")
)

const (
	reasonNotAdmin         = "the caller of this function must be the administrator"
	reasonNotVoter         = "the caller of this function must be a registered voter"
	reasonVoterRegistered  = "the voter is already registered"
	reasonCandidateExists  = "the candidate is already registered"
	reasonAlreadyVoted     = "the voter has already voted"
	reasonUnknownCandidate = "the candidate does not exist"
	reasonEmptyIdentity    = "identity must not be empty"
	reasonEmptyCandidateID = "candidate id must not be empty"
)

// Error is a rejected operation. Reason is the human-readable message
// surfaced to callers unchanged.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func fail(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Reason extracts the rejection reason from err, or returns err.Error() for
// errors that did not come from a workflow operation.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}

// KindName returns a stable machine-readable name for the failure kind of
// err, or "" if err is not a workflow error.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrInvalidPhase):
		return "InvalidPhase"
	case errors.Is(err, ErrAlreadyRegistered):
		return "AlreadyRegistered"
	case errors.Is(err, ErrAlreadyVoted):
		return "AlreadyVoted"
	case errors.Is(err, ErrUnknownCandidate):
		return "UnknownCandidate"
	case errors.Is(err, ErrInvalidIdentity):
		return "InvalidIdentity"
	}
	return ""
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/quickly-elect/election"
)

// Request headers carrying the caller identity and its key
const (
	HeaderCallerIdentity = "X-Caller-Identity"
	HeaderCallerKey      = "X-Caller-Key"
)

// Request types

type CreateElectionRequest struct {
	Title string `json:"title"`
	Admin string `json:"admin"`

	// nil falls back to the server default
	CandidateSelfRegistration *bool `json:"candidate_self_registration,omitempty"`
}

type RegisterVoterRequest struct {
	Identity string `json:"identity"`
}

type RegisterCandidateRequest struct {
	CandidateID string `json:"candidate_id"`
	Description string `json:"description"`
}

type VoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	Admin      string `json:"admin"`
	AdminKey   string `json:"admin_key"`
}

type RegisterVoterResponse struct {
	Identity string `json:"identity"`
	VoterKey string `json:"voter_key"`
}

type WorkflowStatusResponse struct {
	WorkflowStatus int    `json:"workflow_status"`
	Phase          string `json:"phase"`
}

type TransitionResponse struct {
	PreviousStatus int    `json:"previous_status"`
	WorkflowStatus int    `json:"workflow_status"`
	Phase          string `json:"phase"`
}

type AdminResponse struct {
	Admin string `json:"admin"`
}

type IsAdminResponse struct {
	Identity string `json:"identity"`
	IsAdmin  bool   `json:"is_admin"`
}

type VoteResponse struct {
	CandidateID string `json:"candidate_id"`
	Message     string `json:"message"`
}

type CandidatesResponse struct {
	Candidates []election.Candidate `json:"candidates"`

	// vote counts are zeroed until the tally is complete
	CountsSealed bool `json:"counts_sealed"`
}

type ResultsResponse struct {
	Election Election        `json:"election"`
	Result   election.Result `json:"result"`
}

type EventsResponse struct {
	Events []Event `json:"events"`
}

// Domain types

type Election struct {
	ID                        string    `json:"id"`
	Title                     string    `json:"title"`
	Admin                     string    `json:"admin"`
	WorkflowStatus            int       `json:"workflow_status"`
	Phase                     string    `json:"phase"`
	CandidateSelfRegistration bool      `json:"candidate_self_registration"`
	Version                   int       `json:"version"`
	VoterCount                int       `json:"voter_count"`
	CandidateCount            int       `json:"candidate_count"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// Event is one row of the election journal
type Event struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"election_id"`
	Seq        int       `json:"seq"`
	Kind       string    `json:"kind"`
	Actor      string    `json:"actor"`
	Subject    string    `json:"subject,omitempty"`
	PhaseFrom  int       `json:"phase_from"`
	PhaseTo    int       `json:"phase_to"`
	OriginHash *string   `json:"-"` // Never expose in JSON
	CreatedAt  time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

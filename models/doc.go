// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, admin, candidate_self_registration
  - RegisterVoterRequest: identity
  - RegisterCandidateRequest: candidate_id, description
  - VoteRequest: candidate_id

# Response Types

Types for JSON responses:

  - CreateElectionResponse: election_id, admin, admin_key
  - RegisterVoterResponse: identity, voter_key
  - WorkflowStatusResponse: workflow_status, phase
  - TransitionResponse: previous_status, workflow_status, phase
  - IsAdminResponse: identity, is_admin
  - CandidatesResponse, ResultsResponse, EventsResponse
  - ErrorResponse: error, kind, message

# Domain Types

  - Election: election metadata and current phase
  - Event: one entry of the election journal

Voter, Candidate and Result come from package election.

# Headers

	X-Caller-Identity  who is calling
	X-Caller-Key       proof issued for that identity
*/
package models

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Elect API.

# Handler Types

Each handler is a struct with a repository and config:

  - ElectionHandler: Election creation, queries and phase transitions
  - VotingHandler: Voter and candidate registration, voting
  - ResultsHandler: Candidates, results and the event journal

Handlers are created via constructor functions that accept *sql.DB and Config:

	electionHandler := handlers.NewElectionHandler(db, cfg)

# Caller Authentication

Mutating requests name the caller in X-Caller-Identity and prove it with
X-Caller-Key, an HMAC of the election ID and identity. The administrator
receives a key when creating the election; each voter key is returned by
voter registration. A missing or wrong key is rejected with 401 before the
workflow is consulted.

# Workflow Errors

Rejected operations keep their reason string verbatim:

	{"error": "Conflict", "kind": "InvalidPhase",
	 "message": "this function can be called only during candidates registration"}

Unauthorized maps to 403, UnknownCandidate to 404, InvalidIdentity to 400,
and the remaining kinds to 409.

# Sealed Counts

Vote counts are zeroed in candidate listings and results return 403 until
the administrator has tallied the votes.
*/
package handlers

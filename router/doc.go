// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Elect API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Elections:

	POST /elections                  - Create election (returns admin_key)
	GET  /elections                  - List elections
	GET  /elections/{id}             - Election summary
	GET  /elections/{id}/status      - Workflow status ordinal
	GET  /elections/{id}/admin       - Administrator identity
	GET  /elections/{id}/is-admin    - ?identity= check

Phase transitions (administrator, requires X-Caller-Identity and X-Caller-Key):

	POST /elections/{id}/candidates-registration/start
	POST /elections/{id}/candidates-registration/end
	POST /elections/{id}/voting-session/start
	POST /elections/{id}/voting-session/end
	POST /elections/{id}/tally

Registration and voting (caller headers required):

	POST /elections/{id}/voters            - Register voter (returns voter_key)
	GET  /elections/{id}/voters/{identity} - Voter record
	POST /elections/{id}/candidates        - Register candidate
	POST /elections/{id}/votes             - Cast vote

Results (public):

	GET /elections/{id}/candidates - Candidates, counts sealed until tallied
	GET /elections/{id}/results    - Winner and tie set (tallied only)
	GET /elections/{id}/events     - Event journal

# Handler Initialization

The router creates handler instances with dependency injection:

	electionHandler := handlers.NewElectionHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router

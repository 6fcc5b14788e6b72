// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Elect API server.

Quickly Elect administers small elections. A single administrator moves
each election through fixed phases (voter registration, candidate
registration, voting, tallying) while registered voters cast one vote each.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	CALLER_KEY_SALT=... DATABASE_URL=elect.db go run .

Or with flags against PostgreSQL:

	go run . -p 3318 -t postgres -d "postgres://..." -caller-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - CALLER_KEY_SALT (-caller-salt): Secret for caller key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - CANDIDATE_SELF_REGISTRATION (-self-registration): default for new elections
  - -env: .env file to load first (default: .env)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - election: Workflow state machine, tally and error kinds
  - store: Transactional repository persisting workflow events
  - handlers: HTTP request handlers (elections, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: ID generation and caller keys
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing

The electionctl command in cmd/electionctl inspects the same database
from the shell.
*/
package main

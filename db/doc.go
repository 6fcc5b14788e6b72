// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open selects the driver by database type, "postgres" (lib/pq) or "sqlite"
(modernc.org/sqlite), and pings the server:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - election: administrator, current phase and optimistic-lock version
  - voter: registered voters and whom they voted for
  - candidate: candidates in registration order with vote counts
  - election_event: append-only journal of applied operations

# Relationships

	election 1──* voter
	election 1──* candidate
	election 1──* election_event

All foreign keys use ON DELETE CASCADE.
*/
package db

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by postgres and sqlite, so it sticks to types and
// defaults both understand.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    admin TEXT NOT NULL,
    phase INTEGER NOT NULL DEFAULT 0 CHECK (phase >= 0 AND phase <= 5),
    candidate_self_registration BOOLEAN NOT NULL DEFAULT FALSE,
    version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_election_phase ON election(phase);

-- Voters
CREATE TABLE IF NOT EXISTS voter (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    identity TEXT NOT NULL,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    voted_candidate_id TEXT,
    registered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (election_id, identity)
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    registration_order INTEGER NOT NULL,
    registered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (election_id, candidate_id),
    UNIQUE (election_id, registration_order)
);

-- Event journal
CREATE TABLE IF NOT EXISTS election_event (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    actor TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    phase_from INTEGER NOT NULL,
    phase_to INTEGER NOT NULL,
    origin_hash TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (election_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_election_event_election_id ON election_event(election_id);
`

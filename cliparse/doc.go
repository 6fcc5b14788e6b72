// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: sqlite path or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - CallerKeySalt: Secret for caller key HMAC (required)
  - CandidateSelfRegistration: default election option (default: false)

# CLI Flags

	-env               .env file (default: .env, ignored when missing)
	-p                 Server port
	-d                 Database URL
	-t                 Database type
	-caller-salt       Caller key salt
	-self-registration Candidate self-registration default

# Environment Variables

Flags fall back to environment variables:

	PORT                        → -p
	DATABASE_URL                → -d
	DATABASE_TYPE               → -t
	CALLER_KEY_SALT             → -caller-salt
	CANDIDATE_SELF_REGISTRATION → -self-registration

CLI flags take precedence over environment variables, and variables already
set in the environment take precedence over the .env file.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - CALLER_KEY_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
*/
package cliparse

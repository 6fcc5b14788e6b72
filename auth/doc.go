// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides caller authentication and ID generation utilities.

# Caller Keys

Every mutating request names its caller in X-Caller-Identity and proves it
with X-Caller-Key. Keys are HMAC-SHA256 over the election ID and the
normalized identity:

	key := auth.GenerateCallerKey(electionID, identity, salt)
	err := auth.ValidateCallerKey(electionID, identity, key, salt)

Keys are URL-safe base64 without padding. Since they are deterministic,
validation needs no database lookup. The administrator receives a key when
the election is created; every voter key is returned to the administrator
when the voter is registered.

# ID Generation

Elections and journal entries use random UUIDs:

	id := auth.NewID()

# IP Hashing

The event journal records where a call came from without storing the address:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth

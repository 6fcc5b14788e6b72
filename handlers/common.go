// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
)

// authenticateCaller returns the identity named in X-Caller-Identity after
// checking X-Caller-Key. It writes the error response itself and returns
// false when the caller cannot be authenticated.
func authenticateCaller(w http.ResponseWriter, r *http.Request, cfg cliparse.Config, electionID string) (election.Identity, bool) {
	identity := election.NormalizeIdentity(r.Header.Get(models.HeaderCallerIdentity))
	if identity == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.HeaderCallerIdentity+" header required")
		return "", false
	}

	key := r.Header.Get(models.HeaderCallerKey)
	if err := auth.ValidateCallerKey(electionID, identity, key, cfg.CallerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid caller key")
		return "", false
	}

	return identity, true
}

// originHash identifies where a request came from without keeping the address
func originHash(r *http.Request, cfg cliparse.Config) string {
	return auth.HashIP(middleware.GetClientIP(r), cfg.CallerKeySalt)
}

// pathElectionID returns the election ID from the URL. Anything that is not
// a UUID cannot name an election, so it is answered with 404 straight away.
func pathElectionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !auth.ValidID(id) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return "", false
	}
	return id, true
}

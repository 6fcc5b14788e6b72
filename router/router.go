// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/handlers"
	"github.com/danielhkuo/quickly-elect/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election lifecycle
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /elections/{id}/status", middleware.WithLogging(electionHandler.GetWorkflowStatus))
	mux.HandleFunc("GET /elections/{id}/admin", middleware.WithLogging(electionHandler.GetAdmin))
	mux.HandleFunc("GET /elections/{id}/is-admin", middleware.WithLogging(electionHandler.IsAdmin))

	// Phase transitions (administrator only)
	mux.HandleFunc("POST /elections/{id}/candidates-registration/start", middleware.WithLogging(electionHandler.StartCandidatesRegistration))
	mux.HandleFunc("POST /elections/{id}/candidates-registration/end", middleware.WithLogging(electionHandler.EndCandidatesRegistration))
	mux.HandleFunc("POST /elections/{id}/voting-session/start", middleware.WithLogging(electionHandler.StartVotingSession))
	mux.HandleFunc("POST /elections/{id}/voting-session/end", middleware.WithLogging(electionHandler.EndVotingSession))
	mux.HandleFunc("POST /elections/{id}/tally", middleware.WithLogging(electionHandler.Tally))

	// Registration and voting
	mux.HandleFunc("POST /elections/{id}/voters", middleware.WithLogging(votingHandler.RegisterVoter))
	mux.HandleFunc("GET /elections/{id}/voters/{identity}", middleware.WithLogging(votingHandler.GetVoter))
	mux.HandleFunc("POST /elections/{id}/candidates", middleware.WithLogging(votingHandler.RegisterCandidate))
	mux.HandleFunc("POST /elections/{id}/votes", middleware.WithLogging(votingHandler.Vote))

	// Results retrieval (counts sealed until tallied)
	mux.HandleFunc("GET /elections/{id}/candidates", middleware.WithLogging(resultsHandler.GetCandidates))
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /elections/{id}/events", middleware.WithLogging(resultsHandler.GetEvents))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-elect API v1"))
	})

	return mux
}

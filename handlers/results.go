// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/store"
)

type ResultsHandler struct {
	repo *store.Repository
	cfg  cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{repo: store.NewRepository(db), cfg: cfg}
}

// GetCandidates handles GET /elections/{id}/candidates
// Vote counts stay sealed until the tally is complete
func (h *ResultsHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	wf, _, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	candidates := wf.Candidates()
	sealed := wf.Phase() != election.TallyComplete
	if sealed {
		for i := range candidates {
			candidates[i].VoteCount = 0
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{
		Candidates:   candidates,
		CountsSealed: sealed,
	})
}

// GetResults handles GET /elections/{id}/results
// Returns 403 until votes have been tallied
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	wf, e, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	result, err := wf.Result()
	if err != nil {
		// CRITICAL: Results are sealed until the tally
		middleware.KindErrorResponse(w, http.StatusForbidden, election.KindName(err), election.Reason(err))
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Election: e,
		Result:   result,
	})
}

// GetEvents handles GET /elections/{id}/events
func (h *ResultsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	events, err := h.repo.Events(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.EventsResponse{Events: events})
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/store"
)

type VotingHandler struct {
	repo *store.Repository
	cfg  cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{repo: store.NewRepository(db), cfg: cfg}
}

// RegisterVoter handles POST /elections/{id}/voters
func (h *VotingHandler) RegisterVoter(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	caller, ok := authenticateCaller(w, r, h.cfg, electionID)
	if !ok {
		return
	}

	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	identity := election.NormalizeIdentity(req.Identity)

	_, _, err := h.repo.Apply(r.Context(), electionID, originHash(r, h.cfg), func(wf *election.Workflow) error {
		return wf.RegisterVoter(caller, identity)
	})
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	slog.Info("voter registered", "election_id", electionID, "voter", identity)

	// The administrator hands the key to the voter
	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVoterResponse{
		Identity: string(identity),
		VoterKey: auth.GenerateCallerKey(electionID, identity, h.cfg.CallerKeySalt),
	})
}

// GetVoter handles GET /elections/{id}/voters/{identity}
func (h *VotingHandler) GetVoter(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	wf, _, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	voter, ok := wf.Voter(election.Identity(r.PathValue("identity")))
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Voter not registered")
		return
	}
	// The choice is sealed with the counts until the tally
	if wf.Phase() != election.TallyComplete {
		voter.VotedCandidateID = ""
	}
	middleware.JSONResponse(w, http.StatusOK, voter)
}

// RegisterCandidate handles POST /elections/{id}/candidates
func (h *VotingHandler) RegisterCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	caller, ok := authenticateCaller(w, r, h.cfg, electionID)
	if !ok {
		return
	}

	var req models.RegisterCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var candidate election.Candidate
	_, _, err := h.repo.Apply(r.Context(), electionID, originHash(r, h.cfg), func(wf *election.Workflow) error {
		if err := wf.RegisterCandidate(caller, req.CandidateID, req.Description); err != nil {
			return err
		}
		candidate, _ = wf.Candidate(req.CandidateID)
		return nil
	})
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	slog.Info("candidate registered", "election_id", electionID, "candidate_id", candidate.ID, "by", caller)

	middleware.JSONResponse(w, http.StatusCreated, candidate)
}

// Vote handles POST /elections/{id}/votes
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	caller, ok := authenticateCaller(w, r, h.cfg, electionID)
	if !ok {
		return
	}

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	wf, _, err := h.repo.Apply(r.Context(), electionID, originHash(r, h.cfg), func(wf *election.Workflow) error {
		return wf.Vote(caller, req.CandidateID)
	})
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	// Which candidate is deliberately not logged
	slog.Info("vote recorded", "election_id", electionID, "voter", caller)

	voter, _ := wf.Voter(caller)
	middleware.JSONResponse(w, http.StatusCreated, models.VoteResponse{
		CandidateID: voter.VotedCandidateID,
		Message:     "Vote recorded successfully",
	})
}

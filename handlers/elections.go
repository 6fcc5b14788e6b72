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

type ElectionHandler struct {
	repo *store.Repository
	cfg  cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{repo: store.NewRepository(db), cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	admin := election.NormalizeIdentity(req.Admin)
	if admin == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "admin is required")
		return
	}

	opts := election.Options{CandidateSelfRegistration: h.cfg.CandidateSelfRegistration}
	if req.CandidateSelfRegistration != nil {
		opts.CandidateSelfRegistration = *req.CandidateSelfRegistration
	}

	e, err := h.repo.Create(r.Context(), req.Title, admin, opts)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: e.ID,
		Admin:      e.Admin,
		AdminKey:   auth.GenerateCallerKey(e.ID, admin, h.cfg.CallerKeySalt),
	})
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.repo.List(r.Context())
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"elections": elections,
	})
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	_, e, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// GetWorkflowStatus handles GET /elections/{id}/status
func (h *ElectionHandler) GetWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	wf, _, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.WorkflowStatusResponse{
		WorkflowStatus: wf.WorkflowStatus(),
		Phase:          wf.Phase().String(),
	})
}

// GetAdmin handles GET /elections/{id}/admin
func (h *ElectionHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	wf, _, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.AdminResponse{Admin: string(wf.Admin())})
}

// IsAdmin handles GET /elections/{id}/is-admin?identity=...
func (h *ElectionHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	identity := election.NormalizeIdentity(r.URL.Query().Get("identity"))
	if identity == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "identity query parameter is required")
		return
	}

	wf, _, err := h.repo.Load(r.Context(), electionID)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.IsAdminResponse{
		Identity: string(identity),
		IsAdmin:  wf.IsAdmin(identity),
	})
}

// transition builds a handler for one administrator-driven phase change
func (h *ElectionHandler) transition(name string, op func(*election.Workflow, election.Identity) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		electionID, ok := pathElectionID(w, r)
		if !ok {
			return
		}
		caller, ok := authenticateCaller(w, r, h.cfg, electionID)
		if !ok {
			return
		}

		var previous int
		wf, _, err := h.repo.Apply(r.Context(), electionID, originHash(r, h.cfg), func(wf *election.Workflow) error {
			previous = wf.WorkflowStatus()
			return op(wf, caller)
		})
		if err != nil {
			slog.Info("transition rejected", "election_id", electionID, "op", name, "caller", caller, "reason", err)
			middleware.WorkflowErrorResponse(w, r, err)
			return
		}

		slog.Info("workflow status changed", "election_id", electionID, "op", name, "from", previous, "to", wf.WorkflowStatus())

		middleware.JSONResponse(w, http.StatusOK, models.TransitionResponse{
			PreviousStatus: previous,
			WorkflowStatus: wf.WorkflowStatus(),
			Phase:          wf.Phase().String(),
		})
	}
}

// StartCandidatesRegistration handles POST /elections/{id}/candidates-registration/start
func (h *ElectionHandler) StartCandidatesRegistration(w http.ResponseWriter, r *http.Request) {
	h.transition("startCandidatesRegistration", (*election.Workflow).StartCandidatesRegistration)(w, r)
}

// EndCandidatesRegistration handles POST /elections/{id}/candidates-registration/end
func (h *ElectionHandler) EndCandidatesRegistration(w http.ResponseWriter, r *http.Request) {
	h.transition("endCandidatesRegistration", (*election.Workflow).EndCandidatesRegistration)(w, r)
}

// StartVotingSession handles POST /elections/{id}/voting-session/start
func (h *ElectionHandler) StartVotingSession(w http.ResponseWriter, r *http.Request) {
	h.transition("startVotingSession", (*election.Workflow).StartVotingSession)(w, r)
}

// EndVotingSession handles POST /elections/{id}/voting-session/end
func (h *ElectionHandler) EndVotingSession(w http.ResponseWriter, r *http.Request) {
	h.transition("endVotingSession", (*election.Workflow).EndVotingSession)(w, r)
}

// Tally handles POST /elections/{id}/tally
func (h *ElectionHandler) Tally(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathElectionID(w, r)
	if !ok {
		return
	}
	caller, ok := authenticateCaller(w, r, h.cfg, electionID)
	if !ok {
		return
	}

	var result election.Result
	_, e, err := h.repo.Apply(r.Context(), electionID, originHash(r, h.cfg), func(wf *election.Workflow) error {
		var err error
		result, err = wf.Tally(caller)
		return err
	})
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

	slog.Info("votes tallied", "election_id", electionID, "winner", result.WinnerID, "votes", result.WinnerVoteCount, "tied", len(result.Tied))

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Election: e,
		Result:   result,
	})
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/testutil"
)

func TestRegisterVoter(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{})
	admin := testutil.CallerHeaders(cfg, electionID, testutil.TestAdmin)

	register := func(identity string, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.RegisterVoter(w, electionRequest("POST", "/elections/"+electionID+"/voters", electionID,
			models.RegisterVoterRequest{Identity: identity}, headers))
		return w
	}

	t.Run("admin registers voter", func(t *testing.T) {
		w := register(" 0xVoter ", admin)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.RegisterVoterResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Identity != "0xvoter" {
			t.Errorf("Expected normalized identity '0xvoter', got '%s'", resp.Identity)
		}
		if err := auth.ValidateCallerKey(electionID, "0xvoter", resp.VoterKey, cfg.CallerKeySalt); err != nil {
			t.Errorf("Voter key does not validate: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM voter WHERE election_id = $1 AND identity = $2", electionID, "0xvoter").Scan(&count); err != nil {
			t.Fatalf("Failed to query voter: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 voter row, got %d", count)
		}
	})

	t.Run("double registration", func(t *testing.T) {
		w := register("0xvoter", admin)
		assertRejected(t, w, http.StatusConflict, "AlreadyRegistered", "the voter is already registered")
	})

	t.Run("admin registers self", func(t *testing.T) {
		w := register(testutil.TestAdmin, admin)
		testutil.AssertStatus(t, w, http.StatusCreated)
	})

	t.Run("empty identity", func(t *testing.T) {
		w := register("  ", admin)
		testutil.AssertStatus(t, w, http.StatusBadRequest)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Kind != "InvalidIdentity" {
			t.Errorf("Expected kind 'InvalidIdentity', got '%s'", resp.Kind)
		}
	})

	t.Run("non-admin caller", func(t *testing.T) {
		w := register("0xother", testutil.CallerHeaders(cfg, electionID, "0xvoter"))
		assertRejected(t, w, http.StatusForbidden, "Unauthorized", "the caller of this function must be the administrator")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := electionRequest("POST", "/elections/"+electionID+"/voters", electionID, "not json", admin)
		w := httptest.NewRecorder()
		handler.RegisterVoter(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestRegisterVoterAfterVotersRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{})
	testutil.AdvanceTestElection(t, db, electionID, election.RegisteringCandidates)

	// The phase failure surfaces before the caller is checked
	for _, caller := range []string{testutil.TestAdmin, "0xstranger"} {
		w := httptest.NewRecorder()
		handler.RegisterVoter(w, electionRequest("POST", "/elections/"+electionID+"/voters", electionID,
			models.RegisterVoterRequest{Identity: "0xlate"}, testutil.CallerHeaders(cfg, electionID, caller)))

		assertRejected(t, w, http.StatusConflict, "InvalidPhase", "this function can be called only during voters registration")
	}
}

func TestGetVoter(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{})
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xvoter")

	tests := []struct {
		name           string
		identity       string
		expectedStatus int
	}{
		{"registered voter", "0xvoter", http.StatusOK},
		{"case-insensitive lookup", "0xVOTER", http.StatusOK},
		{"unknown voter", "0xnobody", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := electionRequest("GET", "/elections/"+electionID+"/voters/"+tt.identity, electionID, nil, nil)
			req.SetPathValue("identity", tt.identity)
			w := httptest.NewRecorder()

			handler.GetVoter(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var voter election.Voter
			testutil.AssertJSON(t, w, &voter)
			if !voter.IsRegistered || voter.HasVoted {
				t.Errorf("Expected registered voter who has not voted, got %+v", voter)
			}
		})
	}
}

func TestGetVoterSealsChoice(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)
	elections := NewElectionHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{})
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xvoter")
	testutil.AdvanceTestElection(t, db, electionID, election.RegisteringCandidates)
	testutil.RegisterTestCandidate(t, db, electionID, "alice")
	testutil.AdvanceTestElection(t, db, electionID, election.VotingSessionStarted)

	w := httptest.NewRecorder()
	handler.Vote(w, electionRequest("POST", "/elections/"+electionID+"/votes", electionID,
		models.VoteRequest{CandidateID: "alice"}, testutil.CallerHeaders(cfg, electionID, "0xvoter")))
	testutil.AssertStatus(t, w, http.StatusCreated)

	getVoter := func() election.Voter {
		t.Helper()
		req := electionRequest("GET", "/elections/"+electionID+"/voters/0xvoter", electionID, nil, nil)
		req.SetPathValue("identity", "0xvoter")
		w := httptest.NewRecorder()
		handler.GetVoter(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var voter election.Voter
		testutil.AssertJSON(t, w, &voter)
		return voter
	}

	for _, phase := range []election.Phase{election.VotingSessionStarted, election.VotingSessionEnded} {
		testutil.AdvanceTestElection(t, db, electionID, phase)
		voter := getVoter()
		if !voter.HasVoted {
			t.Errorf("Expected has_voted during %s", phase)
		}
		if voter.VotedCandidateID != "" {
			t.Errorf("Expected choice hidden during %s, got '%s'", phase, voter.VotedCandidateID)
		}
	}

	w = httptest.NewRecorder()
	elections.Tally(w, electionRequest("POST", "/elections/"+electionID+"/tally", electionID, nil,
		testutil.CallerHeaders(cfg, electionID, testutil.TestAdmin)))
	testutil.AssertStatus(t, w, http.StatusOK)

	if voter := getVoter(); voter.VotedCandidateID != "alice" {
		t.Errorf("Expected choice 'alice' after tally, got '%s'", voter.VotedCandidateID)
	}
}

func TestRegisterCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{})
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xvoter")

	register := func(candidateID string, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.RegisterCandidate(w, electionRequest("POST", "/elections/"+electionID+"/candidates", electionID,
			models.RegisterCandidateRequest{CandidateID: candidateID, Description: "Candidate " + candidateID}, headers))
		return w
	}
	admin := testutil.CallerHeaders(cfg, electionID, testutil.TestAdmin)

	t.Run("before candidates registration", func(t *testing.T) {
		w := register("alice", admin)
		assertRejected(t, w, http.StatusConflict, "InvalidPhase", "this function can be called only during candidates registration")
	})

	testutil.AdvanceTestElection(t, db, electionID, election.RegisteringCandidates)

	t.Run("admin registers candidate", func(t *testing.T) {
		w := register("alice", admin)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var candidate election.Candidate
		testutil.AssertJSON(t, w, &candidate)
		if candidate.ID != "alice" || candidate.Description != "Candidate alice" || candidate.Position != 0 {
			t.Errorf("Unexpected candidate %+v", candidate)
		}
	})

	t.Run("duplicate candidate", func(t *testing.T) {
		w := register("alice", admin)
		assertRejected(t, w, http.StatusConflict, "AlreadyRegistered", "the candidate is already registered")
	})

	t.Run("voter without self-registration", func(t *testing.T) {
		w := register("bob", testutil.CallerHeaders(cfg, electionID, "0xvoter"))
		assertRejected(t, w, http.StatusForbidden, "Unauthorized", "the caller of this function must be the administrator")
	})

	t.Run("empty candidate id", func(t *testing.T) {
		w := register("", admin)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("second candidate keeps order", func(t *testing.T) {
		w := register("bob", admin)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var candidate election.Candidate
		testutil.AssertJSON(t, w, &candidate)
		if candidate.Position != 1 {
			t.Errorf("Expected position 1, got %d", candidate.Position)
		}
	})
}

func TestRegisterCandidateSelfRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{CandidateSelfRegistration: true})
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xvoter")
	testutil.AdvanceTestElection(t, db, electionID, election.RegisteringCandidates)

	tests := []struct {
		name           string
		caller         string
		candidateID    string
		expectedStatus int
	}{
		{"registered voter", "0xvoter", "voter-pick", http.StatusCreated},
		{"administrator", testutil.TestAdmin, "admin-pick", http.StatusCreated},
		{"unregistered caller", "0xstranger", "stranger-pick", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.RegisterCandidate(w, electionRequest("POST", "/elections/"+electionID+"/candidates", electionID,
				models.RegisterCandidateRequest{CandidateID: tt.candidateID}, testutil.CallerHeaders(cfg, electionID, tt.caller)))

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestVote(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _ := testutil.CreateTestElection(t, db, cfg, election.Options{})
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xa")
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xb")
	testutil.RegisterTestVoter(t, db, cfg, electionID, "0xc")
	testutil.AdvanceTestElection(t, db, electionID, election.RegisteringCandidates)
	testutil.RegisterTestCandidate(t, db, electionID, "alice")

	vote := func(caller, candidateID string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.Vote(w, electionRequest("POST", "/elections/"+electionID+"/votes", electionID,
			models.VoteRequest{CandidateID: candidateID}, testutil.CallerHeaders(cfg, electionID, caller)))
		return w
	}

	t.Run("before voting session", func(t *testing.T) {
		w := vote("0xa", "alice")
		assertRejected(t, w, http.StatusConflict, "InvalidPhase", "this function can be called only during the voting session")
	})

	testutil.AdvanceTestElection(t, db, electionID, election.VotingSessionStarted)

	t.Run("registered voter votes", func(t *testing.T) {
		w := vote("0xa", "alice")
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.VoteResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.CandidateID != "alice" {
			t.Errorf("Expected candidate 'alice', got '%s'", resp.CandidateID)
		}

		var votes int
		if err := db.QueryRow("SELECT vote_count FROM candidate WHERE election_id = $1 AND candidate_id = $2", electionID, "alice").Scan(&votes); err != nil {
			t.Fatalf("Failed to query candidate: %v", err)
		}
		if votes != 1 {
			t.Errorf("Expected 1 vote, got %d", votes)
		}
	})

	t.Run("second vote", func(t *testing.T) {
		w := vote("0xa", "alice")
		assertRejected(t, w, http.StatusConflict, "AlreadyVoted", "the voter has already voted")
	})

	t.Run("unknown candidate", func(t *testing.T) {
		w := vote("0xb", "mallory")
		assertRejected(t, w, http.StatusNotFound, "UnknownCandidate", "the candidate does not exist")
	})

	t.Run("padded candidate id", func(t *testing.T) {
		w := vote("0xc", " alice ")
		testutil.AssertStatus(t, w, http.StatusCreated)

		// The response names the stored candidate, not the raw input
		var resp models.VoteResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.CandidateID != "alice" {
			t.Errorf("Expected candidate 'alice', got '%s'", resp.CandidateID)
		}
	})

	t.Run("unregistered caller", func(t *testing.T) {
		w := vote("0xstranger", "alice")
		assertRejected(t, w, http.StatusForbidden, "Unauthorized", "the caller of this function must be a registered voter")
	})

	t.Run("administrator is not a voter", func(t *testing.T) {
		w := vote(testutil.TestAdmin, "alice")
		assertRejected(t, w, http.StatusForbidden, "Unauthorized", "the caller of this function must be a registered voter")
	})

	// The failed attempts left the count at the two accepted votes
	var votes int
	if err := db.QueryRow("SELECT vote_count FROM candidate WHERE election_id = $1 AND candidate_id = $2", electionID, "alice").Scan(&votes); err != nil {
		t.Fatalf("Failed to query candidate: %v", err)
	}
	if votes != 2 {
		t.Errorf("Expected 2 votes after rejected calls, got %d", votes)
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/store"
)

// TestAdmin is the administrator of elections created by CreateTestElection
const TestAdmin = "0xadmin"

// SetupTestDB creates a fresh in-memory sqlite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  db.TypeSQLite,
		CallerKeySalt: "test-caller-salt",
	}
}

// CreateTestElection creates an election administered by TestAdmin and
// returns its ID and the administrator's caller key
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, opts election.Options) (electionID, adminKey string) {
	t.Helper()

	e, err := store.NewRepository(conn).Create(context.Background(), "Test Election", TestAdmin, opts)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return e.ID, auth.GenerateCallerKey(e.ID, TestAdmin, cfg.CallerKeySalt)
}

// ApplyTestOp runs op against a stored election and fails the test on error
func ApplyTestOp(t *testing.T, conn *sql.DB, electionID string, op func(*election.Workflow) error) {
	t.Helper()

	if _, _, err := store.NewRepository(conn).Apply(context.Background(), electionID, "", op); err != nil {
		t.Fatalf("Failed to apply test operation: %v", err)
	}
}

// RegisterTestVoter registers identity and returns its caller key
func RegisterTestVoter(t *testing.T, conn *sql.DB, cfg cliparse.Config, electionID, identity string) string {
	t.Helper()

	ApplyTestOp(t, conn, electionID, func(w *election.Workflow) error {
		return w.RegisterVoter(TestAdmin, election.Identity(identity))
	})
	return auth.GenerateCallerKey(electionID, election.Identity(identity), cfg.CallerKeySalt)
}

// RegisterTestCandidate registers a candidate as the administrator
func RegisterTestCandidate(t *testing.T, conn *sql.DB, electionID, candidateID string) {
	t.Helper()

	ApplyTestOp(t, conn, electionID, func(w *election.Workflow) error {
		return w.RegisterCandidate(TestAdmin, candidateID, "Candidate "+candidateID)
	})
}

// AdvanceTestElection moves the election forward to target as the administrator
func AdvanceTestElection(t *testing.T, conn *sql.DB, electionID string, target election.Phase) {
	t.Helper()

	ApplyTestOp(t, conn, electionID, func(w *election.Workflow) error {
		for w.Phase() < target {
			var err error
			switch w.Phase() {
			case election.RegisteringVoters:
				err = w.StartCandidatesRegistration(TestAdmin)
			case election.RegisteringCandidates:
				err = w.EndCandidatesRegistration(TestAdmin)
			case election.CandidatesRegistrationEnded:
				err = w.StartVotingSession(TestAdmin)
			case election.VotingSessionStarted:
				err = w.EndVotingSession(TestAdmin)
			case election.VotingSessionEnded:
				_, err = w.Tally(TestAdmin)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CallerHeaders returns the headers authenticating identity in the election
func CallerHeaders(cfg cliparse.Config, electionID, identity string) map[string]string {
	return map[string]string{
		models.HeaderCallerIdentity: identity,
		models.HeaderCallerKey:      auth.GenerateCallerKey(electionID, election.Identity(identity), cfg.CallerKeySalt),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

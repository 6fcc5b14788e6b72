// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/store"
	"github.com/danielhkuo/quickly-elect/testutil"
)

const admin = election.Identity(testutil.TestAdmin)

func TestCreateAndLoad(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := store.NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Board election", "0xADMIN", election.Options{CandidateSelfRegistration: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Admin != testutil.TestAdmin {
		t.Errorf("expected normalized admin, got %q", created.Admin)
	}

	w, meta, err := repo.Load(ctx, created.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.Title != "Board election" {
		t.Errorf("expected title to round-trip, got %q", meta.Title)
	}
	if w.WorkflowStatus() != 0 || meta.Phase != "RegisteringVoters" {
		t.Errorf("expected fresh election, got status %d phase %s", w.WorkflowStatus(), meta.Phase)
	}
	if !w.IsAdmin(admin) {
		t.Error("expected stored admin to be recognized")
	}
	if !w.Options().CandidateSelfRegistration {
		t.Error("expected self registration option to round-trip")
	}
}

func TestCreate_EmptyAdmin(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := store.NewRepository(conn)

	_, err := repo.Create(context.Background(), "t", " ", election.Options{})
	if !errors.Is(err, election.ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := store.NewRepository(conn)

	if _, _, err := repo.Load(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Events(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Events, got %v", err)
	}
}

func TestApply_FullElection(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)
	ctx := context.Background()

	id, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})
	testutil.RegisterTestVoter(t, conn, cfg, id, "0xalice")
	testutil.RegisterTestVoter(t, conn, cfg, id, "0xbob")
	testutil.RegisterTestVoter(t, conn, cfg, id, "0xcarol")
	testutil.AdvanceTestElection(t, conn, id, election.RegisteringCandidates)
	testutil.RegisterTestCandidate(t, conn, id, "c1")
	testutil.RegisterTestCandidate(t, conn, id, "c2")
	testutil.AdvanceTestElection(t, conn, id, election.VotingSessionStarted)

	for voter, candidate := range map[string]string{"0xalice": "c2", "0xbob": "c1", "0xcarol": "c2"} {
		testutil.ApplyTestOp(t, conn, id, func(w *election.Workflow) error {
			return w.Vote(election.Identity(voter), candidate)
		})
	}

	var result election.Result
	_, meta, err := repo.Apply(ctx, id, "", func(w *election.Workflow) error {
		if err := w.EndVotingSession(admin); err != nil {
			return err
		}
		var err error
		result, err = w.Tally(admin)
		return err
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if meta.WorkflowStatus != 5 {
		t.Errorf("expected workflow status 5, got %d", meta.WorkflowStatus)
	}
	if result.WinnerID != "c2" || result.WinnerVoteCount != 2 {
		t.Errorf("unexpected result %+v", result)
	}

	// Reload from the database and check that state survived
	w, meta, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.VoterCount != 3 || meta.CandidateCount != 2 {
		t.Errorf("expected 3 voters and 2 candidates, got %d and %d", meta.VoterCount, meta.CandidateCount)
	}
	stored, err := w.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if stored.WinnerID != "c2" || stored.TotalVotes != 3 {
		t.Errorf("unexpected stored result %+v", stored)
	}
	v, ok := w.Voter("0xbob")
	if !ok || !v.HasVoted || v.VotedCandidateID != "c1" {
		t.Errorf("unexpected voter record %+v", v)
	}
	cs := w.Candidates()
	if len(cs) != 2 || cs[0].ID != "c1" || cs[1].ID != "c2" {
		t.Errorf("candidate order not preserved: %+v", cs)
	}
}

func TestApply_RejectedOperationWritesNothing(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)
	ctx := context.Background()

	id, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})
	testutil.RegisterTestVoter(t, conn, cfg, id, "0xalice")

	_, before, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	// The first mutation succeeds in memory, the second fails: neither may persist
	_, _, err = repo.Apply(ctx, id, "", func(w *election.Workflow) error {
		if err := w.RegisterVoter(admin, "0xbob"); err != nil {
			return err
		}
		return w.EndCandidatesRegistration(admin)
	})
	if !errors.Is(err, election.ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	if err.Error() != "this function can be called only during candidates registration" {
		t.Errorf("unexpected reason %q", err.Error())
	}

	w, after, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if w.IsRegisteredVoter("0xbob") {
		t.Error("voter from rejected call was persisted")
	}
	if after.Version != before.Version {
		t.Errorf("version changed from %d to %d", before.Version, after.Version)
	}

	events, err := repo.Events(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 journal entry, got %d", len(events))
	}
}

func TestApply_ConcurrentWriterConflicts(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)
	ctx := context.Background()

	id, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})
	testutil.RegisterTestVoter(t, conn, cfg, id, "0xalice")

	_, before, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	// Another writer commits between our load and our write
	repo.SetBeforeWrite(func(ctx context.Context, tx *sql.Tx, id string) error {
		_, err := tx.ExecContext(ctx, `UPDATE election SET version = version + 1 WHERE id = $1`, id)
		return err
	})

	_, _, err = repo.Apply(ctx, id, "", func(w *election.Workflow) error {
		if err := w.RegisterVoter(admin, "0xbob"); err != nil {
			return err
		}
		if err := w.StartCandidatesRegistration(admin); err != nil {
			return err
		}
		return w.RegisterCandidate(admin, "c1", "")
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The rollback also undid the competing bump made on the same transaction
	repo.SetBeforeWrite(nil)
	w, after, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != before.Version || after.WorkflowStatus != before.WorkflowStatus {
		t.Errorf("election row changed: version %d->%d, status %d->%d",
			before.Version, after.Version, before.WorkflowStatus, after.WorkflowStatus)
	}
	if w.IsRegisteredVoter("0xbob") {
		t.Error("voter from conflicting call was persisted")
	}

	counts := map[string]int{}
	for _, table := range []string{"voter", "candidate", "election_event"} {
		var n int
		if err := conn.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE election_id = $1", id).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		counts[table] = n
	}
	if counts["voter"] != 1 || counts["candidate"] != 0 || counts["election_event"] != 1 {
		t.Errorf("expected only the earlier voter and its event, got %v", counts)
	}

	// Without the competing writer the same operation goes through
	_, meta, err := repo.Apply(ctx, id, "", func(w *election.Workflow) error {
		return w.RegisterVoter(admin, "0xbob")
	})
	if err != nil {
		t.Fatalf("Apply() after conflict error = %v", err)
	}
	if meta.Version != before.Version+1 {
		t.Errorf("expected version %d, got %d", before.Version+1, meta.Version)
	}
}

func TestApply_QueryOnlyDoesNotBumpVersion(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)
	ctx := context.Background()

	id, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})

	_, meta, err := repo.Apply(ctx, id, "", func(w *election.Workflow) error {
		w.IsAdmin(admin)
		w.WorkflowStatus()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if meta.Version != 0 {
		t.Errorf("expected version 0, got %d", meta.Version)
	}
}

func TestEvents_Journal(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)
	ctx := context.Background()

	id, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})

	_, _, err := repo.Apply(ctx, id, "abcdef0123456789", func(w *election.Workflow) error {
		if err := w.RegisterVoter(admin, "0xalice"); err != nil {
			return err
		}
		return w.StartCandidatesRegistration(admin)
	})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AdvanceTestElection(t, conn, id, election.CandidatesRegistrationEnded)

	events, err := repo.Events(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		kind    string
		subject string
		from    int
		to      int
	}{
		{"VoterRegistered", "0xalice", 0, 0},
		{"WorkflowStatusChanged", "", 0, 1},
		{"WorkflowStatusChanged", "", 1, 2},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Errorf("event %d: expected seq %d, got %d", i, i+1, ev.Seq)
		}
		if ev.Kind != want[i].kind || ev.Subject != want[i].subject || ev.PhaseFrom != want[i].from || ev.PhaseTo != want[i].to {
			t.Errorf("event %d: got %+v, want %+v", i, ev, want[i])
		}
		if ev.Actor != testutil.TestAdmin {
			t.Errorf("event %d: expected admin actor, got %q", i, ev.Actor)
		}
	}
	if events[0].OriginHash == nil || *events[0].OriginHash != "abcdef0123456789" {
		t.Error("expected origin hash on first event")
	}
	if events[2].OriginHash != nil {
		t.Error("expected no origin hash when none was given")
	}
}

func TestEvents_VoteChoiceSealedUntilTally(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)
	ctx := context.Background()

	id, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})
	testutil.RegisterTestVoter(t, conn, cfg, id, "0xalice")
	testutil.AdvanceTestElection(t, conn, id, election.RegisteringCandidates)
	testutil.RegisterTestCandidate(t, conn, id, "c1")
	testutil.AdvanceTestElection(t, conn, id, election.VotingSessionStarted)
	testutil.ApplyTestOp(t, conn, id, func(w *election.Workflow) error {
		return w.Vote("0xalice", "c1")
	})

	voted := func() models.Event {
		t.Helper()
		events, err := repo.Events(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		for _, ev := range events {
			if ev.Kind == string(election.EventVoted) {
				return ev
			}
		}
		t.Fatal("no Voted event in journal")
		return models.Event{}
	}

	for _, phase := range []election.Phase{election.VotingSessionStarted, election.VotingSessionEnded} {
		testutil.AdvanceTestElection(t, conn, id, phase)
		ev := voted()
		if ev.Actor != "0xalice" {
			t.Errorf("%s: expected voter to stay visible, got %q", phase, ev.Actor)
		}
		if ev.Subject != "" {
			t.Errorf("%s: expected choice hidden, got %q", phase, ev.Subject)
		}
	}

	testutil.AdvanceTestElection(t, conn, id, election.TallyComplete)
	if ev := voted(); ev.Subject != "c1" {
		t.Errorf("expected choice after tally, got %q", ev.Subject)
	}
}

func TestList(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	repo := store.NewRepository(conn)

	id1, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})
	id2, _ := testutil.CreateTestElection(t, conn, cfg, election.Options{})
	testutil.RegisterTestVoter(t, conn, cfg, id2, "0xalice")

	elections, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(elections) != 2 {
		t.Fatalf("expected 2 elections, got %d", len(elections))
	}

	byID := map[string]int{}
	for _, e := range elections {
		byID[e.ID] = e.VoterCount
	}
	if byID[id1] != 0 || byID[id2] != 1 {
		t.Errorf("unexpected voter counts %v", byID)
	}
}

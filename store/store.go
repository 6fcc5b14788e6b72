// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
)

var (
	ErrNotFound = errors.New("election not found")
	ErrConflict = errors.New("election was modified concurrently")
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository persists election workflows. Every mutation runs in a single
// transaction: the workflow is loaded, the operation applied in memory and
// the recorded events written back, or nothing is written at all.
type Repository struct {
	db  *sql.DB
	now func() time.Time

	// beforeWrite runs inside the transaction once op has succeeded and
	// before the version-checked UPDATE. Nil outside tests.
	beforeWrite func(ctx context.Context, tx *sql.Tx, id string) error
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new election in the RegisteringVoters phase.
func (r *Repository) Create(ctx context.Context, title string, admin election.Identity, opts election.Options) (models.Election, error) {
	w, err := election.New(admin, opts)
	if err != nil {
		return models.Election{}, err
	}

	now := r.now()
	e := models.Election{
		ID:                        auth.NewID(),
		Title:                     title,
		Admin:                     string(w.Admin()),
		WorkflowStatus:            w.WorkflowStatus(),
		Phase:                     w.Phase().String(),
		CandidateSelfRegistration: opts.CandidateSelfRegistration,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO election (id, title, admin, phase, candidate_self_registration, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.Title, e.Admin, e.WorkflowStatus, e.CandidateSelfRegistration, e.Version, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to insert election: %w", err)
	}

	slog.Info("election created", "election_id", e.ID, "admin", e.Admin)
	return e, nil
}

// Load reads an election and rebuilds its workflow.
func (r *Repository) Load(ctx context.Context, id string) (*election.Workflow, models.Election, error) {
	return load(ctx, r.db, id)
}

// Apply runs op against the stored workflow and persists its effects. If op
// fails its error is returned unchanged and nothing is written. ErrConflict
// means another writer committed first; the caller may retry.
func (r *Repository) Apply(ctx context.Context, id, originHash string, op func(*election.Workflow) error) (*election.Workflow, models.Election, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, models.Election{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	w, meta, err := load(ctx, tx, id)
	if err != nil {
		return nil, models.Election{}, err
	}

	if err := op(w); err != nil {
		return nil, meta, err
	}

	events := w.DrainEvents()
	if len(events) == 0 {
		return w, meta, nil
	}

	if r.beforeWrite != nil {
		if err := r.beforeWrite(ctx, tx, id); err != nil {
			return nil, meta, err
		}
	}

	now := r.now()
	res, err := tx.ExecContext(ctx, `
		UPDATE election
		SET phase = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`, w.WorkflowStatus(), now, id, meta.Version)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to update election: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, meta, fmt.Errorf("failed to check update: %w", err)
	} else if n == 0 {
		return nil, meta, ErrConflict
	}

	var seq int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM election_event WHERE election_id = $1
	`, id).Scan(&seq)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read journal position: %w", err)
	}

	var origin *string
	if originHash != "" {
		origin = &originHash
	}

	for _, ev := range events {
		if err := applyEvent(ctx, tx, id, w, ev, now); err != nil {
			return nil, meta, err
		}
		seq++
		_, err = tx.ExecContext(ctx, `
			INSERT INTO election_event (id, election_id, seq, kind, actor, subject, phase_from, phase_to, origin_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, auth.NewID(), id, seq, string(ev.Kind), string(ev.Actor), ev.Subject, int(ev.From), int(ev.To), origin, now)
		if err != nil {
			return nil, meta, fmt.Errorf("failed to append %s event: %w", ev.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, meta, fmt.Errorf("failed to commit transaction: %w", err)
	}

	meta.Version++
	meta.WorkflowStatus = w.WorkflowStatus()
	meta.Phase = w.Phase().String()
	meta.VoterCount = w.VotersCount()
	meta.CandidateCount = w.CandidatesCount()
	meta.UpdatedAt = now

	slog.Info("election updated", "election_id", id, "events", len(events), "version", meta.Version, "phase", meta.Phase)
	return w, meta, nil
}

// applyEvent turns one workflow event into row changes. Phase changes are
// covered by the election UPDATE in Apply.
func applyEvent(ctx context.Context, tx *sql.Tx, id string, w *election.Workflow, ev election.Event, now time.Time) error {
	var err error
	switch ev.Kind {
	case election.EventVoterRegistered:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO voter (election_id, identity, has_voted, registered_at)
			VALUES ($1, $2, $3, $4)
		`, id, ev.Subject, false, now)

	case election.EventCandidateRegistered:
		c, ok := w.Candidate(ev.Subject)
		if !ok {
			return fmt.Errorf("candidate %q missing from workflow", ev.Subject)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidate (election_id, candidate_id, description, vote_count, registration_order, registered_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, c.ID, c.Description, 0, c.Position, now)

	case election.EventVoted:
		_, err = tx.ExecContext(ctx, `
			UPDATE voter SET has_voted = $1, voted_candidate_id = $2
			WHERE election_id = $3 AND identity = $4
		`, true, ev.Subject, id, string(ev.Actor))
		if err == nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE candidate SET vote_count = vote_count + 1
				WHERE election_id = $1 AND candidate_id = $2
			`, id, ev.Subject)
		}

	case election.EventWorkflowStatusChanged, election.EventVotesTallied:
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to persist %s event: %w", ev.Kind, err)
	}
	return nil
}

func load(ctx context.Context, q queryer, id string) (*election.Workflow, models.Election, error) {
	var e models.Election
	err := q.QueryRowContext(ctx, `
		SELECT id, title, admin, phase, candidate_self_registration, version, created_at, updated_at
		FROM election
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Title, &e.Admin, &e.WorkflowStatus, &e.CandidateSelfRegistration,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.Election{}, ErrNotFound
	}
	if err != nil {
		return nil, models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}

	snap := election.Snapshot{
		Admin:   election.Identity(e.Admin),
		Phase:   election.Phase(e.WorkflowStatus),
		Options: election.Options{CandidateSelfRegistration: e.CandidateSelfRegistration},
	}

	rows, err := q.QueryContext(ctx, `
		SELECT identity, has_voted, voted_candidate_id
		FROM voter
		WHERE election_id = $1
		ORDER BY registered_at, identity
	`, id)
	if err != nil {
		return nil, models.Election{}, fmt.Errorf("failed to query voters: %w", err)
	}
	for rows.Next() {
		var v election.Voter
		var votedFor sql.NullString
		if err := rows.Scan(&v.Identity, &v.HasVoted, &votedFor); err != nil {
			rows.Close()
			return nil, models.Election{}, fmt.Errorf("failed to scan voter: %w", err)
		}
		v.IsRegistered = true
		v.VotedCandidateID = votedFor.String
		snap.Voters = append(snap.Voters, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, models.Election{}, fmt.Errorf("failed to read voters: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
		SELECT candidate_id, description, vote_count, registration_order
		FROM candidate
		WHERE election_id = $1
		ORDER BY registration_order
	`, id)
	if err != nil {
		return nil, models.Election{}, fmt.Errorf("failed to query candidates: %w", err)
	}
	for rows.Next() {
		var c election.Candidate
		if err := rows.Scan(&c.ID, &c.Description, &c.VoteCount, &c.Position); err != nil {
			rows.Close()
			return nil, models.Election{}, fmt.Errorf("failed to scan candidate: %w", err)
		}
		snap.Candidates = append(snap.Candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, models.Election{}, fmt.Errorf("failed to read candidates: %w", err)
	}

	w, err := election.Restore(snap)
	if err != nil {
		return nil, models.Election{}, fmt.Errorf("election %s is corrupt: %w", id, err)
	}

	e.Phase = w.Phase().String()
	e.VoterCount = w.VotersCount()
	e.CandidateCount = w.CandidatesCount()
	return w, e, nil
}

// List returns all elections, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Election, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.admin, e.phase, e.candidate_self_registration, e.version, e.created_at, e.updated_at,
		       (SELECT COUNT(*) FROM voter v WHERE v.election_id = e.id),
		       (SELECT COUNT(*) FROM candidate c WHERE c.election_id = e.id)
		FROM election e
		ORDER BY e.created_at DESC, e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		var e models.Election
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Admin, &e.WorkflowStatus, &e.CandidateSelfRegistration,
			&e.Version, &e.CreatedAt, &e.UpdatedAt, &e.VoterCount, &e.CandidateCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		e.Phase = election.Phase(e.WorkflowStatus).String()
		elections = append(elections, e)
	}
	return elections, rows.Err()
}

// Events returns the journal of an election in the order it was written.
// Voted events name no candidate before TallyComplete.
func (r *Repository) Events(ctx context.Context, id string) ([]models.Event, error) {
	var status int
	err := r.db.QueryRowContext(ctx, `
		SELECT phase FROM election WHERE id = $1
	`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}
	sealed := election.Phase(status) != election.TallyComplete

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, election_id, seq, kind, actor, subject, phase_from, phase_to, origin_hash, created_at
		FROM election_event
		WHERE election_id = $1
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(
			&ev.ID, &ev.ElectionID, &ev.Seq, &ev.Kind, &ev.Actor, &ev.Subject,
			&ev.PhaseFrom, &ev.PhaseTo, &ev.OriginHash, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		// Who voted is public, for whom stays hidden until the tally
		if sealed && ev.Kind == string(election.EventVoted) {
			ev.Subject = ""
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

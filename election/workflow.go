// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"strings"
	"sync"
)

// Identity identifies a caller, a voter or the administrator.
type Identity string

// NormalizeIdentity trims and lower-cases s so that identities compare
// independently of how the caller spelled them.
func NormalizeIdentity(s string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(s)))
}

type Voter struct {
	Identity         Identity `json:"identity"`
	IsRegistered     bool     `json:"is_registered"`
	HasVoted         bool     `json:"has_voted"`
	VotedCandidateID string   `json:"voted_candidate_id,omitempty"`
}

type Candidate struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	VoteCount   int    `json:"vote_count"`
	Position    int    `json:"position"` // 0-indexed registration order
}

type Options struct {
	// CandidateSelfRegistration lets registered voters register candidates
	// in addition to the administrator.
	CandidateSelfRegistration bool
}

// Workflow is a single election. Calls are serialized: each one runs to
// completion before the next starts, and a rejected call leaves no trace.
type Workflow struct {
	mu         sync.Mutex
	admin      Identity
	phase      Phase
	opts       Options
	voters     map[Identity]*Voter
	candidates map[string]*Candidate
	order      []string
	pending    []Event
}

// New creates a workflow in the RegisteringVoters phase.
func New(admin Identity, opts Options) (*Workflow, error) {
	admin = NormalizeIdentity(string(admin))
	if admin == "" {
		return nil, fail(ErrInvalidIdentity, reasonEmptyIdentity)
	}
	return &Workflow{
		admin:      admin,
		phase:      RegisteringVoters,
		opts:       opts,
		voters:     make(map[Identity]*Voter),
		candidates: make(map[string]*Candidate),
	}, nil
}

// Snapshot is the complete persisted state of a workflow.
type Snapshot struct {
	Admin      Identity
	Phase      Phase
	Options    Options
	Voters     []Voter
	Candidates []Candidate // registration order
}

// Restore rebuilds a workflow from a snapshot, rejecting snapshots whose
// vote counts disagree with the voters' recorded choices or that hold votes
// the phase could not have produced.
func Restore(s Snapshot) (*Workflow, error) {
	w, err := New(s.Admin, s.Options)
	if err != nil {
		return nil, err
	}
	if !s.Phase.Valid() {
		return nil, fmt.Errorf("restore: invalid phase %d", int(s.Phase))
	}
	w.phase = s.Phase

	for i, c := range s.Candidates {
		if c.ID == "" {
			return nil, fmt.Errorf("restore: candidate %d has empty id", i)
		}
		if _, ok := w.candidates[c.ID]; ok {
			return nil, fmt.Errorf("restore: duplicate candidate %q", c.ID)
		}
		c.Position = i
		w.candidates[c.ID] = &c
		w.order = append(w.order, c.ID)
	}

	counted := make(map[string]int)
	for _, v := range s.Voters {
		id := NormalizeIdentity(string(v.Identity))
		if id == "" {
			return nil, fmt.Errorf("restore: voter with empty identity")
		}
		if _, ok := w.voters[id]; ok {
			return nil, fmt.Errorf("restore: duplicate voter %q", id)
		}
		if v.HasVoted {
			if s.Phase < VotingSessionStarted {
				return nil, fmt.Errorf("restore: voter %q voted before the voting session in phase %s", id, s.Phase)
			}
			if _, ok := w.candidates[v.VotedCandidateID]; !ok {
				return nil, fmt.Errorf("restore: voter %q voted for unknown candidate %q", id, v.VotedCandidateID)
			}
			counted[v.VotedCandidateID]++
		} else if v.VotedCandidateID != "" {
			return nil, fmt.Errorf("restore: voter %q has a choice %q but has not voted", id, v.VotedCandidateID)
		}
		w.voters[id] = &Voter{
			Identity:         id,
			IsRegistered:     true,
			HasVoted:         v.HasVoted,
			VotedCandidateID: v.VotedCandidateID,
		}
	}

	for _, c := range w.candidates {
		if c.VoteCount != counted[c.ID] {
			return nil, fmt.Errorf("restore: candidate %q has %d votes, voters recorded %d", c.ID, c.VoteCount, counted[c.ID])
		}
	}

	return w, nil
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Admin:      w.admin,
		Phase:      w.phase,
		Options:    w.opts,
		Voters:     make([]Voter, 0, len(w.voters)),
		Candidates: w.candidateList(),
	}
	for _, v := range w.voters {
		s.Voters = append(s.Voters, *v)
	}
	return s
}

// requirePhase is always the first check of a gated operation, so a call in
// the wrong phase fails the same way whoever makes it.
func (w *Workflow) requirePhase(p Phase) error {
	if w.phase != p {
		return fail(ErrInvalidPhase, phaseReasons[p])
	}
	return nil
}

func (w *Workflow) requireAdmin(caller Identity) error {
	if NormalizeIdentity(string(caller)) != w.admin {
		return fail(ErrUnauthorized, reasonNotAdmin)
	}
	return nil
}

// advance moves from one phase to the next on behalf of the administrator.
func (w *Workflow) advance(caller Identity, from Phase) error {
	if err := w.requirePhase(from); err != nil {
		return err
	}
	if err := w.requireAdmin(caller); err != nil {
		return err
	}
	to, _ := from.Next()
	w.phase = to
	w.record(Event{
		Kind:  EventWorkflowStatusChanged,
		Actor: w.admin,
		From:  from,
		To:    to,
	})
	return nil
}

func (w *Workflow) StartCandidatesRegistration(caller Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.advance(caller, RegisteringVoters)
}

func (w *Workflow) EndCandidatesRegistration(caller Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.advance(caller, RegisteringCandidates)
}

func (w *Workflow) StartVotingSession(caller Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.advance(caller, CandidatesRegistrationEnded)
}

func (w *Workflow) EndVotingSession(caller Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.advance(caller, VotingSessionStarted)
}

// Tally closes the election. The result is computed from the candidates'
// vote counts and is available through Result afterwards.
func (w *Workflow) Tally(caller Identity) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.advance(caller, VotingSessionEnded); err != nil {
		return Result{}, err
	}
	res := tally(w.candidateList())
	w.record(Event{
		Kind:    EventVotesTallied,
		Actor:   w.admin,
		Subject: res.WinnerID,
		From:    TallyComplete,
		To:      TallyComplete,
	})
	return res, nil
}

// RegisterVoter adds identity to the voter registry.
func (w *Workflow) RegisterVoter(caller, identity Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requirePhase(RegisteringVoters); err != nil {
		return err
	}
	if err := w.requireAdmin(caller); err != nil {
		return err
	}
	identity = NormalizeIdentity(string(identity))
	if identity == "" {
		return fail(ErrInvalidIdentity, reasonEmptyIdentity)
	}
	if _, ok := w.voters[identity]; ok {
		return fail(ErrAlreadyRegistered, reasonVoterRegistered)
	}

	w.voters[identity] = &Voter{Identity: identity, IsRegistered: true}
	w.record(Event{
		Kind:    EventVoterRegistered,
		Actor:   w.admin,
		Subject: string(identity),
		From:    w.phase,
		To:      w.phase,
	})
	return nil
}

// RegisterCandidate appends a candidate to the registry. Only the
// administrator may register candidates unless self-registration is enabled,
// in which case registered voters may too.
func (w *Workflow) RegisterCandidate(caller Identity, candidateID, description string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requirePhase(RegisteringCandidates); err != nil {
		return err
	}
	caller = NormalizeIdentity(string(caller))
	if caller != w.admin {
		if !w.opts.CandidateSelfRegistration {
			return fail(ErrUnauthorized, reasonNotAdmin)
		}
		if _, ok := w.voters[caller]; !ok {
			return fail(ErrUnauthorized, reasonNotVoter)
		}
	}
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return fail(ErrInvalidIdentity, reasonEmptyCandidateID)
	}
	if _, ok := w.candidates[candidateID]; ok {
		return fail(ErrAlreadyRegistered, reasonCandidateExists)
	}

	w.candidates[candidateID] = &Candidate{
		ID:          candidateID,
		Description: description,
		Position:    len(w.order),
	}
	w.order = append(w.order, candidateID)
	w.record(Event{
		Kind:    EventCandidateRegistered,
		Actor:   caller,
		Subject: candidateID,
		Detail:  description,
		From:    w.phase,
		To:      w.phase,
	})
	return nil
}

// Vote records the caller's single vote for candidateID.
func (w *Workflow) Vote(caller Identity, candidateID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requirePhase(VotingSessionStarted); err != nil {
		return err
	}
	voter, ok := w.voters[NormalizeIdentity(string(caller))]
	if !ok {
		return fail(ErrUnauthorized, reasonNotVoter)
	}
	if voter.HasVoted {
		return fail(ErrAlreadyVoted, reasonAlreadyVoted)
	}
	candidate, ok := w.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return fail(ErrUnknownCandidate, reasonUnknownCandidate)
	}

	candidate.VoteCount++
	voter.HasVoted = true
	voter.VotedCandidateID = candidate.ID
	w.record(Event{
		Kind:    EventVoted,
		Actor:   voter.Identity,
		Subject: candidate.ID,
		From:    w.phase,
		To:      w.phase,
	})
	return nil
}

// IsAdmin reports whether identity is the administrator.
func (w *Workflow) IsAdmin(identity Identity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return NormalizeIdentity(string(identity)) == w.admin
}

func (w *Workflow) Admin() Identity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.admin
}

func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// WorkflowStatus returns the ordinal of the current phase.
func (w *Workflow) WorkflowStatus() int {
	return int(w.Phase())
}

func (w *Workflow) Options() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

func (w *Workflow) Voter(identity Identity) (Voter, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.voters[NormalizeIdentity(string(identity))]
	if !ok {
		return Voter{}, false
	}
	return *v, true
}

func (w *Workflow) IsRegisteredVoter(identity Identity) bool {
	_, ok := w.Voter(identity)
	return ok
}

func (w *Workflow) VotersCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.voters)
}

func (w *Workflow) Candidate(id string) (Candidate, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.candidates[strings.TrimSpace(id)]
	if !ok {
		return Candidate{}, false
	}
	return *c, true
}

// Candidates returns the candidates in registration order.
func (w *Workflow) Candidates() []Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.candidateList()
}

func (w *Workflow) CandidatesCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}

// Result returns the outcome of a tallied election.
func (w *Workflow) Result() (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requirePhase(TallyComplete); err != nil {
		return Result{}, err
	}
	return tally(w.candidateList()), nil
}

func (w *Workflow) candidateList() []Candidate {
	out := make([]Candidate, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, *w.candidates[id])
	}
	return out
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

type EventKind string

const (
	EventVoterRegistered       EventKind = "VoterRegistered"
	EventCandidateRegistered   EventKind = "CandidateRegistered"
	EventWorkflowStatusChanged EventKind = "WorkflowStatusChanged"
	EventVoted                 EventKind = "Voted"
	EventVotesTallied          EventKind = "VotesTallied"
)

// Event describes one applied mutation. Subject is the voter identity or
// candidate id the event is about; Detail carries the candidate description.
type Event struct {
	Kind    EventKind
	Actor   Identity
	Subject string
	Detail  string
	From    Phase
	To      Phase
}

func (w *Workflow) record(e Event) {
	w.pending = append(w.pending, e)
}

// DrainEvents returns the events recorded since the last call and forgets them.
func (w *Workflow) DrainEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := w.pending
	w.pending = nil
	return events
}

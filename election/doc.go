// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election implements the election workflow state machine.

# Phases

An election moves through six phases, one step at a time and never back:

	RegisteringVoters (0)
	RegisteringCandidates (1)
	CandidatesRegistrationEnded (2)
	VotingSessionStarted (3)
	VotingSessionEnded (4)
	TallyComplete (5)

Only the administrator, fixed when the workflow is created, can move the
election forward:

	w, err := election.New("0xadmin", election.Options{})
	err = w.StartCandidatesRegistration("0xadmin")
	status := w.WorkflowStatus() // 1

# Checks

Every mutating operation takes the caller identity explicitly and checks, in
this order:

  - the phase
  - the caller's authorization
  - operation preconditions (duplicate registration, double vote, unknown candidate)

A call in the wrong phase therefore reports the phase error even when the
administrator makes it. Nothing is mutated unless all checks pass.

# Errors

Rejected calls return *Error, which carries the reason string shown to callers
and unwraps to one of the sentinel errors:

	if errors.Is(err, election.ErrInvalidPhase) {
		// err.Error() == "this function can be called only during candidates registration"
	}

# Tally

Tally closes the election. The winner is the candidate with the most votes;
on a tie the first registered candidate wins and Result.Tied lists all
candidates sharing the top count.

# Events

Each successful mutation records an Event. DrainEvents hands them to the
persistence layer, which turns them into row changes and an audit journal.
*/
package election

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "fmt"

// Phase is a stage of the election workflow. The numeric value is the
// workflow status reported to callers.
type Phase int

const (
	RegisteringVoters Phase = iota
	RegisteringCandidates
	CandidatesRegistrationEnded
	VotingSessionStarted
	VotingSessionEnded
	TallyComplete
)

var phaseNames = [...]string{
	RegisteringVoters:           "RegisteringVoters",
	RegisteringCandidates:       "RegisteringCandidates",
	CandidatesRegistrationEnded: "CandidatesRegistrationEnded",
	VotingSessionStarted:        "VotingSessionStarted",
	VotingSessionEnded:          "VotingSessionEnded",
	TallyComplete:               "TallyComplete",
}

// Reasons returned when an operation is attempted outside its phase.
var phaseReasons = [...]string{
	RegisteringVoters:           "this function can be called only during voters registration",
	RegisteringCandidates:       "this function can be called only during candidates registration",
	CandidatesRegistrationEnded: "this function can be called only after candidates registration has ended",
	VotingSessionStarted:        "this function can be called only during the voting session",
	VotingSessionEnded:          "this function can be called only after the voting session has ended",
	TallyComplete:               "this function can be called only after votes have been tallied",
}

func (p Phase) Valid() bool {
	return p >= RegisteringVoters && p <= TallyComplete
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Next returns the phase that follows p. The second value is false for the
// terminal phase.
func (p Phase) Next() (Phase, bool) {
	if !p.Valid() || p == TallyComplete {
		return p, false
	}
	return p + 1, true
}

// ParsePhase maps a phase name back to its value.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Result is the outcome of a tally.
type Result struct {
	WinnerID          string      `json:"winner_id"`
	WinnerDescription string      `json:"winner_description"`
	WinnerVoteCount   int         `json:"winner_vote_count"`
	TotalVotes        int         `json:"total_votes"`
	Tied              []string    `json:"tied,omitempty"` // every candidate sharing the top count, winner first
	Candidates        []Candidate `json:"candidates"`
}

// HasWinner is false only when no candidate was registered.
func (r Result) HasWinner() bool {
	return r.WinnerID != ""
}

// tally picks the candidate with the most votes. Candidates must be in
// registration order: on equal counts the earliest registered one wins.
func tally(candidates []Candidate) Result {
	res := Result{Candidates: candidates}
	best := -1
	for i, c := range candidates {
		res.TotalVotes += c.VoteCount
		if best < 0 || c.VoteCount > candidates[best].VoteCount {
			best = i
		}
	}
	if best < 0 {
		return res
	}

	winner := candidates[best]
	res.WinnerID = winner.ID
	res.WinnerDescription = winner.Description
	res.WinnerVoteCount = winner.VoteCount

	for _, c := range candidates {
		if c.VoteCount == winner.VoteCount {
			res.Tied = append(res.Tied, c.ID)
		}
	}
	if len(res.Tied) < 2 {
		res.Tied = nil
	}
	return res
}

package arch

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaynamir/archbench/archbench"
)

// totCandidates is the number of independently explored first steps.
const totCandidates = 3

const totPrompt = "Candidate exploration: take the single best next step for " +
	"the request. Either call exactly one tool now, or reply with your final " +
	"one-sentence answer."

// scoring weights for explored candidates
const (
	totServiceBonus = 4
	totDetailsBonus = 3
)

// totCandidate is one explored first step. A candidate that acted carries the
// branch bookkeeping; one that answered directly carries the answer. alive is
// false when the candidate produced something unusable.
type totCandidate struct {
	branch *session
	answer string
	acted  bool
	alive  bool
}

// runToT explores a small beam of candidate first steps, each generated by
// its own think call with a fixed exploration instruction and each acting
// independently with no rollback. Candidates are scored by act success and
// wording overlap, the best path gets the final think, and exactly one
// candidate's answer becomes the final text. A candidate dying on its own
// terms (unknown tool, malformed reply) just drops out of the beam; with
// every candidate dead the run is a Failure, never an Error.
func runToT(ctx context.Context, s *session) archbench.Outcome {
	candidates := make([]totCandidate, 0, totCandidates)
	for i := 0; i < totCandidates; i++ {
		cand, err := s.exploreCandidate(ctx)
		if err != nil {
			return s.resolveStepErr(ctx, err)
		}
		if !cand.alive {
			s.trace.Thought(fmt.Sprintf("candidate %d failed", i+1))
			continue
		}
		candidates = append(candidates, cand)
	}

	best := -1
	bestScore := -1
	for i, cand := range candidates {
		score := candidateScore(s.userText, cand)
		s.trace.Thought(fmt.Sprintf("candidate scored %d: %s", score, cand.summary()))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		s.trace.FinalAnswer("")
		return s.outcome(archbench.StatusFailure, "")
	}

	chosen := candidates[best]
	if chosen.acted && chosen.answer == "" {
		comp, err := chosen.branch.think(ctx, "Answer now in one sentence based on what you observed.", nil)
		if err != nil {
			if ctx.Err() != nil {
				return s.resolveStepErr(ctx, err)
			}
			s.merge(chosen.branch)
			s.trace.FinalAnswer("")
			return s.outcome(archbench.StatusFailure, "")
		}
		chosen.answer = sanitizeOutput(comp.Text)
	}

	s.merge(chosen.branch)
	return s.finish(chosen.answer)
}

// exploreCandidate generates one candidate first step in an isolated branch
// and, when the step is a tool call, executes it. A dead candidate comes back
// with alive=false and a nil error; a non-nil error is a transport or
// deadline problem the caller must escalate.
func (s *session) exploreCandidate(ctx context.Context) (totCandidate, error) {
	branch := newSession(s.userText, s.deps)
	comp, err := branch.think(ctx, totPrompt, toolSpecs())
	if err != nil {
		// only a malformed reply is the candidate's own fault; transport
		// errors and blown deadlines escalate so the breaker sees them
		if errors.Is(err, errMalformedReply) && ctx.Err() == nil {
			return totCandidate{}, nil
		}
		return totCandidate{}, err
	}

	if !comp.IsToolCall() {
		return totCandidate{branch: branch, answer: sanitizeOutput(comp.Text), alive: true}, nil
	}

	obs, err := branch.act(ctx, comp.ToolCall)
	if err != nil {
		if errors.Is(err, errUnknownTool) {
			return totCandidate{}, nil
		}
		return totCandidate{}, err
	}
	branch.fold(comp.ToolCall, obs)
	return totCandidate{branch: branch, acted: true, alive: true}, nil
}

func (c totCandidate) summary() string {
	if c.acted {
		return "acted " + c.branch.trace.Last().Payload
	}
	return "answered " + c.answer
}

// candidateScore ranks a candidate: acting beats reading, reading beats
// talking, and on-topic wording breaks ties. A negative answer with no
// successful act scores zero.
func candidateScore(userText string, cand totCandidate) int {
	score := scoreMatch(userText, cand.answer)
	if cand.branch.didService {
		score += totServiceBonus
	}
	if cand.branch.didDetails {
		score += totDetailsBonus
	}
	if cand.answer != "" && isNegative(cand.answer) && cand.branch.actsOK == 0 {
		score = 0
	}
	return score
}

// merge folds a winning candidate's acts back into the parent session so the
// final classification and trace reflect what actually happened.
func (s *session) merge(branch *session) {
	s.trace = append(s.trace, branch.trace...)
	s.didService = s.didService || branch.didService
	s.didDetails = s.didDetails || branch.didDetails
	s.actsOK += branch.actsOK
	for id := range branch.identified {
		s.identified.Add(id)
	}
}

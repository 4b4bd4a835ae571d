package arch

import (
	"context"
	"strings"

	"github.com/shaynamir/archbench/archbench"
)

const reactPrompt = "Work in explicit Thought/Action cycles. State a one-line " +
	"Thought, then either call a tool or, when done, reply with " +
	"'Final Answer: <sentence>'."

// reactIterations bounds the Thought/Action/Observation cycle count.
const reactIterations = 6

// runReAct interleaves explicit reasoning with tool use. Text replies without
// the final-answer marker are folded back as thoughts, with at most two in a
// row before the model is forced to conclude. Exhausting the iteration bound
// without a final answer is a Failure carrying the last observation.
func runReAct(ctx context.Context, s *session) archbench.Outcome {
	instruction := reactPrompt
	thoughtStreak := 0
	lastObservation := ""

	for i := 0; i < reactIterations; i++ {
		comp, err := s.think(ctx, instruction, toolSpecs())
		if err != nil {
			return s.resolveStepErr(ctx, err)
		}
		instruction = ""

		if comp.IsToolCall() {
			thoughtStreak = 0
			obs, err := s.act(ctx, comp.ToolCall)
			if err != nil {
				return s.resolveStepErr(ctx, err)
			}
			s.fold(comp.ToolCall, obs)
			lastObservation = obs
			continue
		}

		text := sanitizeOutput(comp.Text)
		if answer, ok := splitFinalAnswer(text); ok {
			return s.finish(answer)
		}

		thoughtStreak++
		if thoughtStreak > 2 {
			// model is ruminating without acting, force conclusion
			return s.finish(text)
		}
		s.trace.Thought(text)
		s.conv = append(s.conv, archbench.NewMessage("assistant", text))
		instruction = "Proceed: call a tool or give your Final Answer."
	}

	s.trace.FinalAnswer(lastObservation)
	return s.outcome(archbench.StatusFailure, lastObservation)
}

// splitFinalAnswer detects the 'Final Answer:' marker and returns the text
// after it. Without the marker the whole text comes back with ok=false.
func splitFinalAnswer(text string) (string, bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, "final answer")
	if idx < 0 {
		return text, false
	}
	answer := text[idx+len("final answer"):]
	answer = strings.TrimLeft(answer, ":- ")
	if answer == "" {
		return text, false
	}
	return answer, true
}

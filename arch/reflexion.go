package arch

import (
	"context"
	"fmt"

	"github.com/shaynamir/archbench/archbench"
)

const critiquePrompt = "Critique your answer above. Does it correctly and " +
	"completely handle the original request? Reply 'yes' or 'no' with one " +
	"sentence of reasoning."

// runReflexion makes a Standard-style attempt, self-critiques the result, and
// retries once with the critique folded in. Two attempts at most; the second
// answer stands regardless of what the critique thinks of it.
func runReflexion(ctx context.Context, s *session) archbench.Outcome {
	first := standardFlow(ctx, s, "")
	if first.Status == archbench.StatusTimeout || first.Status == archbench.StatusError {
		return first
	}

	verdictOK, critique := s.critique(ctx, first.FinalText)
	if verdictOK && !obviouslyBad(s.userText, first.FinalText) {
		// re-snapshot so the kept outcome carries the critique thought
		return s.outcome(first.Status, first.FinalText)
	}

	s.trace.Thought("retrying after self-critique: " + critique)
	retryInstruction := fmt.Sprintf(
		"Your previous answer was judged insufficient: %s Redo the request properly using the tools.",
		critique)
	return standardFlow(ctx, s, retryInstruction)
}

// critique asks the model to judge its own answer. A failed critique call is
// treated as approval; reflection must never make an otherwise good run worse.
func (s *session) critique(ctx context.Context, answer string) (bool, string) {
	conv := append(append([]archbench.Message{}, s.conv...),
		archbench.NewMessage("assistant", answer),
		archbench.NewMessage("user", critiquePrompt),
	)
	comp, err := s.deps.Port.Complete(ctx, conv, nil)
	if err != nil || comp == nil {
		return true, ""
	}
	text := sanitizeOutput(comp.Text)
	s.trace.Thought("critique: " + text)
	return parseVerdict(text), text
}

// obviouslyBad flags answers that share no vocabulary with the request. Such
// answers are retried even when the self-critique approves them; small models
// routinely rubber-stamp their own off-topic replies.
func obviouslyBad(userText, answer string) bool {
	return scoreMatch(userText, answer) == 0
}

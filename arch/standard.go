package arch

import (
	"context"

	"github.com/shaynamir/archbench/archbench"
)

// runStandard is the baseline: one think, at most one act, one final think
// that must resolve to text.
func runStandard(ctx context.Context, s *session) archbench.Outcome {
	return standardFlow(ctx, s, "")
}

// standardFlow drives the Think -> (Act -> final Think)? machine shared by
// Standard, CoT and Reflexion. instruction seeds the first think only. A
// second tool call at the final think is a contract violation.
func standardFlow(ctx context.Context, s *session, instruction string) archbench.Outcome {
	comp, err := s.think(ctx, instruction, toolSpecs())
	if err != nil {
		return s.resolveStepErr(ctx, err)
	}
	if !comp.IsToolCall() {
		return s.finish(comp.Text)
	}

	obs, err := s.act(ctx, comp.ToolCall)
	if err != nil {
		return s.resolveStepErr(ctx, err)
	}
	s.fold(comp.ToolCall, obs)

	comp, err = s.think(ctx, "Answer now in one sentence based on what you observed.", nil)
	if err != nil {
		return s.resolveStepErr(ctx, err)
	}
	if comp.IsToolCall() {
		s.trace.ToolCall(comp.ToolCall.Name, comp.ToolCall.Args)
		return s.outcome(archbench.StatusError, "model requested a second tool call")
	}
	return s.finish(comp.Text)
}

package arch

import (
	"context"

	"github.com/shaynamir/archbench/archbench"
)

const planPrompt = "Before acting, write a short numbered plan " +
	"(2-4 steps) for handling the request. Plan only, no tool calls yet."

// runCoT asks for an explicit numbered plan first, records it as thought
// steps, then executes the plain tool loop with the plan in context. An
// unusable plan degrades to the Standard flow rather than failing the run.
func runCoT(ctx context.Context, s *session) archbench.Outcome {
	comp, err := s.think(ctx, planPrompt, nil)
	if err != nil {
		return s.resolveStepErr(ctx, err)
	}

	plan := sanitizeOutput(comp.Text)
	steps := extractPlanSteps(comp.Text)
	if steps == nil {
		s.trace.Thought("no usable plan, degrading to direct execution")
		return standardFlow(ctx, s, "")
	}
	for _, step := range steps {
		s.trace.Thought(step)
	}
	s.conv = append(s.conv, archbench.NewMessage("assistant", plan))

	return standardFlow(ctx, s, "Now execute your plan using the tools.")
}

package archbench

import (
	"time"
)

// StepKind identifies one kind of trace step.
type StepKind string

const (
	// StepThought records model reasoning that is not a tool call.
	StepThought StepKind = "thought"
	// StepToolCall records a tool invocation request.
	StepToolCall StepKind = "tool_call"
	// StepToolResult records the gateway's reply to the preceding call.
	StepToolResult StepKind = "tool_result"
	// StepFinalAnswer records the final natural-language answer.
	StepFinalAnswer StepKind = "final_answer"
)

// TraceStep is one entry of an execution trace.
type TraceStep struct {
	Kind StepKind `json:"kind"`
	// Text carries the thought or final answer for Thought/FinalAnswer
	// steps.
	Text string `json:"text,omitempty"`
	// Tool and Args are set for ToolCall steps.
	Tool string         `json:"tool,omitempty"`
	Args map[string]any `json:"args,omitempty"`
	// Payload carries the serialized observation for ToolResult steps.
	Payload string `json:"payload,omitempty"`
	// Err is set on a ToolResult step when the gateway call failed.
	Err string `json:"error,omitempty"`
	At  time.Time `json:"at"`
}

// ExecutionTrace is the ordered step sequence of a single execution. It is
// append-only and owned exclusively by the execution that produced it.
type ExecutionTrace []TraceStep

// Thought appends a reasoning step.
func (t *ExecutionTrace) Thought(text string) {
	*t = append(*t, TraceStep{Kind: StepThought, Text: text, At: time.Now().UTC()})
}

// ToolCall appends a tool invocation step.
func (t *ExecutionTrace) ToolCall(tool string, args map[string]any) {
	*t = append(*t, TraceStep{Kind: StepToolCall, Tool: tool, Args: args, At: time.Now().UTC()})
}

// ToolResult appends a successful observation step.
func (t *ExecutionTrace) ToolResult(payload string) {
	*t = append(*t, TraceStep{Kind: StepToolResult, Payload: payload, At: time.Now().UTC()})
}

// ToolError appends a failed observation step.
func (t *ExecutionTrace) ToolError(err error) {
	*t = append(*t, TraceStep{Kind: StepToolResult, Err: err.Error(), At: time.Now().UTC()})
}

// FinalAnswer appends the final answer step.
func (t *ExecutionTrace) FinalAnswer(text string) {
	*t = append(*t, TraceStep{Kind: StepFinalAnswer, Text: text, At: time.Now().UTC()})
}

// Acts counts the tool-call steps in the trace.
func (t ExecutionTrace) Acts() int {
	n := 0
	for _, s := range t {
		if s.Kind == StepToolCall {
			n++
		}
	}
	return n
}

// Last returns the most recent step, or a zero step for an empty trace.
func (t ExecutionTrace) Last() TraceStep {
	if len(t) == 0 {
		return TraceStep{}
	}
	return t[len(t)-1]
}

// Status is the outcome taxonomy of a single execution.
type Status string

const (
	// StatusSuccess means a final answer was produced and every act the
	// command implied succeeded.
	StatusSuccess Status = "success"
	// StatusFailure is a well-formed negative result, e.g. the agent
	// correctly reports that a device does not exist.
	StatusFailure Status = "failure"
	// StatusTimeout means the wall-clock budget was exceeded.
	StatusTimeout Status = "timeout"
	// StatusError is a contract violation: malformed model output, a
	// propagated gateway exception, or an unknown tool name.
	StatusError Status = "error"
)

// Outcome is the immutable result of one execution. Engines never return Go
// errors past their Execute boundary; all failure information rides here.
type Outcome struct {
	Status             Status         `json:"status"`
	FinalText          string         `json:"final_text"`
	Elapsed            time.Duration  `json:"elapsed_ns"`
	Trace              ExecutionTrace `json:"trace,omitempty"`
	IdentifiedEntities []string       `json:"identified_entities,omitempty"`
}

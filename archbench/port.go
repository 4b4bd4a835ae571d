package archbench

import (
	"context"
)

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Completion is one model reply: either a tool-call request or a final
// natural-language answer, never both.
type Completion struct {
	ToolCall *ToolCall `json:"tool_call,omitempty"`
	Text     string    `json:"text,omitempty"`
}

// IsToolCall reports whether the completion requests a tool invocation.
func (c *Completion) IsToolCall() bool {
	return c != nil && c.ToolCall != nil
}

// CompletionPort is the consumed model contract: send a conversation plus the
// available tools, receive either a tool invocation request or a final
// answer. Per-call deadlines arrive through ctx; exceeding one returns
// context.DeadlineExceeded rather than hanging.
type CompletionPort interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSpec) (*Completion, error)

	// Model returns the identifier of the model behind the port.
	Model() string
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaynamir/archbench/archbench"
)

// OllamaPort implements the CompletionPort against Ollama's native chat API
// with tool calling. Per-call deadlines ride on ctx; the client itself only
// carries a generous safety-net timeout.
type OllamaPort struct {
	model   string
	baseURL string
	client  *http.Client
}

var _ archbench.CompletionPort = (*OllamaPort)(nil)

// NewOllamaPort creates a port for one model on an Ollama server.
func NewOllamaPort(model, baseURL string) *OllamaPort {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaPort{
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// Model returns the model identifier.
func (o *OllamaPort) Model() string {
	return o.model
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Complete sends the conversation plus the toolset and returns either a tool
// invocation request or final text.
func (o *OllamaPort) Complete(ctx context.Context, messages []archbench.Message, tools []archbench.ToolSpec) (*archbench.Completion, error) {
	req := ollamaChatRequest{
		Model:    o.model,
		Stream:   false,
		Messages: make([]ollamaMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, ollamaTool{
			Type: "function",
			Function: ollamaToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama chat: status %d: %s", resp.StatusCode, data)
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	if len(chat.Message.ToolCalls) > 0 {
		call := chat.Message.ToolCalls[0]
		return &archbench.Completion{ToolCall: &archbench.ToolCall{
			Name: call.Function.Name,
			Args: call.Function.Arguments,
		}}, nil
	}
	return &archbench.Completion{Text: chat.Message.Content}, nil
}

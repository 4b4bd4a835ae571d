package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/shaynamir/archbench/archbench"
)

// OpenAIPort implements the CompletionPort against any OpenAI-compatible
// chat endpoint. Local gateways rarely check the key, so an empty apiKey is
// fine for Ollama's /v1 or LiteLLM.
type OpenAIPort struct {
	model  string
	client *openai.Client
}

var _ archbench.CompletionPort = (*OpenAIPort)(nil)

// NewOpenAIPort creates a port for one model behind an OpenAI-compatible
// endpoint at baseURL.
func NewOpenAIPort(model, baseURL, apiKey string) *OpenAIPort {
	if apiKey == "" {
		apiKey = "unused"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIPort{
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Model returns the model identifier.
func (p *OpenAIPort) Model() string {
	return p.model
}

// Complete sends the conversation plus the toolset and returns either a tool
// invocation request or final text.
func (p *OpenAIPort) Complete(ctx context.Context, messages []archbench.Message, tools []archbench.ToolSpec) (*archbench.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		role, content := m.Role, m.Content
		// strict servers reject bare tool turns without a call id, so
		// observations travel as user turns instead
		if role == "tool" {
			role, content = openai.ChatMessageRoleUser, "Tool result: "+content
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: content,
		})
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty choice list")
	}
	msg := resp.Choices[0].Message

	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool arguments for %s: %w", call.Function.Name, err)
			}
		}
		return &archbench.Completion{ToolCall: &archbench.ToolCall{
			Name: call.Function.Name,
			Args: args,
		}}, nil
	}
	return &archbench.Completion{Text: msg.Content}, nil
}

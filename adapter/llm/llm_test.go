package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaynamir/archbench/archbench"
)

func TestOllamaPortToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "call_service" {
			t.Errorf("tools = %+v", req.Tools)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Done: true,
			Message: ollamaMessage{
				Role: "assistant",
				ToolCalls: []ollamaToolCall{{Function: ollamaFunctionCall{
					Name: "call_service",
					Arguments: map[string]any{
						"domain": "light", "service": "turn_on", "entity_id": "light.bed_light",
					},
				}}},
			},
		})
	}))
	defer srv.Close()

	port := NewOllamaPort("qwen3:4b", srv.URL)
	comp, err := port.Complete(context.Background(),
		[]archbench.Message{archbench.NewMessage("user", "turn on the bed light")},
		[]archbench.ToolSpec{{Name: "call_service", Description: "invoke a service"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !comp.IsToolCall() || comp.ToolCall.Name != "call_service" {
		t.Fatalf("completion = %+v", comp)
	}
	if comp.ToolCall.Args["entity_id"] != "light.bed_light" {
		t.Errorf("args = %v", comp.ToolCall.Args)
	}
}

func TestOllamaPortFinalText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Done:    true,
			Message: ollamaMessage{Role: "assistant", Content: "The bed light is on."},
		})
	}))
	defer srv.Close()

	port := NewOllamaPort("phi3:mini", srv.URL)
	comp, err := port.Complete(context.Background(),
		[]archbench.Message{archbench.NewMessage("user", "is the bed light on?")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if comp.IsToolCall() || comp.Text != "The bed light is on." {
		t.Fatalf("completion = %+v", comp)
	}
}

func TestOllamaPortServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	port := NewOllamaPort("missing", srv.URL)
	_, err := port.Complete(context.Background(),
		[]archbench.Message{archbench.NewMessage("user", "hello")}, nil)
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestOpenAIPortToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		msgs := req["messages"].([]any)
		last := msgs[len(msgs)-1].(map[string]any)
		if last["role"] == "tool" {
			t.Error("tool turns must be rewritten for strict servers")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "get_state",
							"arguments": `{"entity_id":"lock.front_door"}`,
						},
					}},
				},
			}},
		})
	}))
	defer srv.Close()

	port := NewOpenAIPort("mistral", srv.URL, "")
	comp, err := port.Complete(context.Background(),
		[]archbench.Message{
			archbench.NewMessage("user", "is the front door locked?"),
			archbench.NewMessage("tool", `{"state":"locked"}`),
		},
		[]archbench.ToolSpec{{Name: "get_state", Description: "read a state"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !comp.IsToolCall() || comp.ToolCall.Name != "get_state" {
		t.Fatalf("completion = %+v", comp)
	}
	if comp.ToolCall.Args["entity_id"] != "lock.front_door" {
		t.Errorf("args = %v", comp.ToolCall.Args)
	}
}

func TestNewPortBackendSelection(t *testing.T) {
	port, err := NewPort(archbench.ModelHandle{Name: "phi3:mini", Backend: archbench.BackendOllama})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := port.(*OllamaPort); !ok {
		t.Errorf("port = %T, want *OllamaPort", port)
	}

	port, err = NewPort(archbench.ModelHandle{Name: "mistral", Backend: archbench.BackendOpenAI})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := port.(*OpenAIPort); !ok {
		t.Errorf("port = %T, want *OpenAIPort", port)
	}

	if _, err := NewPort(archbench.ModelHandle{}); err == nil {
		t.Error("expected an error for a nameless handle")
	}
}

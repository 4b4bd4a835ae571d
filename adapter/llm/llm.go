// Package llm implements the CompletionPort against local model servers:
// the native Ollama chat API and any OpenAI-compatible endpoint (Ollama's
// /v1, LiteLLM, vLLM).
package llm

import (
	"fmt"

	"github.com/shaynamir/archbench/archbench"
)

// NewPort builds the CompletionPort for a model handle based on its backend.
// An empty backend defaults to Ollama, matching the local-first model list.
func NewPort(model archbench.ModelHandle) (archbench.CompletionPort, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	switch model.Backend {
	case archbench.BackendOllama, "":
		return NewOllamaPort(model.Name, model.BaseURL), nil
	case archbench.BackendOpenAI:
		return NewOpenAIPort(model.Name, model.BaseURL, ""), nil
	default:
		return nil, fmt.Errorf("unsupported model backend %q", model.Backend)
	}
}

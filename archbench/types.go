// Package archbench provides the core contracts and data model for the
// smart-home agent architecture benchmark.
//
// The package is deliberately small: it defines the types that cross package
// boundaries (commands, models, traces, outcomes) and the two consumed
// interfaces (ToolGateway, CompletionPort). Everything else, from the five
// architecture state machines to the orchestrator and adapters, lives in its
// own package and depends only on this one.
package archbench

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies a benchmark command.
type Category string

const (
	// CategoryAction is a command that should mutate device state.
	CategoryAction Category = "action"
	// CategoryStatus is a query that should read device state.
	CategoryStatus Category = "status"
	// CategoryError is a command referencing a nonexistent or ambiguous
	// device; the correct behavior is a well-formed negative reply.
	CategoryError Category = "error"
)

// Command is one utterance of the benchmark corpus. Commands are immutable
// after corpus load.
type Command struct {
	// ID is a stable identifier used as part of the persisted unit key.
	ID string `json:"id"`
	// Text is the natural-language utterance sent to the agent.
	Text string `json:"text"`
	// Category drives scoring and profile selection.
	Category Category `json:"category"`
	// Domain is the home-automation domain the command targets
	// (light, switch, fan, lock); empty for error-handling commands.
	Domain string `json:"domain,omitempty"`
	// Device is the friendly device name mentioned in the text.
	Device string `json:"device,omitempty"`
	// ExpectedEntities are the entity ids a correct execution must
	// identify. Empty for error-handling commands.
	ExpectedEntities []string `json:"expected_entities,omitempty"`
}

// PrimaryEntity returns the first expected entity, or "" when the command has
// none. The orchestrator uses it to serialize units that touch the same
// device.
func (c Command) PrimaryEntity() string {
	if len(c.ExpectedEntities) == 0 {
		return ""
	}
	return c.ExpectedEntities[0]
}

// Backend identifies a completion-port implementation.
type Backend string

const (
	// BackendOllama talks to the native Ollama chat API.
	BackendOllama Backend = "ollama"
	// BackendOpenAI talks to any OpenAI-compatible endpoint
	// (LiteLLM, Ollama's /v1, vLLM).
	BackendOpenAI Backend = "openai"
)

// ModelHandle names one local model and how to reach it. Handles are
// immutable; one exists per supported model.
type ModelHandle struct {
	Name    string  `json:"name"`
	Backend Backend `json:"backend"`
	BaseURL string  `json:"base_url,omitempty"`
}

// String returns a short identifier suitable for use in unit keys.
func (m ModelHandle) String() string {
	return m.Name
}

// Validate checks the handle is usable.
func (m ModelHandle) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("model handle requires a name")
	}
	switch m.Backend {
	case BackendOllama, BackendOpenAI, "":
	default:
		return fmt.Errorf("unknown model backend %q", m.Backend)
	}
	return nil
}

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// EntitySet is an order-insensitive set of entity ids with stable iteration.
type EntitySet map[string]struct{}

// NewEntitySet builds a set from ids, ignoring empties.
func NewEntitySet(ids ...string) EntitySet {
	s := make(EntitySet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an id; empty ids are ignored.
func (s EntitySet) Add(id string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	s[id] = struct{}{}
}

// Contains reports whether id is in the set.
func (s EntitySet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Equal reports whether both sets hold exactly the same ids. Two empty sets
// are equal; this is how a zero-expectation command scores an entity match.
func (s EntitySet) Equal(other EntitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Slice returns the ids in lexical order.
func (s EntitySet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

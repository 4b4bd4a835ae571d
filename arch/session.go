package arch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shaynamir/archbench/archbench"
)

// Tool names offered to the model. They map 1:1 onto the ToolGateway
// contract.
const (
	toolListEntities = "list_entities"
	toolGetState     = "get_state"
	toolCallService  = "call_service"
)

// errUnknownTool marks a model tool call referencing a tool we never offered.
var errUnknownTool = errors.New("unknown tool")

// errMalformedReply marks a completion that is neither a tool call nor text.
// Distinct from transport errors so ToT can drop the candidate instead of
// escalating.
var errMalformedReply = errors.New("malformed model reply")

const systemPrompt = "You are a smart-home assistant. Use tools only; " +
	"never guess entity ids or service names. Actions require a " +
	"call_service tool call before replying. Status questions require a " +
	"get_state tool call before replying. Reply with ONE short English sentence."

func toolSpecs() []archbench.ToolSpec {
	return []archbench.ToolSpec{
		{
			Name:        toolListEntities,
			Description: "List entities of a home-automation domain (light, switch, fan, lock). Empty domain lists all.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"domain": map[string]any{"type": "string"},
				},
			},
		},
		{
			Name:        toolGetState,
			Description: "Read the current state of one entity by entity_id.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"entity_id": map[string]any{"type": "string"},
				},
				"required": []string{"entity_id"},
			},
		},
		{
			Name:        toolCallService,
			Description: "Invoke a service on an entity, e.g. domain=light service=turn_on entity_id=light.bed_light.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"domain":    map[string]any{"type": "string"},
					"service":   map[string]any{"type": "string"},
					"entity_id": map[string]any{"type": "string"},
					"data":      map[string]any{"type": "object"},
				},
				"required": []string{"domain", "service", "entity_id"},
			},
		},
	}
}

// session carries the mutable state of one execution: the conversation, the
// trace, and the act bookkeeping the final classification needs. A session is
// owned by exactly one Execute call and never shared.
type session struct {
	deps     Deps
	userText string
	intent   intent
	start    time.Time

	conv       []archbench.Message
	trace      archbench.ExecutionTrace
	identified archbench.EntitySet

	didService bool
	didDetails bool
	actsOK     int
}

func newSession(userText string, deps Deps) *session {
	return &session{
		deps:     deps,
		userText: userText,
		intent:   inferIntent(userText),
		start:    time.Now(),
		conv: []archbench.Message{
			archbench.NewMessage("system", systemPrompt),
			archbench.NewMessage("user", userText),
		},
		identified: archbench.NewEntitySet(),
	}
}

// think performs one model round-trip with the standard toolset. instruction,
// when non-empty, is appended to the conversation as a user turn first.
func (s *session) think(ctx context.Context, instruction string, tools []archbench.ToolSpec) (*archbench.Completion, error) {
	if instruction != "" {
		s.conv = append(s.conv, archbench.NewMessage("user", instruction))
	}
	comp, err := s.deps.Port.Complete(ctx, s.conv, tools)
	if err != nil {
		return nil, err
	}
	if comp == nil || (!comp.IsToolCall() && strings.TrimSpace(comp.Text) == "") {
		return nil, fmt.Errorf("%w: empty completion", errMalformedReply)
	}
	return comp, nil
}

// act executes one tool call against the gateway, appends ToolCall/ToolResult
// steps to the trace, and returns the serialized observation. Transport
// errors come back wrapped; the caller maps them to an Error outcome.
func (s *session) act(ctx context.Context, call *archbench.ToolCall) (string, error) {
	s.trace.ToolCall(call.Name, call.Args)

	switch call.Name {
	case toolListEntities:
		domain, _ := call.Args["domain"].(string)
		entities, err := s.deps.Gateway.ListEntitiesByDomain(ctx, domain)
		if err != nil {
			s.trace.ToolError(err)
			return "", fmt.Errorf("list_entities(%s): %w", domain, err)
		}
		obs := s.summarizeEntities(entities)
		s.trace.ToolResult(obs)
		return obs, nil

	case toolGetState:
		entityID, _ := call.Args["entity_id"].(string)
		rec, err := s.deps.Gateway.GetState(ctx, entityID)
		if errors.Is(err, archbench.ErrEntityNotFound) {
			obs := fmt.Sprintf(`{"entity_id":%q,"state":"not_found"}`, entityID)
			s.trace.ToolResult(obs)
			return obs, nil
		}
		if err != nil {
			s.trace.ToolError(err)
			return "", fmt.Errorf("get_state(%s): %w", entityID, err)
		}
		s.didDetails = true
		s.actsOK++
		s.identified.Add(rec.EntityID)
		obs, _ := json.Marshal(map[string]any{
			"entity_id": rec.EntityID,
			"name":      rec.Name,
			"state":     rec.State,
		})
		s.trace.ToolResult(string(obs))
		return string(obs), nil

	case toolCallService:
		domain, _ := call.Args["domain"].(string)
		service, _ := call.Args["service"].(string)
		entityID, _ := call.Args["entity_id"].(string)
		data, _ := call.Args["data"].(map[string]any)
		err := s.deps.Gateway.CallService(ctx, domain, service, entityID, data)
		if errors.Is(err, archbench.ErrEntityNotFound) {
			obs := fmt.Sprintf(`{"entity_id":%q,"state":"not_found"}`, entityID)
			s.trace.ToolResult(obs)
			return obs, nil
		}
		if err != nil {
			s.trace.ToolError(err)
			return "", fmt.Errorf("call_service(%s.%s %s): %w", domain, service, entityID, err)
		}
		s.didService = true
		s.actsOK++
		s.identified.Add(entityID)
		obs, _ := json.Marshal(map[string]any{
			"service_done": true,
			"domain":       domain,
			"service":      service,
			"entity_id":    entityID,
		})
		s.trace.ToolResult(string(obs))
		return string(obs), nil

	default:
		err := fmt.Errorf("%w: %q", errUnknownTool, call.Name)
		s.trace.ToolError(err)
		return "", err
	}
}

// summarizeEntities ranks a listing by token overlap with the user text and
// keeps the top candidates, so small models see a short, relevant list.
func (s *session) summarizeEntities(entities []archbench.Entity) string {
	const topK = 6
	ranked := make([]archbench.Entity, len(entities))
	copy(ranked, entities)
	scores := make(map[string]int, len(ranked))
	for _, e := range ranked {
		scores[e.EntityID] = scoreMatch(s.userText, e.EntityID+" "+e.Name)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].EntityID] > scores[ranked[j].EntityID]
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	obs, _ := json.Marshal(map[string]any{
		"candidates": ranked,
		"count":      len(entities),
	})
	return string(obs)
}

// fold feeds a tool call and its observation back into the conversation so
// the next think sees what happened.
func (s *session) fold(call *archbench.ToolCall, observation string) {
	args, _ := json.Marshal(call.Args)
	s.conv = append(s.conv,
		archbench.NewMessage("assistant", fmt.Sprintf("TOOL_CALL %s %s", call.Name, args)),
		archbench.NewMessage("tool", observation),
	)
}

// outcome assembles the immutable result of this execution.
func (s *session) outcome(status archbench.Status, finalText string) archbench.Outcome {
	return archbench.Outcome{
		Status:             status,
		FinalText:          finalText,
		Elapsed:            time.Since(s.start),
		Trace:              s.trace,
		IdentifiedEntities: s.identified.Slice(),
	}
}

// finish classifies a final answer against the act bookkeeping. A confident
// answer without the act the intent requires is a failure, not a success; a
// negative reply ("device not found") is a well-formed failure by definition.
func (s *session) finish(finalText string) archbench.Outcome {
	text := sanitizeOutput(finalText)
	s.trace.FinalAnswer(text)

	switch s.intent {
	case intentAction:
		if s.didService && s.actsOK > 0 && !isNegative(text) {
			return s.outcome(archbench.StatusSuccess, text)
		}
	case intentStatus:
		if s.didDetails && !isNegative(text) {
			return s.outcome(archbench.StatusSuccess, text)
		}
	}
	return s.outcome(archbench.StatusFailure, text)
}

// resolveStepErr maps a think/act error onto the outcome taxonomy: a blown
// deadline is Timeout with the partial trace, everything else is Error.
func (s *session) resolveStepErr(ctx context.Context, err error) archbench.Outcome {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return s.outcome(archbench.StatusTimeout, "")
	}
	return s.outcome(archbench.StatusError, err.Error())
}

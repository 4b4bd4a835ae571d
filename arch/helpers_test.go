package arch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shaynamir/archbench/archbench"
)

// scriptedPort replays a fixed sequence of completions, one per Complete
// call, in order.
type scriptedPort struct {
	script    []archbench.Completion
	callCount int
	blockHard bool
	failWith  error
}

func (p *scriptedPort) Complete(ctx context.Context, messages []archbench.Message, tools []archbench.ToolSpec) (*archbench.Completion, error) {
	if p.blockHard {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.failWith != nil {
		return nil, p.failWith
	}
	if p.callCount >= len(p.script) {
		return nil, fmt.Errorf("no more scripted completions (call %d)", p.callCount)
	}
	c := p.script[p.callCount]
	p.callCount++
	return &c, nil
}

func (p *scriptedPort) Model() string { return "scripted" }

func textReply(text string) archbench.Completion {
	return archbench.Completion{Text: text}
}

func toolReply(name string, args map[string]any) archbench.Completion {
	return archbench.Completion{ToolCall: &archbench.ToolCall{Name: name, Args: args}}
}

// fakeGateway serves a tiny fixed home: two lights, a fan, and a lock.
type fakeGateway struct {
	failWith     error
	serviceCalls []string
}

var fixtureStates = []archbench.StateRecord{
	{EntityID: "light.bed_light", Name: "Bed Light", Domain: "light", State: "off"},
	{EntityID: "light.ceiling_lights", Name: "Ceiling Lights", Domain: "light", State: "on"},
	{EntityID: "fan.living_room_fan", Name: "Living Room Fan", Domain: "fan", State: "off"},
	{EntityID: "lock.front_door", Name: "Front Door", Domain: "lock", State: "locked"},
}

func (g *fakeGateway) ListEntitiesByDomain(ctx context.Context, domain string) ([]archbench.Entity, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	var out []archbench.Entity
	for _, st := range fixtureStates {
		if domain == "" || st.Domain == domain {
			out = append(out, archbench.Entity{EntityID: st.EntityID, Name: st.Name})
		}
	}
	return out, nil
}

func (g *fakeGateway) GetState(ctx context.Context, entityID string) (*archbench.StateRecord, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	for _, st := range fixtureStates {
		if st.EntityID == entityID {
			rec := st
			return &rec, nil
		}
	}
	return nil, archbench.ErrEntityNotFound
}

func (g *fakeGateway) CallService(ctx context.Context, domain, service, entityID string, data map[string]any) error {
	if g.failWith != nil {
		return g.failWith
	}
	found := false
	for _, st := range fixtureStates {
		if st.EntityID == entityID {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("service %s.%s: %w", domain, service, archbench.ErrEntityNotFound)
	}
	g.serviceCalls = append(g.serviceCalls, fmt.Sprintf("%s.%s %s", domain, service, entityID))
	return nil
}

func testDeps(port archbench.CompletionPort, gw archbench.ToolGateway) Deps {
	return Deps{Port: port, Gateway: gw, Timeout: 5 * time.Second}
}

func hasStep(trace archbench.ExecutionTrace, kind archbench.StepKind, contains string) bool {
	for _, step := range trace {
		if step.Kind != kind {
			continue
		}
		if contains == "" || strings.Contains(step.Text+step.Payload+step.Err+step.Tool, contains) {
			return true
		}
	}
	return false
}

package arch

import (
	"context"
	"errors"
	"testing"

	"github.com/shaynamir/archbench/archbench"
)

func turnOnBedLight() archbench.Completion {
	return toolReply(toolCallService, map[string]any{
		"domain": "light", "service": "turn_on", "entity_id": "light.bed_light",
	})
}

func TestCoTRecordsPlanThoughts(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("1. Locate the bed light entity\n2. Call light.turn_on on it"),
		turnOnBedLight(),
		textReply("The bed light is now on."),
	}}

	out := Execute(context.Background(), KindCoT, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success", out.Status)
	}
	if !hasStep(out.Trace, archbench.StepThought, "Locate the bed light") {
		t.Error("trace missing first plan step")
	}
	if !hasStep(out.Trace, archbench.StepThought, "light.turn_on") {
		t.Error("trace missing second plan step")
	}
}

func TestCoTDegradesOnUnusablePlan(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("I will just turn it on."),
		turnOnBedLight(),
		textReply("The bed light is now on."),
	}}

	out := Execute(context.Background(), KindCoT, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success via degraded flow", out.Status)
	}
	if !hasStep(out.Trace, archbench.StepThought, "no usable plan") {
		t.Error("trace missing degradation thought")
	}
}

func TestReActThoughtActionCycle(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("Thought: I should switch on the bed light."),
		turnOnBedLight(),
		textReply("Final Answer: The bed light is now on."),
	}}

	out := Execute(context.Background(), KindReAct, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success", out.Status)
	}
	if !hasStep(out.Trace, archbench.StepThought, "switch on the bed light") {
		t.Error("trace missing the thought step")
	}
	if out.FinalText != "The bed light is now on." {
		t.Errorf("final text = %q, marker not stripped", out.FinalText)
	}
}

func TestReActStopsRuminating(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("Thinking about lights."),
		textReply("Still thinking about lights."),
		textReply("Definitely thinking about lights."),
	}}

	out := Execute(context.Background(), KindReAct, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusFailure {
		t.Fatalf("status = %s, want failure for an act-free run", out.Status)
	}
	if port.callCount != 3 {
		t.Errorf("model calls = %d, want 3", port.callCount)
	}
}

func TestReActRespectsLoopBound(t *testing.T) {
	var script []archbench.Completion
	for i := 0; i < reactIterations+4; i++ {
		script = append(script, toolReply(toolListEntities, map[string]any{"domain": "light"}))
	}
	port := &scriptedPort{script: script}

	out := Execute(context.Background(), KindReAct, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusFailure {
		t.Fatalf("status = %s, want failure at the loop bound", out.Status)
	}
	if got := out.Trace.Acts(); got != reactIterations {
		t.Errorf("acts = %d, want %d", got, reactIterations)
	}
	if out.FinalText == "" {
		t.Error("final text should carry the last observation")
	}
}

func TestReflexionKeepsApprovedAnswer(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		turnOnBedLight(),
		textReply("The bed light is now on."),
		textReply("Yes, the request was handled correctly."),
	}}

	out := Execute(context.Background(), KindReflexion, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success", out.Status)
	}
	if port.callCount != 3 {
		t.Errorf("model calls = %d, want 3 (loop, answer, critique)", port.callCount)
	}
	if !hasStep(out.Trace, archbench.StepThought, "critique: Yes") {
		t.Error("kept outcome should carry the critique thought in its trace")
	}
}

func TestReflexionRetriesAfterBadAnswer(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("Done."),
		textReply("No, it never called a service."),
		turnOnBedLight(),
		textReply("The bed light is now on."),
	}}

	out := Execute(context.Background(), KindReflexion, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success on the retry", out.Status)
	}
	if !hasStep(out.Trace, archbench.StepThought, "retrying after self-critique") {
		t.Error("trace missing the retry thought")
	}
}

func TestReflexionStopsAfterTwoAttempts(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("Done."),
		textReply("No, that answer is useless."),
		textReply("Okay."),
	}}

	out := Execute(context.Background(), KindReflexion, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusFailure {
		t.Fatalf("status = %s, want failure", out.Status)
	}
	if port.callCount != 3 {
		t.Errorf("model calls = %d, want exactly 3 (no third attempt)", port.callCount)
	}
}

func TestToTPicksActingCandidate(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		turnOnBedLight(),                      // candidate 1 acts
		textReply("It should already be on."), // candidate 2 answers directly
		textReply("I will check later."),      // candidate 3 answers directly
		textReply("The bed light is now on."), // final think on the winner
	}}
	gw := &fakeGateway{}

	out := Execute(context.Background(), KindToT, "Turn on the Bed Light", testDeps(port, gw))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success (final: %q)", out.Status, out.FinalText)
	}
	if out.FinalText != "The bed light is now on." {
		t.Errorf("final text = %q, want the acting candidate's answer", out.FinalText)
	}
	if len(gw.serviceCalls) != 1 {
		t.Errorf("service calls = %v, want one", gw.serviceCalls)
	}
	if len(out.IdentifiedEntities) != 1 || out.IdentifiedEntities[0] != "light.bed_light" {
		t.Errorf("identified = %v", out.IdentifiedEntities)
	}
}

func TestToTAllCandidatesFailPicksOneAnswer(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply("I cannot find that device."),
		toolReply("reboot_house", nil),
		textReply("I cannot help with that."),
	}}

	out := Execute(context.Background(), KindToT, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusFailure {
		t.Fatalf("status = %s, want failure when every candidate fails", out.Status)
	}
	if out.FinalText != "I cannot find that device." {
		t.Errorf("final text = %q, want the first candidate's answer", out.FinalText)
	}
}

func TestToTMalformedCandidateDiesQuietly(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		textReply(""),                         // candidate 1 returns nothing
		turnOnBedLight(),                      // candidate 2 acts
		textReply("I will check later."),      // candidate 3 answers directly
		textReply("The bed light is now on."), // final think on the winner
	}}

	out := Execute(context.Background(), KindToT, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusSuccess {
		t.Fatalf("status = %s, want success despite the dead candidate", out.Status)
	}
	if !hasStep(out.Trace, archbench.StepThought, "candidate 1 failed") {
		t.Error("trace missing the dead-candidate thought")
	}
}

func TestToTPortOutageEscalates(t *testing.T) {
	port := &scriptedPort{failWith: errors.New("connection refused")}

	out := Execute(context.Background(), KindToT, "Turn on the Bed Light", testDeps(port, &fakeGateway{}))

	if out.Status != archbench.StatusError {
		t.Fatalf("status = %s, want error when the model server is down", out.Status)
	}
}

func TestToTTransportErrorEscalates(t *testing.T) {
	port := &scriptedPort{script: []archbench.Completion{
		turnOnBedLight(),
	}}
	gw := &fakeGateway{failWith: errors.New("connection refused")}

	out := Execute(context.Background(), KindToT, "Turn on the Bed Light", testDeps(port, gw))

	if out.Status != archbench.StatusError {
		t.Fatalf("status = %s, want error for a transport failure", out.Status)
	}
}

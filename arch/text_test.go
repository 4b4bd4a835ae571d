package arch

import (
	"reflect"
	"testing"
)

func TestSanitizeOutput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<think>lots of\nreasoning</think>The light is on.", "The light is on."},
		{"```json\n{}\n```Done.", "Done."},
		{"  spread   over\n\nlines ", "spread over lines"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := sanitizeOutput(tt.in); got != tt.want {
			t.Errorf("sanitizeOutput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInferIntent(t *testing.T) {
	tests := []struct {
		text string
		want intent
	}{
		{"Turn on the Bed Light", intentAction},
		{"Lock the Front Door", intentAction},
		{"Is the Living Room Fan on?", intentStatus},
		{"What is the state of the Ceiling Lights?", intentStatus},
	}
	for _, tt := range tests {
		if got := inferIntent(tt.text); got != tt.want {
			t.Errorf("inferIntent(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestExtractPlanSteps(t *testing.T) {
	steps := extractPlanSteps("1. Find the light\n2) Turn it on\n3. Confirm")
	want := []string{"Find the light", "Turn it on", "Confirm"}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("steps = %v, want %v", steps, want)
	}
	if got := extractPlanSteps("1. Only one step"); got != nil {
		t.Errorf("single step should be unusable, got %v", got)
	}
	if got := extractPlanSteps("no numbering at all"); got != nil {
		t.Errorf("prose should be unusable, got %v", got)
	}
}

func TestParseVerdict(t *testing.T) {
	if !parseVerdict("Yes, the request was handled.") {
		t.Error("explicit yes should pass")
	}
	if parseVerdict("No, it never touched the device.") {
		t.Error("explicit no should fail")
	}
	if parseVerdict("The answer cannot be correct.") {
		t.Error("negative wording should fail")
	}
}

func TestScoreMatch(t *testing.T) {
	if got := scoreMatch("Turn on the Bed Light", "The bed light is now on."); got < 3 {
		t.Errorf("on-topic score = %d, want >= 3", got)
	}
	if got := scoreMatch("Turn on the Bed Light", "Done."); got != 0 {
		t.Errorf("off-topic score = %d, want 0", got)
	}
}

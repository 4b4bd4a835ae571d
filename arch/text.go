package arch

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	codeFenceRe  = regexp.MustCompile("(?s)```.*?```")
	whitespaceRe = regexp.MustCompile(`\s+`)
	numberedRe   = regexp.MustCompile(`(?m)^\s*\d+[\.)]\s*(.+)$`)
)

// sanitizeOutput strips leaked reasoning blocks and code fences from model
// text and collapses whitespace. Small local models leak <think> sections
// often enough that every final answer passes through here.
func sanitizeOutput(text string) string {
	text = thinkBlockRe.ReplaceAllString(text, "")
	text = codeFenceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

var negativeTokens = []string{
	"error", "invalid", "failed", "cannot", "can't", "couldn't",
	"unknown", "not found", "no such", "doesn't exist", "don't have",
	"unable", "not sure", "which device",
}

// isNegative reports whether text reads as a refusal or a not-found style
// reply. Used to distinguish a well-formed negative result from a confident
// answer.
func isNegative(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return true
	}
	for _, tok := range negativeTokens {
		if strings.Contains(t, tok) {
			return true
		}
	}
	return false
}

// intent is the inferred goal of a command: mutate state or read it.
type intent string

const (
	intentAction intent = "action"
	intentStatus intent = "status"
)

var actionTokens = []string{
	"turn on", "turn off", "switch on", "switch off", "power on",
	"power off", "open", "close", "lock", "unlock", "secure",
	"activate", "deactivate", "enable", "disable", "start", "stop",
	"set ", "increase", "decrease", "toggle", "dim", "brighten",
}

// inferIntent guesses whether the utterance asks for an action or a status
// read. The guess only steers scoring and guards; it never blocks a final
// answer.
func inferIntent(userText string) intent {
	t := strings.ToLower(userText)
	for _, tok := range actionTokens {
		if strings.Contains(t, tok) {
			return intentAction
		}
	}
	return intentStatus
}

var tokenRe = regexp.MustCompile(`[a-z0-9_]+`)

// scoreMatch counts how many tokens of the user text appear in the candidate
// text. Short tokens must match a candidate token exactly; longer ones may
// match inside compound tokens like bed_light. Cheap, fast, and good enough
// to rank entities of a single home.
func scoreMatch(userText, text string) int {
	candidates := tokenRe.FindAllString(strings.ToLower(text), -1)
	score := 0
	for _, part := range tokenRe.FindAllString(strings.ToLower(userText), -1) {
		if len(part) < 2 {
			continue
		}
		for _, ct := range candidates {
			if ct == part || (len(part) >= 3 && strings.Contains(ct, part)) {
				score++
				break
			}
		}
	}
	return score
}

// extractPlanSteps pulls numbered steps ("1. …", "2) …") out of a planning
// reply. Fewer than two steps means the plan is unusable and the caller
// degrades to the Standard flow.
func extractPlanSteps(text string) []string {
	matches := numberedRe.FindAllStringSubmatch(text, -1)
	if len(matches) < 2 {
		return nil
	}
	steps := make([]string, 0, len(matches))
	for _, m := range matches {
		steps = append(steps, strings.TrimSpace(m[1]))
	}
	return steps
}

// parseVerdict reads a yes/no self-critique reply. Anything that does not
// clearly say yes counts as negative.
func parseVerdict(text string) bool {
	t := strings.ToLower(sanitizeOutput(text))
	if strings.HasPrefix(t, "yes") {
		return true
	}
	if strings.HasPrefix(t, "no") {
		return false
	}
	// fall back to wording: a critique that flags problems is a no
	return !isNegative(t)
}

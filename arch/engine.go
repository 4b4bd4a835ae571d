// Package arch implements the five agent reasoning architectures that drive
// the home-automation gateway: Standard, Chain-of-Thought, ReAct, Reflexion,
// and Tree-of-Thought. All five share one session abstraction and differ only
// in how they schedule think and act steps.
package arch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaynamir/archbench/archbench"
)

// Kind selects one of the five reasoning architectures.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindCoT       Kind = "cot"
	KindReAct     Kind = "react"
	KindReflexion Kind = "reflexion"
	KindToT       Kind = "tot"
)

// Kinds lists every architecture in canonical order.
func Kinds() []Kind {
	return []Kind{KindStandard, KindCoT, KindReAct, KindReflexion, KindToT}
}

// ParseKind resolves a user-supplied architecture name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown architecture %q", s)
}

// DefaultTimeout bounds one execution when Deps.Timeout is zero.
const DefaultTimeout = 90 * time.Second

// Deps bundles everything an execution needs. Port and Gateway are required;
// Logger defaults to slog.Default and Timeout to DefaultTimeout.
type Deps struct {
	Port    archbench.CompletionPort
	Gateway archbench.ToolGateway
	Timeout time.Duration
	Logger  *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

// Execute runs one command through the selected architecture. It never
// returns a Go error; every failure mode is encoded in the Outcome status.
// The whole execution, model calls and gateway calls included, runs under a
// single wall-clock deadline.
func Execute(ctx context.Context, kind Kind, userText string, deps Deps) archbench.Outcome {
	ctx, cancel := context.WithTimeout(ctx, deps.timeout())
	defer cancel()

	s := newSession(userText, deps)
	log := deps.logger().With("arch", string(kind), "model", deps.Port.Model())
	log.Debug("execute", "text", userText, "intent", string(s.intent))

	var out archbench.Outcome
	switch kind {
	case KindStandard:
		out = runStandard(ctx, s)
	case KindCoT:
		out = runCoT(ctx, s)
	case KindReAct:
		out = runReAct(ctx, s)
	case KindReflexion:
		out = runReflexion(ctx, s)
	case KindToT:
		out = runToT(ctx, s)
	default:
		out = s.outcome(archbench.StatusError, fmt.Sprintf("unknown architecture %q", kind))
	}

	log.Debug("done",
		"status", string(out.Status),
		"elapsed", out.Elapsed,
		"acts", out.Trace.Acts(),
	)
	return out
}

// Package bench contains the benchmark orchestrator: run specification,
// unit enumeration, the append-only outcome log, the gateway circuit breaker,
// and the result aggregator.
package bench

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaynamir/archbench/arch"
	"github.com/shaynamir/archbench/archbench"
	"github.com/shaynamir/archbench/corpus"
)

// UnitKey is the persisted identity of one benchmark unit. Two executions
// with the same key are the same unit; the outcome log keeps only the first.
type UnitKey struct {
	RunID     string `json:"run_id"`
	CommandID string `json:"command_id"`
	Variant   string `json:"variant"`
	Repeat    int    `json:"repeat"`
}

// String renders the key in its canonical form.
func (k UnitKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%d", k.RunID, k.CommandID, k.Variant, k.Repeat)
}

// Record is one persisted unit outcome.
type Record struct {
	Key     UnitKey           `json:"key"`
	Outcome archbench.Outcome `json:"outcome"`
}

// RunSpec describes one benchmark run. A run compares either several
// architectures under one model or several models under one architecture;
// the Variant of each unit names both axes.
type RunSpec struct {
	RunID         string                  `json:"run_id"`
	Architectures []arch.Kind             `json:"architectures"`
	Models        []archbench.ModelHandle `json:"models"`
	Profile       corpus.Profile          `json:"profile"`
	IncludeErrors bool                    `json:"include_errors"`
	Repeats       int                     `json:"repeats"`
	Workers       int                     `json:"workers"`
	UnitTimeout   time.Duration           `json:"unit_timeout"`
}

// Normalize fills defaults and validates the spec. A missing run id gets a
// fresh UUID; workers are clamped to 1..4.
func (s *RunSpec) Normalize() error {
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	if len(s.Architectures) == 0 {
		return fmt.Errorf("run spec requires at least one architecture")
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("run spec requires at least one model")
	}
	if len(s.Architectures) > 1 && len(s.Models) > 1 {
		return fmt.Errorf("run spec may vary architectures or models, not both")
	}
	for _, m := range s.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("run spec: %w", err)
		}
	}
	if s.Profile == "" {
		s.Profile = corpus.ProfileCore
	}
	if s.Repeats <= 0 {
		s.Repeats = 1
	}
	if s.Workers <= 0 {
		s.Workers = 2
	}
	if s.Workers > 4 {
		s.Workers = 4
	}
	if s.UnitTimeout <= 0 {
		s.UnitTimeout = arch.DefaultTimeout
	}
	return nil
}

// Unit is one scheduled execution: a command under one architecture and one
// model, at one repeat index.
type Unit struct {
	Key     UnitKey
	Command archbench.Command
	Kind    arch.Kind
	Model   archbench.ModelHandle
}

// VariantName encodes both benchmark axes into the persisted variant id.
func VariantName(kind arch.Kind, model archbench.ModelHandle) string {
	return fmt.Sprintf("%s/%s", kind, model)
}

// EnumerateUnits expands a normalized spec into its full unit set in a
// deterministic order: command-major, then architecture, model, repeat.
func EnumerateUnits(spec RunSpec) ([]Unit, error) {
	commands, err := corpus.Select(spec.Profile, spec.IncludeErrors)
	if err != nil {
		return nil, err
	}
	var units []Unit
	for _, cmd := range commands {
		for _, kind := range spec.Architectures {
			for _, model := range spec.Models {
				for r := 0; r < spec.Repeats; r++ {
					units = append(units, Unit{
						Key: UnitKey{
							RunID:     spec.RunID,
							CommandID: cmd.ID,
							Variant:   VariantName(kind, model),
							Repeat:    r,
						},
						Command: cmd,
						Kind:    kind,
						Model:   model,
					})
				}
			}
		}
	}
	return units, nil
}

package bench

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaynamir/archbench/arch"
	"github.com/shaynamir/archbench/archbench"
)

// PortFactory builds a CompletionPort for one model handle. Called once per
// distinct model at run start.
type PortFactory func(archbench.ModelHandle) (archbench.CompletionPort, error)

// UnitMetrics receives one observation per completed unit. Implementations
// must be safe for concurrent use.
type UnitMetrics interface {
	ObserveUnit(ctx context.Context, variant string, status archbench.Status, elapsed time.Duration)
}

// Progress is emitted to the progress callback as each unit completes.
type Progress struct {
	Key     UnitKey
	Outcome archbench.Outcome
}

// Options configures an Orchestrator. Log, Gateway and NewPort are required.
type Options struct {
	Log     OutcomeLog
	Gateway archbench.ToolGateway
	NewPort PortFactory

	Logger           *slog.Logger
	Metrics          UnitMetrics
	OnProgress       func(Progress)
	BreakerThreshold int
}

// Orchestrator drives the unit cross-product of a run through the
// architecture engine and persists outcomes as they complete.
type Orchestrator struct {
	log     OutcomeLog
	gateway archbench.ToolGateway
	newPort PortFactory

	logger     *slog.Logger
	metrics    UnitMetrics
	onProgress func(Progress)
	threshold  int
}

// NewOrchestrator validates options and builds an orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Log == nil {
		return nil, fmt.Errorf("orchestrator requires an outcome log")
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("orchestrator requires a tool gateway")
	}
	if opts.NewPort == nil {
		return nil, fmt.Errorf("orchestrator requires a port factory")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		log:        opts.Log,
		gateway:    opts.Gateway,
		newPort:    opts.NewPort,
		logger:     logger,
		metrics:    opts.Metrics,
		onProgress: opts.OnProgress,
		threshold:  opts.BreakerThreshold,
	}, nil
}

// Run executes every not-yet-completed unit of the spec and returns the
// aggregated summary. Re-invoking Run for the same run id is idempotent:
// units with a persisted outcome are skipped, so a second identical run
// executes nothing. Cancelling ctx stops dispatching new units while letting
// in-flight ones finish or time out; a tripped circuit breaker does the same
// and additionally surfaces ErrBreakerOpen so the run can be resumed once
// connectivity is back.
func (o *Orchestrator) Run(ctx context.Context, spec RunSpec) (*Summary, error) {
	if err := spec.Normalize(); err != nil {
		return nil, err
	}
	if err := o.log.SaveSpec(ctx, spec); err != nil {
		return nil, err
	}

	units, err := EnumerateUnits(spec)
	if err != nil {
		return nil, err
	}
	prior, err := o.log.List(ctx, spec.RunID)
	if err != nil {
		return nil, err
	}
	done := make(map[UnitKey]struct{}, len(prior))
	for _, rec := range prior {
		done[rec.Key] = struct{}{}
	}

	ports := make(map[string]archbench.CompletionPort, len(spec.Models))
	for _, m := range spec.Models {
		port, err := o.newPort(m)
		if err != nil {
			return nil, fmt.Errorf("build port for %s: %w", m, err)
		}
		ports[m.String()] = port
	}

	// units sharing a primary expected entity interleave state changes and
	// corrupt scoring, so they take a per-entity lock; all others run
	// fully parallel
	entityLocks := make(map[string]*sync.Mutex)
	for _, u := range units {
		if id := u.Command.PrimaryEntity(); id != "" {
			if _, ok := entityLocks[id]; !ok {
				entityLocks[id] = &sync.Mutex{}
			}
		}
	}

	breaker := NewBreaker(o.threshold)
	log := o.logger.With("run_id", spec.RunID)
	log.Info("run start",
		"units", len(units),
		"completed", len(done),
		"workers", spec.Workers,
		"profile", string(spec.Profile),
	)

	// in-flight units keep running on user abort; only dispatch stops
	execCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(spec.Workers)

dispatch:
	for _, u := range units {
		if _, ok := done[u.Key]; ok {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("run cancelled, draining in-flight units")
			break dispatch
		}
		if breaker.Allow() != nil {
			log.Error("circuit breaker open, pausing dispatch")
			break dispatch
		}

		g.Go(func() error {
			if mu := entityLocks[u.Command.PrimaryEntity()]; mu != nil {
				mu.Lock()
				defer mu.Unlock()
			}

			out := arch.Execute(execCtx, u.Kind, u.Command.Text, arch.Deps{
				Port:    ports[u.Model.String()],
				Gateway: o.gateway,
				Timeout: spec.UnitTimeout,
				Logger:  o.logger,
			})

			if err := o.log.Append(execCtx, Record{Key: u.Key, Outcome: out}); err != nil {
				return fmt.Errorf("persist unit %s: %w", u.Key, err)
			}
			breaker.Record(out.Status)
			if o.metrics != nil {
				o.metrics.ObserveUnit(execCtx, u.Key.Variant, out.Status, out.Elapsed)
			}
			if o.onProgress != nil {
				o.onProgress(Progress{Key: u.Key, Outcome: out})
			}
			log.Debug("unit done",
				"command", u.Key.CommandID,
				"variant", u.Key.Variant,
				"repeat", u.Key.Repeat,
				"status", string(out.Status),
				"elapsed", out.Elapsed,
			)
			return nil
		})
	}

	waitErr := g.Wait()

	records, err := o.log.List(execCtx, spec.RunID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(spec.RunID, units, records)
	log.Info("run finished",
		"completed", summary.CompletedUnits,
		"total", summary.TotalUnits,
		"errored", len(summary.ErroredUnits),
	)

	switch {
	case waitErr != nil:
		return &summary, waitErr
	case breaker.Open():
		return &summary, fmt.Errorf("%w: resume run %s once the gateway recovers", ErrBreakerOpen, spec.RunID)
	case ctx.Err() != nil:
		return &summary, ctx.Err()
	}
	return &summary, nil
}

// Resume reloads a persisted spec and re-runs it. Completed units are skipped
// by Run, so resuming a finished run executes zero new units.
func (o *Orchestrator) Resume(ctx context.Context, runID string) (*Summary, error) {
	spec, err := o.log.LoadSpec(ctx, runID)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, spec)
}

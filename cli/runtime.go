package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shaynamir/archbench/adapter/homeassistant"
	"github.com/shaynamir/archbench/adapter/llm"
	"github.com/shaynamir/archbench/bench"
	"github.com/shaynamir/archbench/config"
	"github.com/shaynamir/archbench/observability"
	"github.com/shaynamir/archbench/report"
)

// runtime bundles everything a run or resume needs.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	log    bench.OutcomeLog
	orch   *bench.Orchestrator

	cleanup []func()
}

func (r *runtime) close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

// newRuntime builds the outcome log, gateway, metrics and orchestrator from
// the loaded configuration.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}

	if cfg.RedisURL != "" {
		rlog, err := bench.NewRedisLog(cfg.RedisURL, "archbench")
		if err != nil {
			return nil, err
		}
		if err := rlog.Ping(ctx); err != nil {
			rlog.Close()
			return nil, fmt.Errorf("redis outcome log unreachable: %w", err)
		}
		rt.log = rlog
		rt.cleanup = append(rt.cleanup, func() { rlog.Close() })
	} else {
		flog, err := bench.NewFileLog(cfg.ResultsDir)
		if err != nil {
			return nil, err
		}
		rt.log = flog
	}

	var metrics bench.UnitMetrics
	if cfg.MetricsAddr != "" {
		provider, handler, err := observability.InitMetrics("archbench")
		if err != nil {
			return nil, err
		}
		um, err := observability.NewUnitMetrics()
		if err != nil {
			return nil, err
		}
		metrics = um

		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		rt.cleanup = append(rt.cleanup, func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
			provider.Shutdown(shutCtx)
		})
	}

	orch, err := bench.NewOrchestrator(bench.Options{
		Log:              rt.log,
		Gateway:          homeassistant.NewGateway(cfg.Gateway.BaseURL, cfg.Gateway.Token),
		NewPort:          llm.NewPort,
		Logger:           logger,
		Metrics:          metrics,
		BreakerThreshold: cfg.BreakerThreshold,
		OnProgress: func(p bench.Progress) {
			fmt.Printf("%-40s %-22s r%d  %-8s %6.1fs\n",
				p.Key.CommandID, p.Key.Variant, p.Key.Repeat,
				p.Outcome.Status, p.Outcome.Elapsed.Seconds())
		},
	})
	if err != nil {
		return nil, err
	}
	rt.orch = orch
	return rt, nil
}

// writeReports renders the run's CSV and JSON summary files, even for a
// partial run.
func (rt *runtime) writeReports(ctx context.Context, sum *bench.Summary) error {
	if err := os.MkdirAll(rt.cfg.ResultsDir, 0o755); err != nil {
		return err
	}
	records, err := rt.log.List(ctx, sum.RunID)
	if err != nil {
		return err
	}
	csvPath, sumPath := report.Paths(rt.cfg.ResultsDir, sum.RunID)
	if err := report.WriteRecordsCSV(csvPath, records); err != nil {
		return err
	}
	if err := report.WriteSummary(sumPath, *sum); err != nil {
		return err
	}
	rt.logger.Info("reports written", "csv", csvPath, "summary", sumPath)
	return nil
}

func printSummary(sum *bench.Summary) {
	fmt.Printf("\nrun %s: %d/%d units completed (%.0f%%)\n",
		sum.RunID, sum.CompletedUnits, sum.TotalUnits, sum.CompletionPct*100)
	if n := len(sum.ErroredUnits); n > 0 {
		fmt.Printf("errored units: %d\n", n)
	}
	if n := len(sum.MissingUnits); n > 0 {
		fmt.Printf("missing units: %d (resume to finish)\n", n)
	}
	for _, vs := range sum.Variants {
		fmt.Printf("\n%s\n", vs.Variant)
		for _, cs := range vs.Categories {
			fmt.Printf("  %-8s %3d/%-3d  success %5.1f%%  entities %5.1f%%  median %5.1fs\n",
				cs.Category, cs.Completed, cs.Units,
				cs.SuccessRate*100, cs.EntityAccuracy*100,
				cs.MedianElapsed.Seconds())
		}
	}
}

// finishRun writes reports and prints the summary regardless of how the run
// ended, then surfaces the run error.
func (rt *runtime) finishRun(ctx context.Context, sum *bench.Summary, runErr error) error {
	// reports still get written after an interrupt
	ctx = context.WithoutCancel(ctx)
	if sum != nil {
		if err := rt.writeReports(ctx, sum); err != nil {
			rt.logger.Error("report write failed", "error", err)
		}
		printSummary(sum)
	}
	return runErr
}

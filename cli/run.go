package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaynamir/archbench/arch"
	"github.com/shaynamir/archbench/bench"
	"github.com/shaynamir/archbench/config"
	"github.com/shaynamir/archbench/corpus"
)

var (
	runID          string
	archsFlag      []string
	modelsFlag     []string
	profileFlag    string
	includeErrors  bool
	repeatsFlag    int
	workersFlag    int
	timeoutFlag    time.Duration
	resultsDirFlag string
	redisURLFlag   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark",
	Long: `Runs the selected command corpus through every requested variant and
persists each unit's outcome as it completes. A run varies either the
architectures or the models, never both. Interrupting the process stops
dispatch but lets in-flight units finish; use 'archbench resume' to pick
the run back up.`,
	Example: `  # all five architectures under the configured model, core profile
  archbench run

  # two architectures on the short smoke corpus
  archbench run --arch standard,react --profile short

  # compare the configured models under one architecture
  archbench run --arch react --repeats 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunOverrides(cfg)

		spec, err := buildSpec(cmd, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.close()

		sum, runErr := rt.orch.Run(ctx, spec)
		return rt.finishRun(ctx, sum, runErr)
	},
}

func applyRunOverrides(cfg *config.Config) {
	if profileFlag != "" {
		cfg.Profile = profileFlag
	}
	if includeErrors {
		cfg.IncludeErrors = true
	}
	if repeatsFlag > 0 {
		cfg.Repeats = repeatsFlag
	}
	if workersFlag > 0 {
		cfg.Workers = workersFlag
	}
	if timeoutFlag > 0 {
		cfg.UnitTimeout = config.Duration(timeoutFlag)
	}
	if resultsDirFlag != "" {
		cfg.ResultsDir = resultsDirFlag
	}
	if redisURLFlag != "" {
		cfg.RedisURL = redisURLFlag
	}
}

// buildSpec assembles the run spec from config and flags. When the config
// lists several models and no explicit --arch was given, the run defaults to
// comparing models under the standard architecture.
func buildSpec(cmd *cobra.Command, cfg *config.Config) (bench.RunSpec, error) {
	profile, err := corpus.ParseProfile(cfg.Profile)
	if err != nil {
		return bench.RunSpec{}, err
	}

	models := cfg.ModelHandles()
	if len(modelsFlag) > 0 {
		keep := models[:0]
		for _, name := range modelsFlag {
			found := false
			for _, m := range cfg.ModelHandles() {
				if m.Name == name {
					keep = append(keep, m)
					found = true
					break
				}
			}
			if !found {
				return bench.RunSpec{}, fmt.Errorf("model %q is not in the configuration", name)
			}
		}
		models = keep
	}

	var kinds []arch.Kind
	switch {
	case cmd.Flags().Changed("arch"):
		for _, s := range archsFlag {
			k, err := arch.ParseKind(strings.TrimSpace(s))
			if err != nil {
				return bench.RunSpec{}, err
			}
			kinds = append(kinds, k)
		}
	case len(models) > 1:
		kinds = []arch.Kind{arch.KindStandard}
	default:
		kinds = arch.Kinds()
	}

	return bench.RunSpec{
		RunID:         runID,
		Architectures: kinds,
		Models:        models,
		Profile:       profile,
		IncludeErrors: cfg.IncludeErrors,
		Repeats:       cfg.Repeats,
		Workers:       cfg.Workers,
		UnitTimeout:   cfg.UnitTimeout.Std(),
	}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runID, "run-id", "", "Run id (defaults to a fresh UUID)")
	runCmd.Flags().StringSliceVar(&archsFlag, "arch", nil, "Architectures to benchmark: standard, cot, react, reflexion, tot")
	runCmd.Flags().StringSliceVar(&modelsFlag, "models", nil, "Subset of configured models to benchmark, by name")
	runCmd.Flags().StringVar(&profileFlag, "profile", "", "Corpus profile: short, micro, lite, core, long")
	runCmd.Flags().BoolVar(&includeErrors, "include-errors", false, "Include nonexistent-device commands")
	runCmd.Flags().IntVar(&repeatsFlag, "repeats", 0, "Repeats per command/variant pair")
	runCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parallel workers (1-4)")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Wall-clock budget per unit")
	runCmd.Flags().StringVarP(&resultsDirFlag, "output-dir", "o", "", "Directory for outcome log and reports")
	runCmd.Flags().StringVar(&redisURLFlag, "redis-url", "", "Redis URL for the outcome log (overrides the file log)")
}

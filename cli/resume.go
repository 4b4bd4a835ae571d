package cli

import (
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Resume an interrupted run",
	Long: `Reloads the persisted spec of an earlier run and executes only the units
that have no recorded outcome yet. Resuming a finished run executes
nothing and just re-renders the reports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunOverrides(cfg)

		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.close()

		sum, runErr := rt.orch.Resume(ctx, args[0])
		return rt.finishRun(ctx, sum, runErr)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVarP(&resultsDirFlag, "output-dir", "o", "", "Directory for outcome log and reports")
	resumeCmd.Flags().StringVar(&redisURLFlag, "redis-url", "", "Redis URL for the outcome log (overrides the file log)")
}

// Package cli defines the archbench command tree.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "archbench",
		Short: "Benchmark agent reasoning architectures against a smart home",
		Long: `archbench runs a fixed corpus of natural-language smart-home commands
through several agent reasoning architectures (standard, cot, react,
reflexion, tot) against a live Home Assistant instance, persists every
outcome, and aggregates the results per variant and command category.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command. The returned context is cancelled on the
// first interrupt so an aborted run drains in-flight units before exiting.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./archbench.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or text")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, m := range cfg.Models {
			base := m.BaseURL
			if base == "" {
				base = "(backend default)"
			}
			fmt.Printf("%-24s %-8s %s\n", m.Name, m.Backend, base)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

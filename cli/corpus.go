package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaynamir/archbench/corpus"
)

var corpusProfileFlag string

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the command corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range corpus.Profiles() {
			cmds, err := corpus.Select(p, true)
			if err != nil {
				return err
			}
			fmt.Printf("%-8s %3d commands\n", p, len(cmds))
		}
		return nil
	},
}

var corpusShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the commands of one profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := corpus.ParseProfile(corpusProfileFlag)
		if err != nil {
			return err
		}
		cmds, err := corpus.Select(profile, includeErrors)
		if err != nil {
			return err
		}
		for _, c := range cmds {
			fmt.Printf("%-28s %-7s %q\n", c.ID, c.Category, c.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.AddCommand(corpusShowCmd)

	corpusShowCmd.Flags().StringVar(&corpusProfileFlag, "profile", "", "Corpus profile (default core)")
	corpusShowCmd.Flags().BoolVar(&includeErrors, "include-errors", false, "Include nonexistent-device commands")
}

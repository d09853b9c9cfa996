package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/relcache/internal/pattern"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached builds",
	Long:  "List cached asset paths of the configured platform, optionally filtered by a pattern (/regexp/ or exact path).",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().String("filter", "", "pattern the asset path must match")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	filter, _ := cmd.Flags().GetString("filter")
	p, err := pattern.Parse(filter)
	if err != nil {
		return err
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	names, err := m.List(p)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no entries)")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

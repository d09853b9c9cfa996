package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aweris/relcache/internal/pattern"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List published versions",
	Long:  "Download the origin's listing and print every build, marking the latest release and cached builds.",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	versionsCmd.Flags().String("filter", "", "pattern the release path must match (/regexp/ or exact)")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, _ []string) error {
	filter, _ := cmd.Flags().GetString("filter")
	p, err := pattern.Parse(filter)
	if err != nil {
		return err
	}

	m, err := newManager()
	if err != nil {
		return err
	}
	mf, err := m.Manifest(cmd.Context())
	if err != nil {
		return err
	}
	latest, _ := mf.LatestRelease()

	cached := map[string]bool{}
	if names, err := m.List(pattern.Pattern{}); err == nil {
		for _, name := range names {
			cached[name] = true
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, b := range mf.FilterBuilds(p) {
		var flags string
		if latest != nil && b.Version.Equal(latest) {
			flags += "latest "
		}
		if cached[m.AssetPath(b)] {
			flags += "cached"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Version, b.Path, flags)
	}
	return tw.Flush()
}

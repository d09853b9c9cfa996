package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/relcache"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download builds into the cache",
	Long: `Resolve a version request against the origin's listing and cache every matching build.

Without flags the latest release is installed. --all wins over --version,
which wins over --requirement.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().String("version", "", "exact version to install")
	installCmd.Flags().String("requirement", "", "semver constraint, e.g. \">=0.8.0 <0.9.0\"")
	installCmd.Flags().Bool("all", false, "install every published version")
	installCmd.Flags().Bool("force", false, "download even when cached")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	target, _ := cmd.Flags().GetString("version")
	requirement, _ := cmd.Flags().GetString("requirement")
	all, _ := cmd.Flags().GetBool("all")
	force, _ := cmd.Flags().GetBool("force")

	sel, err := relcache.ParseSelection(target, requirement, all)
	if err != nil {
		return err
	}

	m, err := newManager(relcache.WithForce(force))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Installing %s...\n", sel)

	assets, err := m.Install(cmd.Context(), sel)
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	for _, a := range assets {
		state := "downloaded"
		if a.Cached {
			state = "cached"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.Version, state, a.Path)
	}
	return nil
}

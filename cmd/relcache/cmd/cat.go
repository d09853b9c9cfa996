package cmd

import (
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <version>",
	Short: "Write a cached build to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) (err error) {
	v, err := semver.NewVersion(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	rc, err := m.Open(v)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(cmd.OutOrStdout(), rc)
	return err
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shpitdev/profile-finder/internal/version"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(opts.stdout, version.Current)
			return err
		},
	}
}

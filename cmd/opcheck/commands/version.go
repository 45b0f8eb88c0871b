package commands

import (
	"github.com/spf13/cobra"

	"github.com/opcheck-dev/opcheck"
	"github.com/opcheck-dev/opcheck/internal/cliutil"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build details",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cliutil.Writef(cmd.OutOrStdout(), "%s\n", opcheck.BuildInfo())
		},
	}
}

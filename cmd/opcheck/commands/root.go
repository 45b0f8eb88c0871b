// Package commands implements the opcheck CLI subcommands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/opcheck-dev/opcheck"
)

// NewRootCmd creates the root command for opcheck.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "opcheck",
		Short: "Request/response validation against a rule catalog",
		Long: `opcheck validates HTTP requests and responses against a declarative
rule catalog backed by a JSON schema document.

The catalog maps each operation's parameters to a source (query, header,
path, or body) and an ordered rule list; responses map status codes to
expected body shapes. Catalogs are written by hand as YAML or derived
from an OpenAPI 3 document.`,
		Version:       opcheck.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newVetCmd(),
		newDeriveCmd(),
		newCheckCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

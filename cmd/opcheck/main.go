// Package main is the entry point for the opcheck binary. It provides a
// CLI for vetting rule catalogs, deriving them from OpenAPI documents,
// replaying captured exchanges, and serving the MCP tools.
package main

import (
	"fmt"
	"os"

	"github.com/opcheck-dev/opcheck/cmd/opcheck/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opcheck-dev/opcheck/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the opcheck MCP tools over stdio",
		Long: `MCP starts a Model Context Protocol server on stdin/stdout exposing
two tools: vet_catalog, which reports rule catalog defects, and
check_request, which replays a captured exchange through a catalog.

The server runs until the client disconnects or the process receives an
interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return mcpserver.Run(ctx)
		},
	}
}

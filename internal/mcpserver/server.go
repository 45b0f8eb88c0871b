// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes catalog vetting and exchange replay as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opcheck-dev/opcheck"
)

const serverInstructions = `opcheck MCP server — vets rule catalogs and replays captured HTTP exchanges through them.

Tools:
- vet_catalog: load a rule catalog (inline YAML or a file path) and report every defect the validator would refuse to serve with.
- check_request: load a catalog (plus an optional schema document), replay a captured request/response exchange, and return the structured validation outcome.

Catalogs are YAML rule tables keyed by operation ID; schema documents are JSON with component schemas under #/components/schemas. A capture is a JSON object with method, path, and optional query, headers, body, and response.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "opcheck", Version: opcheck.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "vet_catalog",
		Description: "Vet a rule catalog. Checks the closed rule vocabulary, rule payload presence, pattern compilability, contradictory rule pairs, response contract shapes, and operation wiring. Returns the full defect list; a catalog with defects is refused by the validator at startup.",
	}, handleVetCatalog)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_request",
		Description: "Replay a captured HTTP exchange through a rule catalog. Resolves the operation from method and path, populates and validates every declared parameter, and, when the capture records a response, checks it against the declared contract. Returns typed parameter values and structured issues.",
	}, handleCheckRequest)
}

// sanitizeError strips absolute filesystem paths from error messages so
// tool output does not leak internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

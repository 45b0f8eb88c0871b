package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opcheck-dev/opcheck/catalog"
)

type vetCatalogInput struct {
	Catalog catalogInput `json:"catalog" jsonschema:"The rule catalog to vet"`
}

type vetDefect struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type vetCatalogOutput struct {
	Valid      bool        `json:"valid"`
	Operations int         `json:"operations"`
	Defects    []vetDefect `json:"defects,omitempty"`
}

func handleVetCatalog(_ context.Context, _ *mcp.CallToolRequest, input vetCatalogInput) (*mcp.CallToolResult, vetCatalogOutput, error) {
	c, err := input.Catalog.resolve()
	if err != nil {
		return errResult(err), vetCatalogOutput{}, nil
	}

	output := vetCatalogOutput{Operations: len(c.Operations)}

	err = c.Vet()
	if err == nil {
		output.Valid = true
		return nil, output, nil
	}

	var vetErr *catalog.VetError
	if !errors.As(err, &vetErr) {
		return errResult(err), vetCatalogOutput{}, nil
	}
	for _, d := range vetErr.Defects() {
		output.Defects = append(output.Defects, vetDefect{Field: d.Field, Message: d.Message})
	}
	return nil, output, nil
}

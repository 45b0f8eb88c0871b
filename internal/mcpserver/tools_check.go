package mcpserver

import (
	"context"
	"fmt"
	"maps"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/segmentio/encoding/json"

	"github.com/opcheck-dev/opcheck"
	"github.com/opcheck-dev/opcheck/internal/exchange"
	"github.com/opcheck-dev/opcheck/internal/pathmatch"
	"github.com/opcheck-dev/opcheck/schemastore"
)

type checkRequestInput struct {
	Catalog  catalogInput  `json:"catalog"          jsonschema:"The rule catalog to replay against"`
	Schema   *schemaInput  `json:"schema,omitempty" jsonschema:"Schema document backing the catalog's schema rules"`
	Exchange exchangeInput `json:"exchange"         jsonschema:"The captured request and optional response to validate"`
}

// exchangeInput mirrors exchange.Exchange with bodies as plain JSON values
// so the inferred tool schema accepts objects rather than encoded strings.
type exchangeInput struct {
	Method   string            `json:"method"             jsonschema:"HTTP method of the captured request"`
	Path     string            `json:"path"               jsonschema:"Decoded request path without any query string"`
	Query    map[string]string `json:"query,omitempty"    jsonschema:"Query parameters as single-valued pairs"`
	Headers  map[string]string `json:"headers,omitempty"  jsonschema:"Request headers as single-valued pairs"`
	Body     any               `json:"body,omitempty"     jsonschema:"Captured request body as a JSON value"`
	Response *responseInput    `json:"response,omitempty" jsonschema:"The response the server produced when captured"`
}

type responseInput struct {
	Status int `json:"status"         jsonschema:"HTTP status code of the captured response"`
	Body   any `json:"body,omitempty" jsonschema:"Captured response body as a JSON value"`
}

func (in exchangeInput) toExchange() (*exchange.Exchange, error) {
	e := &exchange.Exchange{
		Method:  in.Method,
		Path:    in.Path,
		Query:   in.Query,
		Headers: in.Headers,
	}
	if in.Body != nil {
		raw, err := json.Marshal(in.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		e.Body = raw
	}
	if in.Response != nil {
		cr := &exchange.CapturedResponse{Status: in.Response.Status}
		if in.Response.Body != nil {
			raw, err := json.Marshal(in.Response.Body)
			if err != nil {
				return nil, fmt.Errorf("encoding response body: %w", err)
			}
			cr.Body = raw
		}
		e.Response = cr
	}
	return e, nil
}

type checkIssue struct {
	Param    string `json:"param,omitempty"`
	Source   string `json:"source,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"`
}

type checkElement struct {
	Index  int          `json:"index"`
	Valid  bool         `json:"valid"`
	Issues []checkIssue `json:"issues,omitempty"`
}

type checkResponse struct {
	Status   int            `json:"status"`
	Matched  bool           `json:"matched"`
	Valid    bool           `json:"valid"`
	Issues   []checkIssue   `json:"issues,omitempty"`
	Elements []checkElement `json:"elements,omitempty"`
}

type checkRequestOutput struct {
	Resolved     bool           `json:"resolved"`
	Operation    string         `json:"operation,omitempty"`
	RequestValid bool           `json:"request_valid"`
	Params       map[string]any `json:"params,omitempty"`
	Issues       []checkIssue   `json:"issues,omitempty"`
	Response     *checkResponse `json:"response,omitempty"`
}

func handleCheckRequest(ctx context.Context, _ *mcp.CallToolRequest, input checkRequestInput) (*mcp.CallToolResult, checkRequestOutput, error) {
	c, err := input.Catalog.resolve()
	if err != nil {
		return errResult(err), checkRequestOutput{}, nil
	}

	var store *schemastore.Store
	if input.Schema != nil {
		store, err = input.Schema.resolve()
		if err != nil {
			return errResult(err), checkRequestOutput{}, nil
		}
	}

	v, err := opcheck.New(c, store)
	if err != nil {
		return errResult(err), checkRequestOutput{}, nil
	}
	matcher, err := pathmatch.New(c)
	if err != nil {
		return errResult(err), checkRequestOutput{}, nil
	}

	e, err := input.Exchange.toExchange()
	if err != nil {
		return errResult(err), checkRequestOutput{}, nil
	}

	out, err := exchange.Run(ctx, v, matcher, e)
	if err != nil {
		return errResult(err), checkRequestOutput{}, nil
	}
	defer out.Release()

	output := checkRequestOutput{
		Resolved:  out.Resolved,
		Operation: out.OperationID,
	}
	if out.Request != nil {
		output.RequestValid = out.Request.Valid
		// The result is pooled; the output outlives the handler.
		output.Params = maps.Clone(out.Request.Params)
		output.Issues = checkIssues(out.Request.Issues)
	}
	if out.Response != nil {
		resp := &checkResponse{
			Status:  out.Response.Status,
			Matched: out.Response.Matched,
			Valid:   out.Response.Valid,
			Issues:  checkIssues(out.Response.Issues),
		}
		for _, el := range out.Response.Elements {
			resp.Elements = append(resp.Elements, checkElement{
				Index:  el.Index,
				Valid:  el.Valid,
				Issues: checkIssues(el.Issues),
			})
		}
		output.Response = resp
	}
	return nil, output, nil
}

func checkIssues(issues []opcheck.Issue) []checkIssue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]checkIssue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, checkIssue{
			Param:    iss.Param,
			Source:   iss.Source,
			Rule:     iss.Rule,
			Message:  iss.Message,
			Path:     iss.Path,
			Severity: iss.Severity.String(),
		})
	}
	return out
}

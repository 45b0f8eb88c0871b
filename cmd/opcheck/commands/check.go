package commands

import (
	"fmt"
	"maps"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/opcheck-dev/opcheck"
	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/internal/cliutil"
	"github.com/opcheck-dev/opcheck/internal/exchange"
	"github.com/opcheck-dev/opcheck/internal/pathmatch"
	"github.com/opcheck-dev/opcheck/schemastore"
)

type checkFlags struct {
	catalogPath string
	schemaPath  string
	format      string
}

func newCheckCmd() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check <exchange.json>",
		Short: "Replay a captured exchange through a catalog",
		Long: `Check replays a captured HTTP exchange through a rule catalog: the
request is resolved to an operation by method and path, its parameters
are extracted and validated, and, when the capture recorded a response,
the response body is validated against the operation's contract.

The exchange file is a JSON object with method, path, and optional
query, headers, body, and response (status plus body).

The exit code is non-zero when the request fails validation or resolves
to no operation. Response contract violations are reported but do not
affect the exit code; contracts observe responses rather than gate them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.catalogPath, "catalog", "c", "", "rule catalog to validate against (required)")
	cmd.Flags().StringVarP(&flags.schemaPath, "schema", "s", "", "schema document backing the catalog's schema rules")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "output format (text, json)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runCheck(cmd *cobra.Command, capturePath string, flags *checkFlags) error {
	if flags.format != "text" && flags.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", flags.format)
	}

	c, err := catalog.LoadFile(flags.catalogPath)
	if err != nil {
		return err
	}
	if err := c.Vet(); err != nil {
		return err
	}

	var store *schemastore.Store
	if flags.schemaPath != "" {
		store, err = schemastore.Load(flags.schemaPath)
		if err != nil {
			return err
		}
	}

	v, err := opcheck.New(c, store)
	if err != nil {
		return err
	}
	matcher, err := pathmatch.New(c)
	if err != nil {
		return err
	}

	e, err := exchange.Load(capturePath)
	if err != nil {
		return err
	}

	out, err := exchange.Run(cmd.Context(), v, matcher, e)
	if err != nil {
		return err
	}
	defer out.Release()

	report := buildCheckReport(out)
	if err := renderCheckReport(cmd, report, flags.format); err != nil {
		return err
	}

	if !report.Resolved {
		return fmt.Errorf("no operation matches %s %s", e.Method, e.Path)
	}
	if !report.RequestValid {
		return fmt.Errorf("request failed validation for operation %s", report.Operation)
	}
	return nil
}

// checkReport is the JSON rendering of one replayed exchange. Issue values
// are flattened to strings so the report is stable regardless of the raw
// value's type.
type checkReport struct {
	Resolved     bool            `json:"resolved"`
	Operation    string          `json:"operation,omitempty"`
	RequestValid bool            `json:"request_valid"`
	Params       map[string]any  `json:"params,omitempty"`
	Issues       []reportIssue   `json:"issues,omitempty"`
	Response     *responseReport `json:"response,omitempty"`
}

type responseReport struct {
	Status   int             `json:"status"`
	Matched  bool            `json:"matched"`
	Valid    bool            `json:"valid"`
	Issues   []reportIssue   `json:"issues,omitempty"`
	Elements []elementReport `json:"elements,omitempty"`
}

type elementReport struct {
	Index  int           `json:"index"`
	Valid  bool          `json:"valid"`
	Issues []reportIssue `json:"issues,omitempty"`
}

type reportIssue struct {
	Param    string `json:"param,omitempty"`
	Source   string `json:"source,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"`
}

func buildCheckReport(out *exchange.Outcome) *checkReport {
	report := &checkReport{
		Resolved:  out.Resolved,
		Operation: out.OperationID,
	}
	if out.Request != nil {
		report.RequestValid = out.Request.Valid
		// Results are pooled; the report outlives Release.
		report.Params = maps.Clone(out.Request.Params)
		report.Issues = reportIssues(out.Request.Issues)
	}
	if out.Response != nil {
		resp := &responseReport{
			Status:  out.Response.Status,
			Matched: out.Response.Matched,
			Valid:   out.Response.Valid,
			Issues:  reportIssues(out.Response.Issues),
		}
		for _, el := range out.Response.Elements {
			resp.Elements = append(resp.Elements, elementReport{
				Index:  el.Index,
				Valid:  el.Valid,
				Issues: reportIssues(el.Issues),
			})
		}
		report.Response = resp
	}
	return report
}

func reportIssues(issues []opcheck.Issue) []reportIssue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]reportIssue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, reportIssue{
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

func renderCheckReport(cmd *cobra.Command, report *checkReport, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		cliutil.Writef(out, "%s\n", data)
		return nil
	}

	if !report.Resolved {
		cliutil.Writef(out, "unresolved: no catalog operation matches the capture\n")
		return nil
	}
	cliutil.Writef(out, "operation: %s\n", report.Operation)
	if report.RequestValid {
		cliutil.Writef(out, "request: valid (%d parameter(s))\n", len(report.Params))
	} else {
		cliutil.Writef(out, "request: invalid\n")
		for _, iss := range report.Issues {
			cliutil.Writef(out, "  %s\n", issueLine(iss))
		}
	}
	if resp := report.Response; resp != nil {
		switch {
		case !resp.Matched:
			cliutil.Writef(out, "response %d: no contract, passed\n", resp.Status)
		case resp.Valid:
			cliutil.Writef(out, "response %d: valid\n", resp.Status)
		default:
			cliutil.Writef(out, "response %d: contract violated\n", resp.Status)
			for _, iss := range resp.Issues {
				cliutil.Writef(out, "  %s\n", issueLine(iss))
			}
			for _, el := range resp.Elements {
				if el.Valid {
					continue
				}
				for _, iss := range el.Issues {
					cliutil.Writef(out, "  [%d] %s\n", el.Index, issueLine(iss))
				}
			}
		}
	}
	return nil
}

func issueLine(iss reportIssue) string {
	subject := iss.Param
	if subject == "" {
		subject = "body"
	}
	if iss.Path != "" {
		subject += iss.Path
	}
	line := fmt.Sprintf("%s: %s", subject, iss.Message)
	if iss.Rule != "" {
		line += fmt.Sprintf(" [%s]", iss.Rule)
	}
	return line
}

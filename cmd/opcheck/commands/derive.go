package commands

import (
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/internal/cliutil"
	"github.com/opcheck-dev/opcheck/internal/fileutil"
)

type deriveFlags struct {
	output  string
	emit    string
	pkgName string
}

func newDeriveCmd() *cobra.Command {
	flags := &deriveFlags{}

	cmd := &cobra.Command{
		Use:   "derive <openapi.yaml>",
		Short: "Derive a rule catalog from an OpenAPI 3 document",
		Long: `Derive reads an OpenAPI 3 document and builds the equivalent rule
catalog: parameters become sourced rule lists, request bodies become
body-sourced schema rules, and responses become body-shape contracts.

The catalog is emitted as YAML by default, or as a generated Go source
table with --emit go for linking into a binary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&flags.emit, "emit", "e", "yaml", "output form (yaml, go)")
	cmd.Flags().StringVarP(&flags.pkgName, "package", "p", "catalog", "package name for generated Go source")

	return cmd
}

func runDerive(cmd *cobra.Command, path string, flags *deriveFlags) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("loading OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("invalid OpenAPI document %s: %w", path, err)
	}

	c, err := catalog.Derive(doc)
	if err != nil {
		return err
	}

	var data []byte
	var mode os.FileMode
	switch flags.emit {
	case "yaml":
		data, err = catalog.Marshal(c)
		mode = fileutil.OwnerReadWrite
	case "go":
		data, err = catalog.EmitGo(c, flags.pkgName)
		mode = fileutil.ReadableByAll
	default:
		return fmt.Errorf("unknown emit form %q (want yaml or go)", flags.emit)
	}
	if err != nil {
		return err
	}

	if flags.output == "" {
		cliutil.Writef(cmd.OutOrStdout(), "%s", data)
		return nil
	}
	if err := os.WriteFile(flags.output, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", flags.output, err)
	}
	cliutil.Writef(cmd.OutOrStdout(), "wrote %d operation(s) to %s\n", len(c.Operations), flags.output)
	return nil
}

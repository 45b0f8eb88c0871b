package commands

import (
	"errors"
	"fmt"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/internal/cliutil"
	"github.com/opcheck-dev/opcheck/schemastore"
)

type vetFlags struct {
	schemaPath string
	format     string
}

func newVetCmd() *cobra.Command {
	flags := &vetFlags{}

	cmd := &cobra.Command{
		Use:   "vet <catalog.yaml>",
		Short: "Vet a rule catalog for defects",
		Long: `Vet loads a rule catalog and checks every precondition the validator
assumes: known sources and rule kinds, payloads present for the kinds
that need them, compilable patterns, schema names on single and list
contracts, and no contradictory required pairs.

With --schema, every schema reference the catalog makes is also checked
against the schema document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVet(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.schemaPath, "schema", "s", "", "schema document to resolve catalog schema references against")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "output format (text, json)")

	return cmd
}

func runVet(cmd *cobra.Command, path string, flags *vetFlags) error {
	if flags.format != "text" && flags.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", flags.format)
	}

	c, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	var defects []catalog.Defect
	if err := c.Vet(); err != nil {
		var verr *catalog.VetError
		if !errors.As(err, &verr) {
			return err
		}
		defects = verr.Defects()
	}

	if flags.schemaPath != "" {
		store, err := schemastore.Load(flags.schemaPath)
		if err != nil {
			return err
		}
		for _, ref := range c.SchemaRefs() {
			if !store.Has(ref) {
				defects = append(defects, catalog.Defect{
					Field:   ref,
					Message: fmt.Sprintf("schema reference does not resolve in %s", flags.schemaPath),
				})
			}
		}
	}

	out := cmd.OutOrStdout()
	if flags.format == "json" {
		data, err := json.MarshalIndent(vetReport{Catalog: path, Defects: defects}, "", "  ")
		if err != nil {
			return err
		}
		cliutil.Writef(out, "%s\n", data)
	} else {
		for _, d := range defects {
			cliutil.Writef(out, "%s: %s\n", d.Field, d.Message)
		}
	}

	if len(defects) > 0 {
		return fmt.Errorf("catalog %s has %d defect(s)", path, len(defects))
	}
	if flags.format == "text" {
		cliutil.Writef(out, "catalog %s: %d operation(s), no defects\n", path, len(c.Operations))
	}
	return nil
}

type vetReport struct {
	Catalog string           `json:"catalog"`
	Defects []catalog.Defect `json:"defects"`
}

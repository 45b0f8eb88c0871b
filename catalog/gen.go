package catalog

import (
	"bytes"
	"fmt"
	"go/token"
	"strconv"

	"golang.org/x/tools/imports"
)

const modulePath = "github.com/opcheck-dev/opcheck/catalog"

// EmitGo renders the catalog as a generated Go source file declaring a
// Table() constructor, for linking a catalog into a binary instead of
// loading it at startup. The output is formatted and has its imports
// fixed, so it is immediately compilable.
func EmitGo(c *Catalog, pkgName string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog: cannot emit a nil catalog")
	}
	if !token.IsIdentifier(pkgName) {
		return nil, fmt.Errorf("catalog: %q is not a valid package name", pkgName)
	}

	g := &tableWriter{}
	g.printf("// Code generated by opcheck derive; DO NOT EDIT.\n\n")
	g.printf("package %s\n\n", pkgName)
	g.printf("import (\n\t%q\n)\n\n", modulePath)

	g.printf("// Table returns the generated operation catalog.\n")
	g.printf("func Table() *catalog.Catalog {\n")
	g.printf("\treturn catalog.New(\n")
	for i := range c.Operations {
		g.writeOperation(&c.Operations[i])
	}
	g.printf("\t)\n}\n")

	if g.needFloatPtr {
		g.printf("\nfunc f64(v float64) *float64 { return &v }\n")
	}
	if g.needIntPtr {
		g.printf("\nfunc length(v int) *int { return &v }\n")
	}

	return formatAndFixImports("table.go", g.buf.Bytes())
}

// formatAndFixImports formats generated source and fixes its imports with
// goimports-equivalent processing, so emitted files compile as written.
func formatAndFixImports(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: generated source does not format: %w", err)
	}
	return out, nil
}

type tableWriter struct {
	buf bytes.Buffer

	needFloatPtr bool
	needIntPtr   bool
}

func (g *tableWriter) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *tableWriter) writeOperation(op *Operation) {
	g.printf("\t\tcatalog.Operation{\n")
	g.printf("\t\t\tID: %q,\n", op.ID)
	if op.Method != "" {
		g.printf("\t\t\tMethod: %q,\n", op.Method)
	}
	if op.Path != "" {
		g.printf("\t\t\tPath: %q,\n", op.Path)
	}
	if len(op.Params) > 0 {
		g.printf("\t\t\tParams: []catalog.Param{\n")
		for i := range op.Params {
			g.writeParam(&op.Params[i])
		}
		g.printf("\t\t\t},\n")
	}
	if len(op.Responses) > 0 {
		g.printf("\t\t\tResponses: []catalog.ResponseContract{\n")
		for i := range op.Responses {
			g.writeContract(&op.Responses[i])
		}
		g.printf("\t\t\t},\n")
	}
	g.printf("\t\t},\n")
}

func (g *tableWriter) writeParam(p *Param) {
	g.printf("\t\t\t\t{\n")
	g.printf("\t\t\t\t\tName:   %q,\n", p.Name)
	g.printf("\t\t\t\t\tSource: %s,\n", sourceExpr(p.Source))
	g.printf("\t\t\t\t\tRules: []catalog.Rule{\n")
	for i := range p.Rules {
		g.writeRule(&p.Rules[i])
	}
	g.printf("\t\t\t\t\t},\n")
	g.printf("\t\t\t\t},\n")
}

func (g *tableWriter) writeRule(r *Rule) {
	g.printf("\t\t\t\t\t\t{Kind: %s", kindExpr(r.Kind))
	if r.Type != "" {
		g.printf(", Type: %s", typeExpr(r.Type))
	}
	if len(r.Enum) > 0 {
		g.printf(", Enum: []string{")
		for i, m := range r.Enum {
			if i > 0 {
				g.printf(", ")
			}
			g.printf("%q", m)
		}
		g.printf("}")
	}
	if r.Bound != nil {
		g.needFloatPtr = true
		g.printf(", Bound: f64(%s)", floatLiteral(*r.Bound))
	}
	if r.Length != nil {
		g.needIntPtr = true
		g.printf(", Length: length(%d)", *r.Length)
	}
	if r.Pattern != "" {
		g.printf(", Pattern: %q", r.Pattern)
	}
	g.printf("},\n")
}

func (g *tableWriter) writeContract(rc *ResponseContract) {
	g.printf("\t\t\t\t{Status: %s, Shape: %s", statusExpr(rc.Status), shapeExpr(rc.Shape))
	if rc.Schema != "" {
		g.printf(", Schema: %q", rc.Schema)
	}
	g.printf("},\n")
}

func sourceExpr(s Source) string {
	switch s {
	case SourceQuery:
		return "catalog.SourceQuery"
	case SourceHeader:
		return "catalog.SourceHeader"
	case SourcePath:
		return "catalog.SourcePath"
	case SourceBody:
		return "catalog.SourceBody"
	}
	return fmt.Sprintf("catalog.Source(%q)", string(s))
}

func kindExpr(k RuleKind) string {
	switch k {
	case KindRequired:
		return "catalog.KindRequired"
	case KindNotRequired:
		return "catalog.KindNotRequired"
	case KindType:
		return "catalog.KindType"
	case KindEnum:
		return "catalog.KindEnum"
	case KindMax:
		return "catalog.KindMax"
	case KindMin:
		return "catalog.KindMin"
	case KindExclusiveMax:
		return "catalog.KindExclusiveMax"
	case KindExclusiveMin:
		return "catalog.KindExclusiveMin"
	case KindMaxLength:
		return "catalog.KindMaxLength"
	case KindMinLength:
		return "catalog.KindMinLength"
	case KindPattern:
		return "catalog.KindPattern"
	case KindSchema:
		return "catalog.KindSchema"
	}
	return fmt.Sprintf("catalog.RuleKind(%q)", string(k))
}

func typeExpr(t TypeName) string {
	switch t {
	case TypeBinary:
		return "catalog.TypeBinary"
	case TypeString:
		return "catalog.TypeString"
	case TypeInteger:
		return "catalog.TypeInteger"
	case TypeFloat:
		return "catalog.TypeFloat"
	case TypeBoolean:
		return "catalog.TypeBoolean"
	case TypeDate:
		return "catalog.TypeDate"
	case TypeDateTime:
		return "catalog.TypeDateTime"
	}
	return fmt.Sprintf("catalog.TypeName(%q)", string(t))
}

func shapeExpr(s Shape) string {
	switch s {
	case ShapeSingle:
		return "catalog.ShapeSingle"
	case ShapeList:
		return "catalog.ShapeList"
	case "", ShapeNone:
		return "catalog.ShapeNone"
	}
	return fmt.Sprintf("catalog.Shape(%q)", string(s))
}

func statusExpr(s StatusSelector) string {
	if s.IsDefault() {
		return "catalog.StatusDefault"
	}
	if code, ok := s.Exact(); ok {
		return fmt.Sprintf("catalog.Status(%d)", code)
	}
	return fmt.Sprintf("catalog.StatusSelector(%q)", string(s))
}

func floatLiteral(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

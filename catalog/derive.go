package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/opcheck-dev/opcheck/internal/naming"
)

// Derive builds a catalog from an OpenAPI 3 document. Each path operation
// becomes a catalog operation:
//
//   - query/header/path parameters map to required/not_required plus the
//     typed, enum, bound, length, and pattern rules their schemas declare;
//   - a JSON request body maps to a body-sourced param named after its
//     component schema, carrying required/not_required and a schema rule;
//   - responses map to contracts, with $ref bodies as single shapes,
//     arrays of $ref as list shapes, bodies the catalog cannot reference
//     as unvalidated, and the document's default response as the
//     catch-all.
//
// The derived catalog passes Vet by construction. Run the document
// through its own loader validation first; Derive trusts its structure.
func Derive(doc *openapi3.T) (*Catalog, error) {
	if doc == nil || doc.Paths == nil {
		return nil, fmt.Errorf("catalog: cannot derive from an empty document")
	}

	paths := doc.Paths.Map()
	pathKeys := make([]string, 0, len(paths))
	for k := range paths {
		pathKeys = append(pathKeys, k)
	}
	sort.Strings(pathKeys)

	var ops []Operation
	for _, path := range pathKeys {
		item := paths[path]
		if item == nil {
			continue
		}
		methods := item.Operations()
		methodKeys := make([]string, 0, len(methods))
		for m := range methods {
			methodKeys = append(methodKeys, m)
		}
		sort.Strings(methodKeys)

		for _, method := range methodKeys {
			src := methods[method]
			if src == nil {
				continue
			}
			ops = append(ops, *deriveOperation(method, path, src))
		}
	}

	c := &Catalog{Operations: ops}
	c.index()
	return c, nil
}

func deriveOperation(method, path string, src *openapi3.Operation) *Operation {
	op := &Operation{
		ID:     src.OperationID,
		Method: method,
		Path:   path,
	}
	if op.ID == "" {
		op.ID = naming.OperationID(method, path)
	}

	for _, pref := range src.Parameters {
		if pref == nil || pref.Value == nil {
			continue
		}
		p := deriveParam(pref.Value)
		if p != nil {
			op.Params = append(op.Params, *p)
		}
	}

	if bodyParam := deriveBodyParam(src.RequestBody); bodyParam != nil {
		op.Params = append(op.Params, *bodyParam)
	}

	if src.Responses != nil {
		op.Responses = deriveContracts(src.Responses)
	}
	return op
}

// deriveParam maps one declared parameter, or nil for locations the rule
// model has no source for (cookies).
func deriveParam(p *openapi3.Parameter) *Param {
	var source Source
	switch p.In {
	case openapi3.ParameterInQuery:
		source = SourceQuery
	case openapi3.ParameterInHeader:
		source = SourceHeader
	case openapi3.ParameterInPath:
		source = SourcePath
	default:
		return nil
	}

	rules := []Rule{requiredRule(p.Required || source == SourcePath)}
	if p.Schema != nil && p.Schema.Value != nil {
		rules = append(rules, schemaRules(p.Schema.Value)...)
	}

	return &Param{Name: p.Name, Source: source, Rules: rules}
}

// deriveBodyParam maps a JSON request body to a body-sourced param whose
// name is the component the schema rule will resolve. Bodies without a
// referenceable component are skipped.
func deriveBodyParam(bref *openapi3.RequestBodyRef) *Param {
	if bref == nil || bref.Value == nil {
		return nil
	}
	media := bref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return nil
	}

	name := componentName(media.Schema)
	if name == "" {
		return nil
	}

	return &Param{
		Name:   name,
		Source: SourceBody,
		Rules:  []Rule{requiredRule(bref.Value.Required), {Kind: KindSchema}},
	}
}

func requiredRule(required bool) Rule {
	if required {
		return Rule{Kind: KindRequired}
	}
	return Rule{Kind: KindNotRequired}
}

// schemaRules translates the scalar constraints of one schema into the
// canonical rule order: type, enum, min, max, min_length, max_length,
// pattern. Coercion happens before comparisons because of that order.
func schemaRules(s *openapi3.Schema) []Rule {
	var rules []Rule

	if t := deriveTypeName(s); t != "" {
		rules = append(rules, Rule{Kind: KindType, Type: t})
	}

	if len(s.Enum) > 0 {
		members := make([]string, 0, len(s.Enum))
		for _, m := range s.Enum {
			str, ok := memberString(m)
			if !ok {
				members = nil
				break
			}
			members = append(members, str)
		}
		if len(members) > 0 {
			rules = append(rules, Rule{Kind: KindEnum, Enum: members})
		}
	}

	if s.Min != nil {
		kind := KindMin
		if s.ExclusiveMin {
			kind = KindExclusiveMin
		}
		bound := *s.Min
		rules = append(rules, Rule{Kind: kind, Bound: &bound})
	}
	if s.Max != nil {
		kind := KindMax
		if s.ExclusiveMax {
			kind = KindExclusiveMax
		}
		bound := *s.Max
		rules = append(rules, Rule{Kind: kind, Bound: &bound})
	}

	if s.MinLength > 0 {
		length := int(s.MinLength)
		rules = append(rules, Rule{Kind: KindMinLength, Length: &length})
	}
	if s.MaxLength != nil {
		length := int(*s.MaxLength)
		rules = append(rules, Rule{Kind: KindMaxLength, Length: &length})
	}

	if s.Pattern != "" {
		rules = append(rules, Rule{Kind: KindPattern, Pattern: s.Pattern})
	}

	return rules
}

// deriveTypeName maps a schema's type+format pair onto the rule model's
// type names. Structured types have no scalar coercion and map to none.
func deriveTypeName(s *openapi3.Schema) TypeName {
	if s.Type == nil {
		return ""
	}
	switch {
	case s.Type.Is(openapi3.TypeString):
		switch s.Format {
		case "binary", "byte":
			return TypeBinary
		case "date":
			return TypeDate
		case "date-time":
			return TypeDateTime
		default:
			return TypeString
		}
	case s.Type.Is(openapi3.TypeInteger):
		return TypeInteger
	case s.Type.Is(openapi3.TypeNumber):
		return TypeFloat
	case s.Type.Is(openapi3.TypeBoolean):
		return TypeBoolean
	}
	return ""
}

func deriveContracts(responses *openapi3.Responses) []ResponseContract {
	m := responses.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Exact codes and classes sort ahead of the catch-all.
	sort.Slice(keys, func(i, j int) bool {
		di, dj := keys[i] == "default", keys[j] == "default"
		if di != dj {
			return dj
		}
		return keys[i] < keys[j]
	})

	var contracts []ResponseContract
	for _, key := range keys {
		ref := m[key]
		if ref == nil || ref.Value == nil {
			continue
		}

		var selector StatusSelector
		if key == "default" {
			selector = StatusDefault
		} else {
			selector = StatusSelector(strings.ToUpper(key))
			if !selector.Valid() {
				continue
			}
		}

		contracts = append(contracts, deriveContract(selector, ref.Value))
	}
	return contracts
}

func deriveContract(selector StatusSelector, resp *openapi3.Response) ResponseContract {
	rc := ResponseContract{Status: selector, Shape: ShapeNone}

	media := resp.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return rc
	}

	if name := refComponent(media.Schema.Ref); name != "" {
		rc.Shape = ShapeSingle
		rc.Schema = name
		return rc
	}

	s := media.Schema.Value
	if s != nil && s.Type != nil && s.Type.Is(openapi3.TypeArray) && s.Items != nil {
		if name := refComponent(s.Items.Ref); name != "" {
			rc.Shape = ShapeList
			rc.Schema = name
		}
	}
	return rc
}

// componentName resolves the name a schema rule will reference for a body
// schema: the $ref component, else a name shaped from the schema title.
func componentName(sref *openapi3.SchemaRef) string {
	if name := refComponent(sref.Ref); name != "" {
		return name
	}
	if sref.Value != nil && sref.Value.Title != "" {
		return naming.ComponentName(sref.Value.Title)
	}
	return ""
}

// refComponent extracts the component name from a schema reference such as
// "#/components/schemas/Pet".
func refComponent(ref string) string {
	if ref == "" {
		return ""
	}
	i := strings.LastIndex(ref, "/")
	if i < 0 || i == len(ref)-1 {
		return ""
	}
	return ref[i+1:]
}

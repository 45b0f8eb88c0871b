package catalog

import (
	"sort"
	"strconv"
)

// Source identifies where a parameter's raw value is read from.
type Source string

// Parameter sources. The YAML form is the constant value.
const (
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
	SourcePath   Source = "path"
	SourceBody   Source = "body"
)

// Known reports whether s is one of the declared sources.
func (s Source) Known() bool {
	switch s {
	case SourceQuery, SourceHeader, SourcePath, SourceBody:
		return true
	}
	return false
}

// RuleKind names a validation rule. The set below is closed: Vet rejects
// any other value, and the engine treats one reaching it as a catalog
// defect rather than an input problem.
type RuleKind string

// Rule kinds in their YAML tag form.
const (
	KindRequired     RuleKind = "required"
	KindNotRequired  RuleKind = "not_required"
	KindType         RuleKind = "type"
	KindEnum         RuleKind = "enum"
	KindMax          RuleKind = "max"
	KindMin          RuleKind = "min"
	KindExclusiveMax RuleKind = "exclusive_max"
	KindExclusiveMin RuleKind = "exclusive_min"
	KindMaxLength    RuleKind = "max_length"
	KindMinLength    RuleKind = "min_length"
	KindPattern      RuleKind = "pattern"
	KindSchema       RuleKind = "schema"
)

// Known reports whether k is one of the declared rule kinds.
func (k RuleKind) Known() bool {
	switch k {
	case KindRequired, KindNotRequired, KindType, KindEnum,
		KindMax, KindMin, KindExclusiveMax, KindExclusiveMin,
		KindMaxLength, KindMinLength, KindPattern, KindSchema:
		return true
	}
	return false
}

// TypeName is the payload of a type rule.
type TypeName string

// Type names a type rule may carry.
const (
	TypeBinary   TypeName = "binary"
	TypeString   TypeName = "string"
	TypeInteger  TypeName = "integer"
	TypeFloat    TypeName = "float"
	TypeBoolean  TypeName = "boolean"
	TypeDate     TypeName = "date"
	TypeDateTime TypeName = "date-time"
)

// Known reports whether t is one of the declared type names.
func (t TypeName) Known() bool {
	switch t {
	case TypeBinary, TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeDateTime:
		return true
	}
	return false
}

// Rule describes one validation step. Kind selects which payload field is
// meaningful; the others stay zero.
type Rule struct {
	Kind RuleKind

	// Type is the payload of a type rule.
	Type TypeName
	// Enum holds the members of an enum rule, matched case-sensitively.
	Enum []string
	// Bound is the payload of max, min, exclusive_max, and exclusive_min.
	Bound *float64
	// Length is the payload of max_length and min_length.
	Length *int
	// Pattern is the uncompiled expression of a pattern rule.
	Pattern string
}

// Param declares one extractable parameter and its ordered rule list.
// Rule order is evaluation order.
type Param struct {
	Name   string `yaml:"name" json:"name"`
	Source Source `yaml:"in" json:"in"`
	Rules  []Rule `yaml:"rules" json:"rules"`
}

// Shape says how a response body relates to its component schema.
type Shape string

// Response body shapes. An empty Shape is treated as ShapeNone.
const (
	ShapeNone   Shape = "none"
	ShapeSingle Shape = "single"
	ShapeList   Shape = "list"
)

// Known reports whether s is one of the declared shapes. The empty string
// counts: it is the literal-construction form of ShapeNone.
func (s Shape) Known() bool {
	switch s {
	case "", ShapeNone, ShapeSingle, ShapeList:
		return true
	}
	return false
}

// StatusSelector selects which response statuses a contract covers: an
// exact code ("200"), a class pattern ("2XX"), or the "default" catch-all.
type StatusSelector string

// StatusDefault matches statuses no exact or class selector covers.
const StatusDefault StatusSelector = "default"

// Status returns the selector for an exact status code. Code 0 is the
// catch-all, mirroring the convention of data-driven catalogs.
func Status(code int) StatusSelector {
	if code == 0 {
		return StatusDefault
	}
	return StatusSelector(strconv.Itoa(code))
}

// IsDefault reports whether s is the catch-all selector.
func (s StatusSelector) IsDefault() bool {
	return s == StatusDefault
}

// IsClass reports whether s is a class pattern such as "2XX".
func (s StatusSelector) IsClass() bool {
	return len(s) == 3 && s[0] >= '1' && s[0] <= '5' && s[1] == 'X' && s[2] == 'X'
}

// Exact returns the exact status code s selects, if it selects one.
func (s StatusSelector) Exact() (int, bool) {
	if s.IsDefault() || s.IsClass() {
		return 0, false
	}
	code, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, false
	}
	return code, true
}

// Matches reports whether the selector covers status. The catch-all
// matches everything.
func (s StatusSelector) Matches(status int) bool {
	switch {
	case s.IsDefault():
		return true
	case s.IsClass():
		return status >= 100 && status <= 599 && int(s[0]-'0') == status/100
	default:
		code, ok := s.Exact()
		return ok && code == status
	}
}

// Valid reports whether s is one of the accepted selector forms:
// "default", a class pattern, or a code in 100..599.
func (s StatusSelector) Valid() bool {
	if s.IsDefault() || s.IsClass() {
		return true
	}
	code, ok := s.Exact()
	return ok && code >= 100 && code <= 599
}

// ResponseContract pairs a status selector with the body shape a matching
// response must have.
type ResponseContract struct {
	Status StatusSelector `yaml:"status" json:"status"`
	Shape  Shape          `yaml:"shape,omitempty" json:"shape,omitempty"`
	// Schema names the component schema single and list shapes validate
	// against. Empty for ShapeNone.
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Operation declares the parameters and response contracts registered
// under one operation ID. Param order is populate order.
type Operation struct {
	ID string `yaml:"id" json:"id"`

	// Method and Path are routing hints for callers that resolve inbound
	// requests to operations. The validation core never reads them.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`

	Params    []Param            `yaml:"params,omitempty" json:"params,omitempty"`
	Responses []ResponseContract `yaml:"responses,omitempty" json:"responses,omitempty"`
}

// Param returns the named parameter declaration.
func (op *Operation) Param(name string) (*Param, bool) {
	for i := range op.Params {
		if op.Params[i].Name == name {
			return &op.Params[i], true
		}
	}
	return nil, false
}

// ContractFor selects the contract covering status. An exact selector
// wins, then a class pattern, then the catch-all; declaration order breaks
// ties within each band.
func (op *Operation) ContractFor(status int) (*ResponseContract, bool) {
	var class, catchall *ResponseContract
	for i := range op.Responses {
		rc := &op.Responses[i]
		switch {
		case rc.Status.IsDefault():
			if catchall == nil {
				catchall = rc
			}
		case rc.Status.IsClass():
			if class == nil && rc.Status.Matches(status) {
				class = rc
			}
		default:
			if code, ok := rc.Status.Exact(); ok && code == status {
				return rc, true
			}
		}
	}
	if class != nil {
		return class, true
	}
	if catchall != nil {
		return catchall, true
	}
	return nil, false
}

// Catalog is the full rule set keyed by operation ID. Immutable after
// construction; safe for unsynchronized concurrent reads.
type Catalog struct {
	Operations []Operation `yaml:"operations" json:"operations"`

	byID map[string]int
}

// New builds an indexed catalog from operations, the entry point for
// generated tables and programmatic construction.
func New(ops ...Operation) *Catalog {
	c := &Catalog{Operations: ops}
	c.index()
	return c
}

func (c *Catalog) index() {
	c.byID = make(map[string]int, len(c.Operations))
	for i := range c.Operations {
		id := c.Operations[i].ID
		if _, dup := c.byID[id]; !dup {
			c.byID[id] = i
		}
	}
}

// Operation returns the operation declared under id.
func (c *Catalog) Operation(id string) (*Operation, bool) {
	if c.byID == nil {
		// Literal construction skips New; fall back to a scan.
		for i := range c.Operations {
			if c.Operations[i].ID == id {
				return &c.Operations[i], true
			}
		}
		return nil, false
	}
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.Operations[i], true
}

// Param returns the named parameter of the given operation.
func (c *Catalog) Param(operationID, name string) (*Param, bool) {
	op, ok := c.Operation(operationID)
	if !ok {
		return nil, false
	}
	return op.Param(name)
}

// OperationIDs returns the declared IDs in catalog order.
func (c *Catalog) OperationIDs() []string {
	ids := make([]string, 0, len(c.Operations))
	for i := range c.Operations {
		ids = append(ids, c.Operations[i].ID)
	}
	return ids
}

// ComponentRef returns the document fragment for a named component schema.
func ComponentRef(name string) string {
	return "#/components/schemas/" + name
}

// SchemaRefs returns every component reference the catalog's schema rules
// and response contracts can touch, deduplicated and sorted. Callers use
// it to precompile references at startup.
func (c *Catalog) SchemaRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	add := func(name string) {
		if name == "" {
			return
		}
		ref := ComponentRef(name)
		if _, dup := seen[ref]; dup {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	for i := range c.Operations {
		op := &c.Operations[i]
		for j := range op.Params {
			p := &op.Params[j]
			for _, r := range p.Rules {
				if r.Kind == KindSchema {
					add(p.Name)
				}
			}
		}
		for _, rc := range op.Responses {
			add(rc.Schema)
		}
	}
	sort.Strings(refs)
	return refs
}

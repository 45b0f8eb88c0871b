package catalog

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Vet checks every declarative precondition the engine assumes: known
// sources and rule kinds, payloads present for the kinds that need them,
// compilable patterns, schema names on single/list contracts, and no
// contradictory required pairs. A catalog that passes Vet can only fail
// requests, never the process.
//
// The returned error is nil or a *VetError matching
// operrors.ErrCatalogDefect.
func (c *Catalog) Vet() error {
	errs := validation.Errors{}
	if len(c.Operations) == 0 {
		errs["operations"] = errors.New("catalog declares no operations")
	}

	seen := make(map[string]bool, len(c.Operations))
	for i := range c.Operations {
		op := &c.Operations[i]
		key := op.ID
		if key == "" {
			key = fmt.Sprintf("operations[%d]", i)
		}
		if op.ID != "" && seen[op.ID] {
			errs[key] = errors.New("duplicate operation id")
			continue
		}
		seen[op.ID] = true
		if err := vetOperation(op); err != nil {
			errs[key] = err
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &VetError{Errs: errs}
}

func vetOperation(op *Operation) error {
	err := validation.ValidateStruct(op,
		validation.Field(&op.ID, validation.Required.Error("operation id must not be empty")),
		validation.Field(&op.Params, validation.Each(validation.By(vetParamValue))),
		validation.Field(&op.Responses, validation.Each(validation.By(vetContractValue))),
	)
	if err != nil {
		return err
	}
	if len(op.Params) == 0 && len(op.Responses) == 0 {
		return errors.New("operation declares neither params nor responses")
	}
	if (op.Method == "") != (op.Path == "") {
		return errors.New("method and path must be declared together")
	}
	return nil
}

func vetParamValue(value any) error {
	p, ok := value.(Param)
	if !ok {
		return fmt.Errorf("unexpected param value %T", value)
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required.Error("param name must not be empty")),
		validation.Field(&p.Source,
			validation.Required.Error("param source must not be empty"),
			validation.In(SourceQuery, SourceHeader, SourcePath, SourceBody).
				Error(fmt.Sprintf("unknown source %q", p.Source))),
		validation.Field(&p.Rules,
			validation.Required.Error("param declares no rules"),
			validation.By(vetRules)),
	)
}

func vetRules(value any) error {
	rules, ok := value.([]Rule)
	if !ok {
		return fmt.Errorf("unexpected rules value %T", value)
	}

	var hasRequired, hasNotRequired bool
	for i := range rules {
		r := &rules[i]
		if err := vetRule(r); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		switch r.Kind {
		case KindRequired:
			hasRequired = true
		case KindNotRequired:
			hasNotRequired = true
		}
	}
	if hasRequired && hasNotRequired {
		return errors.New("rules declare both required and not_required")
	}
	return nil
}

func vetRule(r *Rule) error {
	switch r.Kind {
	case KindRequired, KindNotRequired, KindSchema:
		return nil
	case KindType:
		if !r.Type.Known() {
			return fmt.Errorf("unknown type name %q", r.Type)
		}
	case KindEnum:
		if len(r.Enum) == 0 {
			return errors.New("enum rule declares no members")
		}
	case KindMax, KindMin, KindExclusiveMax, KindExclusiveMin:
		if r.Bound == nil {
			return fmt.Errorf("%s rule is missing its bound", r.Kind)
		}
		if math.IsNaN(*r.Bound) || math.IsInf(*r.Bound, 0) {
			return fmt.Errorf("%s rule bound is not a finite number", r.Kind)
		}
	case KindMaxLength, KindMinLength:
		if r.Length == nil {
			return fmt.Errorf("%s rule is missing its length", r.Kind)
		}
		if *r.Length < 0 {
			return fmt.Errorf("%s rule has a negative length", r.Kind)
		}
	case KindPattern:
		if r.Pattern == "" {
			return errors.New("pattern rule is missing its expression")
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("pattern does not compile: %w", err)
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

func vetContractValue(value any) error {
	rc, ok := value.(ResponseContract)
	if !ok {
		return fmt.Errorf("unexpected response contract value %T", value)
	}
	if !rc.Status.Valid() {
		return fmt.Errorf("invalid status selector %q", rc.Status)
	}
	if !rc.Shape.Known() {
		return fmt.Errorf("unknown shape %q", rc.Shape)
	}
	switch rc.Shape {
	case ShapeSingle, ShapeList:
		if rc.Schema == "" {
			return fmt.Errorf("%s shape is missing its schema name", rc.Shape)
		}
	default:
		if rc.Schema != "" {
			return fmt.Errorf("schema %q is set but the shape validates no body", rc.Schema)
		}
	}
	return nil
}

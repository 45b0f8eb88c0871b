package opcheck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/operrors"
)

// applyRules folds the parameter's ordered rule list over an accumulator
// seeded with the raw extracted value. Each rule passes the accumulator
// through unchanged, replaces it with a coerced value, or fails; the first
// failure returns immediately.
//
// The error return is a *operrors.ValidationError for rule violations and a
// fatal error (matching operrors.ErrCatalogDefect) for defective catalog
// entries such as unknown rule tags.
func (v *Validator) applyRules(opID string, p *catalog.Param, value any, present bool) (any, error) {
	acc := value
	for _, r := range p.Rules {
		next, err := v.applyRule(opID, p, r, acc, present)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

// applyRule applies a single rule. Only required inspects presence; every
// other rule passes absent values through untouched.
func (v *Validator) applyRule(opID string, p *catalog.Param, r catalog.Rule, acc any, present bool) (any, error) {
	switch r.Kind {
	case catalog.KindRequired:
		if !present {
			return nil, ruleError(opID, p, r, nil, "required parameter is missing")
		}
		return acc, nil
	case catalog.KindNotRequired:
		return acc, nil
	}

	if !present {
		return acc, nil
	}

	switch r.Kind {
	case catalog.KindType:
		return applyType(opID, p, r, acc)
	case catalog.KindEnum:
		return applyEnum(opID, p, r, acc)
	case catalog.KindMax, catalog.KindMin, catalog.KindExclusiveMax, catalog.KindExclusiveMin:
		return applyBound(opID, p, r, acc)
	case catalog.KindMaxLength, catalog.KindMinLength:
		return applyLength(opID, p, r, acc)
	case catalog.KindPattern:
		return applyPattern(opID, p, r, acc)
	case catalog.KindSchema:
		return v.applySchema(opID, p, r, acc)
	default:
		return nil, &operrors.UnknownRuleError{
			Operation: opID,
			Param:     p.Name,
			Kind:      string(r.Kind),
		}
	}
}

// applyType checks or coerces the accumulator to the declared type.
func applyType(opID string, p *catalog.Param, r catalog.Rule, acc any) (any, error) {
	switch r.Type {
	case catalog.TypeBoolean:
		if b, ok := acc.(bool); ok {
			return b, nil
		}
		if s, ok := textOf(acc); ok {
			// Only the two spellings coerce, case-insensitively.
			if strings.EqualFold(s, "true") {
				return true, nil
			}
			if strings.EqualFold(s, "false") {
				return false, nil
			}
		}
		return nil, ruleError(opID, p, r, acc, "value is not a boolean")

	case catalog.TypeInteger:
		if _, ok := numOf(acc); ok {
			return acc, nil
		}
		if s, ok := textOf(acc); ok {
			n, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				return n, nil
			}
		}
		return nil, ruleError(opID, p, r, acc, "value is not an integer")

	case catalog.TypeFloat:
		if _, ok := numOf(acc); ok {
			return acc, nil
		}
		if s, ok := textOf(acc); ok {
			f, err := strconv.ParseFloat(s, 64)
			if err == nil {
				return f, nil
			}
		}
		return nil, ruleError(opID, p, r, acc, "value is not a number")

	case catalog.TypeString, catalog.TypeBinary, catalog.TypeDate, catalog.TypeDateTime:
		// Textual check only; date formats are not validated at this layer.
		if _, ok := textOf(acc); ok {
			return acc, nil
		}
		return nil, ruleError(opID, p, r, acc,
			fmt.Sprintf("value is not textual (%s expected)", r.Type))

	default:
		return nil, &operrors.UnknownRuleError{
			Operation: opID,
			Param:     p.Name,
			Kind:      fmt.Sprintf("type %s", r.Type),
		}
	}
}

// applyEnum requires a textual candidate naming one of the configured
// members exactly and coerces to the matched member.
func applyEnum(opID string, p *catalog.Param, r catalog.Rule, acc any) (any, error) {
	s, ok := textOf(acc)
	if !ok {
		return nil, ruleError(opID, p, r, acc, "value is not textual")
	}
	for _, member := range r.Enum {
		if s == member {
			return member, nil
		}
	}
	return nil, ruleError(opID, p, r, acc,
		fmt.Sprintf("value is not one of [%s]", strings.Join(r.Enum, ", ")))
}

// applyBound compares the accumulator numerically against the bound,
// parsing textual values first. Comparison rules never replace the
// accumulator.
func applyBound(opID string, p *catalog.Param, r catalog.Rule, acc any) (any, error) {
	if r.Bound == nil {
		return nil, fmt.Errorf("opcheck: rule %s on parameter %q has no bound: %w",
			r.Kind, p.Name, operrors.ErrCatalogDefect)
	}
	n, ok := numOf(acc)
	if !ok {
		if s, sok := textOf(acc); sok {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, ruleError(opID, p, r, acc, "value is not numeric")
			}
			n = f
		} else {
			return nil, ruleError(opID, p, r, acc, "value is not numeric")
		}
	}

	bound := *r.Bound
	switch r.Kind {
	case catalog.KindMax:
		if n > bound {
			return nil, ruleError(opID, p, r, acc, fmt.Sprintf("value exceeds maximum %v", bound))
		}
	case catalog.KindMin:
		if n < bound {
			return nil, ruleError(opID, p, r, acc, fmt.Sprintf("value is below minimum %v", bound))
		}
	case catalog.KindExclusiveMax:
		if n >= bound {
			return nil, ruleError(opID, p, r, acc, fmt.Sprintf("value must be less than %v", bound))
		}
	case catalog.KindExclusiveMin:
		// Strictly greater than the bound, mirroring exclusive_max.
		if n <= bound {
			return nil, ruleError(opID, p, r, acc, fmt.Sprintf("value must be greater than %v", bound))
		}
	}
	return acc, nil
}

// applyLength compares rune count for strings and byte count for byte
// slices against the declared length bound.
func applyLength(opID string, p *catalog.Param, r catalog.Rule, acc any) (any, error) {
	if r.Length == nil {
		return nil, fmt.Errorf("opcheck: rule %s on parameter %q has no length: %w",
			r.Kind, p.Name, operrors.ErrCatalogDefect)
	}
	var n int
	switch x := acc.(type) {
	case string:
		n = utf8.RuneCountInString(x)
	case []byte:
		n = len(x)
	default:
		return nil, ruleError(opID, p, r, acc, "value has no length")
	}

	if r.Kind == catalog.KindMaxLength && n > *r.Length {
		return nil, ruleError(opID, p, r, acc,
			fmt.Sprintf("length %d exceeds maximum %d", n, *r.Length))
	}
	if r.Kind == catalog.KindMinLength && n < *r.Length {
		return nil, ruleError(opID, p, r, acc,
			fmt.Sprintf("length %d is below minimum %d", n, *r.Length))
	}
	return acc, nil
}

// applyPattern requires the compiled expression to match anywhere in the
// textual value.
func applyPattern(opID string, p *catalog.Param, r catalog.Rule, acc any) (any, error) {
	s, ok := textOf(acc)
	if !ok {
		return nil, ruleError(opID, p, r, acc, "value is not textual")
	}
	re, err := compiledPattern(r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("opcheck: pattern %q on parameter %q does not compile (%v): %w",
			r.Pattern, p.Name, err, operrors.ErrCatalogDefect)
	}
	if !re.MatchString(s) {
		return nil, ruleError(opID, p, r, acc,
			fmt.Sprintf("value does not match pattern %q", r.Pattern))
	}
	return acc, nil
}

// applySchema delegates to the schema store using the parameter-name
// component reference.
func (v *Validator) applySchema(opID string, p *catalog.Param, r catalog.Rule, acc any) (any, error) {
	if v.store == nil {
		return nil, fmt.Errorf("opcheck: parameter %q declares a schema rule but no schema store is configured: %w",
			p.Name, operrors.ErrCatalogDefect)
	}
	detail, err := v.store.ValidateRef(catalog.ComponentRef(p.Name), acc)
	if err != nil {
		return nil, err
	}
	if detail != nil {
		return nil, &operrors.ValidationError{
			Operation: opID,
			Param:     p.Name,
			Rule:      string(r.Kind),
			Value:     acc,
			Message:   fmt.Sprintf("value does not conform to schema %q", p.Name),
			Detail:    detail,
		}
	}
	return acc, nil
}

// ruleError builds the rule-violation error for one parameter.
func ruleError(opID string, p *catalog.Param, r catalog.Rule, value any, msg string) error {
	return &operrors.ValidationError{
		Operation: opID,
		Param:     p.Name,
		Rule:      string(r.Kind),
		Value:     value,
		Message:   msg,
	}
}

// textOf returns the textual form of strings and byte slices.
func textOf(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

// numOf widens any native numeric to float64 for comparisons.
func numOf(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// patternCacheCap bounds the process-wide compiled-pattern cache. Catalogs
// carry a small fixed set of patterns, so the cap only matters when dynamic
// catalogs flow through one process; past the cap, patterns compile per
// call instead of evicting.
const patternCacheCap = 256

var (
	patternCache     sync.Map // pattern string -> *regexp.Regexp
	patternCacheSize atomic.Int32
)

// compiledPattern returns the compiled regexp for expr, consulting the
// process-wide cache first.
func compiledPattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	if patternCacheSize.Load() < patternCacheCap {
		if _, loaded := patternCache.LoadOrStore(expr, re); !loaded {
			patternCacheSize.Add(1)
		}
	}
	return re, nil
}

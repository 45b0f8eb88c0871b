package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Parse decodes a catalog document from YAML or JSON bytes and indexes it.
//
// Unknown rule tags and sources survive decoding so that Vet can report
// them and the engine can refuse them; only structurally undecodable
// documents fail here.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog

	// yaml.Unmarshal handles both YAML and JSON
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &ParseError{Cause: err}
	}

	c.index()
	return &c, nil
}

// LoadFile reads and parses a catalog document from a file path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	c, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, &ParseError{Path: path, Cause: err}
	}

	return c, nil
}

// Marshal serializes a catalog to YAML bytes that Parse round-trips.
func Marshal(c *Catalog) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to marshal: %w", err)
	}
	return data, nil
}

// UnmarshalYAML lowercases the source tag so declarations are
// case-insensitive. Unknown sources are kept for Vet to reject.
func (s *Source) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = Source(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// UnmarshalYAML lowercases the shape tag. Unknown shapes are kept for Vet
// to reject.
func (s *Shape) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = Shape(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// UnmarshalYAML accepts the three selector spellings: a bare integer
// (0 meaning the catch-all), a class pattern such as 2XX in either case,
// or the word default.
func (s *StatusSelector) UnmarshalYAML(unmarshal func(any) error) error {
	var code int
	if err := unmarshal(&code); err == nil {
		*s = Status(code)
		return nil
	}
	var raw string
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("status must be a code, a class pattern, or default: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, string(StatusDefault)) {
		*s = StatusDefault
		return nil
	}
	*s = StatusSelector(strings.ToUpper(raw))
	return nil
}

// MarshalYAML emits exact selectors as integers and everything else as
// strings, matching the forms UnmarshalYAML accepts.
func (s StatusSelector) MarshalYAML() (any, error) {
	if code, ok := s.Exact(); ok {
		return code, nil
	}
	return string(s), nil
}

// UnmarshalYAML decodes the two rule spellings: a bare tag for payload-free
// kinds (required, not_required, schema) and a single-key mapping whose key
// is the tag and whose value is the payload (type: integer, max: 10,
// enum: [a, b], ...). Unknown tags decode with their payload dropped so Vet
// can name them.
func (r *Rule) UnmarshalYAML(unmarshal func(any) error) error {
	var tag string
	if err := unmarshal(&tag); err == nil {
		r.Kind = RuleKind(normalizeTag(tag))
		return nil
	}

	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("rule must be a tag or a single-key mapping: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("rule mapping must have exactly one key, got %d", len(raw))
	}

	for key, value := range raw {
		kind := RuleKind(normalizeTag(key))
		r.Kind = kind
		switch kind {
		case KindType:
			name, ok := value.(string)
			if !ok {
				return fmt.Errorf("type rule wants a type name, got %T", value)
			}
			r.Type = TypeName(strings.ToLower(strings.TrimSpace(name)))
		case KindEnum:
			members, err := enumMembers(value)
			if err != nil {
				return err
			}
			r.Enum = members
		case KindMax, KindMin, KindExclusiveMax, KindExclusiveMin:
			bound, ok := toFloat(value)
			if !ok {
				return fmt.Errorf("%s rule wants a numeric bound, got %T", kind, value)
			}
			r.Bound = &bound
		case KindMaxLength, KindMinLength:
			length, ok := toInt(value)
			if !ok {
				return fmt.Errorf("%s rule wants an integer length, got %T", kind, value)
			}
			r.Length = &length
		case KindPattern:
			expr, ok := value.(string)
			if !ok {
				return fmt.Errorf("pattern rule wants an expression string, got %T", value)
			}
			r.Pattern = expr
		}
	}
	return nil
}

// MarshalYAML emits rules in the forms UnmarshalYAML accepts. Unknown
// kinds round-trip as bare tags.
func (r Rule) MarshalYAML() (any, error) {
	switch r.Kind {
	case KindType:
		return map[string]any{string(KindType): string(r.Type)}, nil
	case KindEnum:
		return map[string]any{string(KindEnum): r.Enum}, nil
	case KindMax, KindMin, KindExclusiveMax, KindExclusiveMin:
		if r.Bound == nil {
			return nil, fmt.Errorf("catalog: %s rule is missing its bound", r.Kind)
		}
		return map[string]any{string(r.Kind): *r.Bound}, nil
	case KindMaxLength, KindMinLength:
		if r.Length == nil {
			return nil, fmt.Errorf("catalog: %s rule is missing its length", r.Kind)
		}
		return map[string]any{string(r.Kind): *r.Length}, nil
	case KindPattern:
		return map[string]any{string(KindPattern): r.Pattern}, nil
	default:
		return string(r.Kind), nil
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// enumMembers converts an enum payload into its string members. Scalar
// members of any YAML type are accepted; the engine matches their textual
// form case-sensitively.
func enumMembers(value any) ([]string, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("enum rule wants a member list, got %T", value)
	}
	members := make([]string, 0, len(list))
	for i, m := range list {
		s, ok := memberString(m)
		if !ok {
			return nil, fmt.Errorf("enum member %d is not a scalar, got %T", i, m)
		}
		members = append(members, s)
	}
	return members, nil
}

func memberString(v any) (string, bool) {
	switch m := v.(type) {
	case string:
		return m, true
	case bool:
		return strconv.FormatBool(m), true
	case int:
		return strconv.Itoa(m), true
	case int64:
		return strconv.FormatInt(m, 10), true
	case uint64:
		return strconv.FormatUint(m, 10), true
	case float64:
		return strconv.FormatFloat(m, 'g', -1, 64), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

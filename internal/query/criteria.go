package query

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jacoelho/jsonhash/internal/node"
)

// ErrInvalidArgument indicates query criteria of the wrong shape.
var ErrInvalidArgument = errors.New("query: invalid argument")

// Criteria maps a field name to its acceptable values in string form.
type Criteria map[string][]string

// Fields returns the criterion field names in sorted order.
func (c Criteria) Fields() []string {
	fields := make([]string, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// ParseCriteria converts loosely typed input, such as decoded JSON or YAML,
// into Criteria. The input must be a mapping from field name to a list of
// values; a scalar stands for a single value. Values are compared in the
// string form given by node.String.
func ParseCriteria(v any) (Criteria, error) {
	switch t := v.(type) {
	case Criteria:
		return t, t.validate()
	case map[string][]string:
		return Criteria(t), Criteria(t).validate()
	case map[string][]any:
		c := make(Criteria, len(t))
		for field, values := range t {
			c[field] = stringify(values)
		}
		return c, c.validate()
	case map[string]any:
		c := make(Criteria, len(t))
		for field, raw := range t {
			values, err := valueSet(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidArgument, field, err)
			}
			c[field] = values
		}
		return c, c.validate()
	default:
		return nil, fmt.Errorf("%w: criteria must map field names to value sets, got %T", ErrInvalidArgument, v)
	}
}

func (c Criteria) validate() error {
	if c == nil {
		return fmt.Errorf("%w: criteria is nil", ErrInvalidArgument)
	}
	for field := range c {
		if field == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidArgument)
		}
	}
	return nil
}

func valueSet(raw any) ([]string, error) {
	switch t := raw.(type) {
	case []any:
		return stringify(t), nil
	case []string:
		return t, nil
	case map[string]any:
		return nil, errors.New("value set must be a list or scalar, got mapping")
	default:
		return []string{node.String(t)}, nil
	}
}

func stringify(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = node.String(v)
	}
	return out
}

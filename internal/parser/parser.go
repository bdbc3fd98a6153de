// Package parser provides YAML parsing for query files.

package parser

import (
	"fmt"
	"io"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"

	"github.com/jacoelho/jsonhash/internal/query"
)

// ErrParser is the sentinel error for all parser-related failures.
// It allows error wrapping and consistent error checks using errors.Is().
var ErrParser = fmt.Errorf("parser error")

// Mode selects how a query's criteria are combined.
type Mode string

const (
	// ModeAnd joins criteria on shared ancestors.
	ModeAnd Mode = "and"
	// ModeOr reports every match of every criterion independently.
	ModeOr Mode = "or"
)

// Query is one named query of a query file.
//
//	- name: inpatient
//	  mode: and
//	  criteria:
//	    claim_type: [I]
//	    type_of_bill: ["0111", "0112"]
//	  project:
//	    member: [member_id, member_age]
//	    claim: [admission_date, discharge_date]
type Query struct {
	Name     string              `yaml:"name"`               // Label used in reports
	Mode     Mode                `yaml:"mode,omitempty"`     // and (default) or or
	Criteria Criteria            `yaml:"criteria"`           // Field name to acceptable values
	Project  map[string][]string `yaml:"project,omitempty"` // Level name to fields projected from that level's matches
}

// Criteria decodes a field name to value-set mapping. Scalars stand for a
// single value and every value is compared in its string form.
type Criteria query.Criteria

// UnmarshalYAML implements custom YAML unmarshaling for Criteria so that
// numbers, booleans and single scalars are accepted alongside lists.
func (c *Criteria) UnmarshalYAML(node ast.Node) error {
	values, err := mappingValues(node)
	if err != nil {
		return fmt.Errorf("%w: criteria: %v", ErrParser, err)
	}

	raw := make(map[string]any, len(values))
	for _, valNode := range values {
		key, ok := valNode.Key.(*ast.StringNode)
		if !ok {
			return fmt.Errorf("%w: criteria: field name must be a string", ErrParser)
		}

		v, err := nodeToValue(valNode.Value)
		if err != nil {
			return fmt.Errorf("%w: criteria: field %q: %v", ErrParser, key.Value, err)
		}
		raw[key.Value] = v
	}

	parsed, err := query.ParseCriteria(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParser, err)
	}

	*c = Criteria(parsed)
	return nil
}

func mappingValues(node ast.Node) ([]*ast.MappingValueNode, error) {
	switch n := node.(type) {
	case *ast.MappingNode:
		return n.Values, nil
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{n}, nil
	default:
		return nil, fmt.Errorf("expected mapping node, got %s", node.Type())
	}
}

// Validate checks the fields every query needs.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return fmt.Errorf("%w: query is missing a name", ErrParser)
	}
	if len(q.Criteria) == 0 {
		return fmt.Errorf("%w: query %q has no criteria", ErrParser, q.Name)
	}
	switch q.Mode {
	case ModeAnd, ModeOr:
	default:
		return fmt.Errorf("%w: query %q: unsupported mode %q, use %q or %q", ErrParser, q.Name, q.Mode, ModeAnd, ModeOr)
	}
	for level, fields := range q.Project {
		if len(fields) == 0 {
			return fmt.Errorf("%w: query %q: no fields to project for level %q", ErrParser, q.Name, level)
		}
	}
	return nil
}

// Parse decodes a YAML list of queries.
func Parse(r io.Reader) ([]Query, error) {
	decoder := yaml.NewDecoder(r, yaml.DisallowUnknownField())
	var queries []Query

	if err := decoder.Decode(&queries); err != nil {
		return nil, fmt.Errorf("%w: failed to decode YAML: %v", ErrParser, err)
	}

	for i := range queries {
		if queries[i].Mode == "" {
			queries[i].Mode = ModeAnd
		}
		if err := queries[i].Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
	}

	return queries, nil
}

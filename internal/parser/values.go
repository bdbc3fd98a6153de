package parser

import (
	"fmt"

	"github.com/goccy/go-yaml/ast"
)

// nodeToValue extracts values from AST nodes.
// numbers keep the literal text of their token so that 100.0, 0110 and
// integers beyond int64 compare exactly as written
func nodeToValue(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.IntegerNode, *ast.FloatNode:
		tok := n.GetToken()
		if tok == nil || tok.Value == "" {
			return nil, fmt.Errorf("%s node has no literal", node.Type())
		}
		return tok.Value, nil
	case *ast.StringNode:
		return n.Value, nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.NullNode:
		return nil, nil
	case *ast.SequenceNode:
		result := make([]any, 0, len(n.Values))
		for i, item := range n.Values {
			val, err := nodeToValue(item)
			if err != nil {
				return nil, fmt.Errorf("invalid value at index %d: %w", i, err)
			}
			if _, nested := val.([]any); nested {
				return nil, fmt.Errorf("invalid value at index %d: nested lists are not supported", i)
			}
			result = append(result, val)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported node type: %s", node.Type())
	}
}

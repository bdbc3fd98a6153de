// Package node models a decoded record as a tagged union of objects, arrays
// and scalar leaves.
package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

var (
	// ErrUnsupported indicates a Go value that has no record representation.
	ErrUnsupported = errors.New("node: unsupported value")

	// ErrMalformed indicates the JSON input is not a single well-formed value.
	ErrMalformed = errors.New("node: malformed JSON")
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "scalar"
	}
}

// Field is a named member of an object node.
type Field struct {
	Name  string
	Value Node
}

// Node is one value of a record tree. The zero Node is the null scalar.
type Node struct {
	kind   Kind
	fields []Field
	elems  []Node
	value  any // nil is the absence marker
}

// Object builds an object node; field order is preserved.
func Object(fields ...Field) Node {
	return Node{kind: KindObject, fields: fields}
}

// Array builds an array node.
func Array(elems ...Node) Node {
	return Node{kind: KindArray, elems: elems}
}

// Scalar builds a leaf node. A nil value is the absence marker.
func Scalar(v any) Node {
	return Node{kind: KindScalar, value: v}
}

// Null returns the absence marker leaf.
func Null() Node {
	return Node{}
}

// F is shorthand for building object fields.
func F(name string, value Node) Field {
	return Field{Name: name, Value: value}
}

func (n Node) Kind() Kind      { return n.kind }
func (n Node) Fields() []Field { return n.fields }
func (n Node) Elems() []Node   { return n.elems }
func (n Node) Value() any      { return n.value }

// IsNull reports whether n is the absence marker.
func (n Node) IsNull() bool {
	return n.kind == KindScalar && n.value == nil
}

// Lookup returns the value of the named field of an object node.
func (n Node) Lookup(name string) (Node, bool) {
	for _, f := range n.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Node{}, false
}

// Equal compares two trees. Object fields compare as sets, so field order
// does not matter; scalars compare by their canonical string and Go kind.
func Equal(a, b Node) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindObject:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for _, f := range a.fields {
			other, ok := b.Lookup(f.Name)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	case KindArray:
		return slices.EqualFunc(a.elems, b.elems, Equal)
	default:
		if (a.value == nil) != (b.value == nil) {
			return false
		}
		return String(a.value) == String(b.value)
	}
}

// FromAny converts the output of encoding/json (or any equivalent decoder)
// into a Node. Map keys are sorted since Go maps carry no order.
func FromAny(v any) (Node, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			child, err := FromAny(t[k])
			if err != nil {
				return Node{}, fmt.Errorf("%s: %w", k, err)
			}
			fields = append(fields, Field{Name: k, Value: child})
		}
		return Object(fields...), nil
	case []any:
		elems := make([]Node, 0, len(t))
		for i, e := range t {
			child, err := FromAny(e)
			if err != nil {
				return Node{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems = append(elems, child)
		}
		return Array(elems...), nil
	case nil, string, bool, json.Number, float64, float32, int, int64, int32, uint64, uint32:
		return Scalar(t), nil
	default:
		return Node{}, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// Decode reads exactly one JSON value from r. Numbers are kept as
// json.Number and object field order follows the input.
func Decode(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	n, err := decodeToken(dec, tok)
	if err != nil {
		return Node{}, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Node{}, fmt.Errorf("%w: trailing data after value", ErrMalformed)
	}

	return n, nil
}

func decodeToken(dec *json.Decoder, tok json.Token) (Node, error) {
	d, ok := tok.(json.Delim)
	if !ok {
		return Scalar(tok), nil
	}

	switch d {
	case '{':
		var fields []Field
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return Node{}, fmt.Errorf("%w: object key is %T", ErrMalformed, keyTok)
			}
			valTok, err := dec.Token()
			if err != nil {
				return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			child, err := decodeToken(dec, valTok)
			if err != nil {
				return Node{}, err
			}
			fields = append(fields, Field{Name: key, Value: child})
		}
		if _, err := dec.Token(); err != nil {
			return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Object(fields...), nil
	case '[':
		var elems []Node
		for dec.More() {
			valTok, err := dec.Token()
			if err != nil {
				return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			child, err := decodeToken(dec, valTok)
			if err != nil {
				return Node{}, err
			}
			elems = append(elems, child)
		}
		if _, err := dec.Token(); err != nil {
			return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Array(elems...), nil
	default:
		return Node{}, fmt.Errorf("%w: unexpected delimiter %q", ErrMalformed, d)
	}
}

// String renders a scalar in the form used for value comparison: strings
// as-is, numbers as their literal text, booleans as true/false and the
// absence marker as null.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	default:
		return fmt.Sprint(t)
	}
}

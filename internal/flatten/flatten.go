// Package flatten converts a nested record into a flat path to scalar mapping.
//
// Objects contribute their field names as path segments and arrays contribute
// the element position as a numeric segment. Empty objects and arrays are
// recorded under their own path with the absence marker unless sparse mode is
// active, in which case they and null leaves are dropped.
package flatten

import (
	"strconv"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/node"
)

// Options controls flattening.
type Options struct {
	Sparse bool
}

type flattener struct {
	opts    Options
	builder *flat.Builder
}

// Flatten walks n and returns its flat mapping.
func Flatten(n node.Node, opts Options) (*flat.Record, error) {
	f := &flattener{
		opts:    opts,
		builder: flat.NewBuilder(64),
	}

	if err := f.walk(nil, n); err != nil {
		return nil, err
	}

	return f.builder.Build(), nil
}

func (f *flattener) walk(prefix flat.Path, n node.Node) error {
	switch n.Kind() {
	case node.KindObject:
		if len(n.Fields()) == 0 {
			return f.emit(prefix, flat.Absent)
		}
		for _, field := range n.Fields() {
			if err := f.walk(prefix.Append(field.Name), field.Value); err != nil {
				return err
			}
		}
		return nil
	case node.KindArray:
		if len(n.Elems()) == 0 {
			return f.emit(prefix, flat.Absent)
		}
		for i, elem := range n.Elems() {
			if err := f.walk(prefix.Append(strconv.Itoa(i)), elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return f.emit(prefix, flat.Leaf(n.Value()))
	}
}

func (f *flattener) emit(p flat.Path, v flat.Value) error {
	if f.opts.Sparse && v.Absent {
		return nil
	}
	return f.builder.Set(p, v)
}

package flatten

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/node"
)

// ErrConflict indicates a record whose paths cannot describe a single tree.
var ErrConflict = errors.New("flatten: conflicting paths")

type expandNode struct {
	kind     node.Kind
	children map[string]*expandNode
	value    any
	leaf     bool
}

// Expand rebuilds the tree described by rec by reversing the path-join
// convention. Numeric segments become array positions and must be dense.
// Absence-marker entries expand to null leaves, so empty containers do not
// survive a round trip.
func Expand(rec *flat.Record) (node.Node, error) {
	root := &expandNode{}

	for key, v := range rec.All() {
		if err := root.insert(flat.ParsePath(key), v); err != nil {
			return node.Node{}, fmt.Errorf("%s: %w", key, err)
		}
	}

	return root.build()
}

func (e *expandNode) insert(p flat.Path, v flat.Value) error {
	if len(p) == 0 {
		if e.children != nil || e.leaf {
			return ErrConflict
		}
		e.leaf = true
		if !v.Absent {
			e.value = v.Scalar
		}
		return nil
	}

	if e.leaf {
		return ErrConflict
	}

	kind := node.KindObject
	if flat.IsIndex(p[0]) {
		kind = node.KindArray
	}
	if e.children == nil {
		e.kind = kind
		e.children = make(map[string]*expandNode)
	} else if e.kind != kind {
		return ErrConflict
	}

	child, ok := e.children[p[0]]
	if !ok {
		child = &expandNode{}
		e.children[p[0]] = child
	}
	return child.insert(p[1:], v)
}

func (e *expandNode) build() (node.Node, error) {
	if e.children == nil {
		return node.Scalar(e.value), nil
	}

	if e.kind == node.KindArray {
		elems := make([]node.Node, len(e.children))
		for seg, child := range e.children {
			i, err := strconv.Atoi(seg)
			if err != nil || i >= len(elems) || strconv.Itoa(i) != seg {
				return node.Node{}, fmt.Errorf("%w: sparse array index %s", ErrConflict, seg)
			}
			built, err := child.build()
			if err != nil {
				return node.Node{}, err
			}
			elems[i] = built
		}
		return node.Array(elems...), nil
	}

	names := make([]string, 0, len(e.children))
	for name := range e.children {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := make([]node.Field, 0, len(names))
	for _, name := range names {
		built, err := e.children[name].build()
		if err != nil {
			return node.Node{}, err
		}
		fields = append(fields, node.F(name, built))
	}
	return node.Object(fields...), nil
}

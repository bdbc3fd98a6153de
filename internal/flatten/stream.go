package flatten

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/stack"
)

// ErrMalformed indicates the JSON token stream is not a well-formed value.
var ErrMalformed = errors.New("flatten: malformed JSON structure")

const (
	kindObj containerKind = iota
	kindArr
)

type containerKind uint8

// containerFrame tracks the position within an open object or array.
type containerFrame struct {
	kind     containerKind
	idx      int    // next index for arrays
	needKey  bool   // true if object expects a key next
	key      string // last key read for an object
	children int
}

type streamContext struct {
	flattener
	pathStack      *stack.Stack[string]
	containerStack *stack.Stack[containerFrame]
	dec            *json.Decoder
}

// Stream flattens a JSON document straight from its token stream without
// materialising the tree. The result equals Flatten over the decoded value.
func Stream(ctx context.Context, r io.Reader, opts Options) (*flat.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	sc := &streamContext{
		flattener: flattener{
			opts:    opts,
			builder: flat.NewBuilder(64),
		},
		pathStack:      stack.NewWithCapacity[string](8),
		containerStack: stack.NewWithCapacity[containerFrame](8),
		dec:            dec,
	}

	started := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !started || !sc.containerStack.IsEmpty() {
				return nil, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
			}
			return sc.builder.Build(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		if sc.containerStack.IsEmpty() {
			if started {
				return nil, fmt.Errorf("%w: trailing data after value", ErrMalformed)
			}
			started = true
			if err := sc.handleValue(tok); err != nil {
				return nil, err
			}
			continue
		}

		top := sc.containerStack.PeekRef()
		if top.kind == kindObj && top.needKey {
			err = sc.handleObjectKey(tok, top)
		} else {
			err = sc.handleElement(tok, top)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (sc *streamContext) currentPath() flat.Path {
	return flat.Path(sc.pathStack.ToSlice())
}

func (sc *streamContext) handleObjectKey(tok json.Token, top *containerFrame) error {
	if d, ok := tok.(json.Delim); ok && d == '}' {
		return sc.closeContainer()
	}

	key, ok := tok.(string)
	if !ok {
		return fmt.Errorf("%w: object key is %T", ErrMalformed, tok)
	}

	top.key = key
	top.needKey = false
	return nil
}

func (sc *streamContext) handleElement(tok json.Token, top *containerFrame) error {
	if d, ok := tok.(json.Delim); ok && d == ']' && top.kind == kindArr {
		return sc.closeContainer()
	}

	top.children++
	if top.kind == kindObj {
		sc.pathStack.Push(top.key)
		top.needKey = true
	} else {
		sc.pathStack.Push(strconv.Itoa(top.idx))
		top.idx++
	}

	return sc.handleValue(tok)
}

// handleValue opens a container or emits a scalar at the current path.
func (sc *streamContext) handleValue(tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok {
		err := sc.emit(sc.currentPath(), flat.Leaf(tok))
		sc.pathStack.Pop()
		return err
	}

	switch d {
	case '{':
		sc.containerStack.Push(containerFrame{kind: kindObj, needKey: true})
	case '[':
		sc.containerStack.Push(containerFrame{kind: kindArr})
	default:
		return fmt.Errorf("%w: unexpected delimiter %q", ErrMalformed, d)
	}
	return nil
}

func (sc *streamContext) closeContainer() error {
	frame, _ := sc.containerStack.Pop()
	if frame.children == 0 {
		if err := sc.emit(sc.currentPath(), flat.Absent); err != nil {
			return err
		}
	}
	sc.pathStack.Pop()
	return nil
}

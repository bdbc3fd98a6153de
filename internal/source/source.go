// Package source loads the record to be flattened.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/theory/jsonpath"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/flatten"
	"github.com/jacoelho/jsonhash/internal/node"
)

var (
	// ErrSource is the sentinel for all loading failures.
	ErrSource = errors.New("source error")

	// ErrNotFound indicates a root selector that matched nothing.
	ErrNotFound = errors.New("root selector matched nothing")
)

// Load decodes one JSON document from r. A non-empty root is a JSONPath
// expression (e.g. "$.payload") whose first match becomes the record.
func Load(r io.Reader, root string) (node.Node, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		n, err := node.Decode(r)
		if err != nil {
			return node.Node{}, fmt.Errorf("%w: %v", ErrSource, err)
		}
		return n, nil
	}

	path, err := jsonpath.Parse(root)
	if err != nil {
		return node.Node{}, fmt.Errorf("%w: invalid JSONPath %s: %v", ErrSource, root, err)
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return node.Node{}, fmt.Errorf("%w: failed to parse JSON data: %v", ErrSource, err)
	}

	selected := path.Select(data)
	if len(selected) == 0 {
		return node.Node{}, fmt.Errorf("%w: %w: %s", ErrSource, ErrNotFound, root)
	}

	n, err := node.FromAny(selected[0])
	if err != nil {
		return node.Node{}, fmt.Errorf("%w: %v", ErrSource, err)
	}
	return n, nil
}

// LoadFile reads and decodes filename.
func LoadFile(filename, root string) (node.Node, error) {
	f, err := os.Open(filename)
	if err != nil {
		return node.Node{}, fmt.Errorf("%w: %v", ErrSource, err)
	}
	defer f.Close()

	n, err := Load(f, root)
	if err != nil {
		return node.Node{}, fmt.Errorf("%s: %w", filename, err)
	}
	return n, nil
}

// FlattenFile loads and flattens filename. Without a root selector the
// document is flattened straight from the token stream.
func FlattenFile(ctx context.Context, filename, root string, opts flatten.Options) (*flat.Record, error) {
	if strings.TrimSpace(root) != "" {
		n, err := LoadFile(filename, root)
		if err != nil {
			return nil, err
		}
		return flatten.Flatten(n, opts)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSource, err)
	}
	defer f.Close()

	rec, err := flatten.Stream(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", filename, ErrSource, err)
	}
	return rec, nil
}

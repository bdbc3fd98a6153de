// Package project resolves sibling fields relative to matched paths.
package project

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/schema"
)

// Projection is one resolved path and the value stored there. A nil Value
// is the absence marker.
type Projection struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Projector looks up fields of the enclosing record of a path.
type Projector struct {
	rec    *flat.Record
	depths schema.DepthTable
	onMiss func(field, path string)
}

type Option func(*Projector)

// OnMiss registers a callback for resolved paths absent from the record.
func OnMiss(fn func(field, path string)) Option {
	return func(p *Projector) {
		p.onMiss = fn
	}
}

func New(rec *flat.Record, depths schema.DepthTable, opts ...Option) *Projector {
	p := &Projector{rec: rec, depths: depths}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve keeps the first depth+1 segments of path and appends field.
func (p *Projector) Resolve(path, field string) (string, error) {
	depth, err := p.depths.Depth(field)
	if err != nil {
		return "", err
	}
	return resolve(path, field, depth), nil
}

func resolve(path, field string, depth int) string {
	return flat.ParsePath(path).Truncate(depth + 1).Append(field).String()
}

// Project resolves field for every path. Paths resolving to the same
// location are reported once and resolved paths missing from the record are
// skipped. The result is ordered by path.
func (p *Projector) Project(paths []string, field string) ([]Projection, error) {
	depth, err := p.depths.Depth(field)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(paths))
	out := make([]Projection, 0, len(paths))
	for _, path := range paths {
		resolved := resolve(path, field, depth)
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}

		v, ok := p.rec.Get(resolved)
		if !ok {
			if p.onMiss != nil {
				p.onMiss(field, resolved)
			}
			continue
		}

		out = append(out, Projection{Path: resolved, Value: v.Scalar})
	}

	slices.SortFunc(out, func(a, b Projection) int {
		return flat.Compare(a.Path, b.Path)
	})

	return out, nil
}

// ProjectMany projects several fields over the same paths. A field without
// configuration does not stop the others; its error is joined into the
// returned error.
func (p *Projector) ProjectMany(paths []string, fields []string) (map[string][]Projection, error) {
	out := make(map[string][]Projection, len(fields))
	var errs []error

	for _, field := range fields {
		projected, err := p.Project(paths, field)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", field, err))
			continue
		}
		out[field] = projected
	}

	return out, errors.Join(errs...)
}

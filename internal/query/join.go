package query

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/schema"
)

// PathSet is an unordered set of paths.
type PathSet map[string]struct{}

func (s PathSet) Add(path string) {
	s[path] = struct{}{}
}

func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

func (s PathSet) Len() int {
	return len(s)
}

// Sorted returns the paths ordered with flat.Compare.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, flat.Compare)
	return out
}

func (s PathSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Join holds, per level name, the ancestors shared by every criterion.
type Join map[string]PathSet

func (j Join) Level(name string) PathSet {
	if s, ok := j[name]; ok {
		return s
	}
	return PathSet{}
}

func (j Join) Member() PathSet    { return j.Level(schema.LevelMember) }
func (j Join) Claim() PathSet     { return j.Level(schema.LevelClaim) }
func (j Join) ClaimLine() PathSet { return j.Level(schema.LevelClaimLine) }

// IsEmpty reports whether no level has a surviving ancestor.
func (j Join) IsEmpty() bool {
	for _, s := range j {
		if s.Len() > 0 {
			return false
		}
	}
	return true
}

// JoinAnd finds the ancestors at which all criteria are satisfied together.
// For each level, an ancestor survives only if every criterion field has at
// least one match under it; matches without an ancestor at a level cannot
// survive there.
func (e *Engine) JoinAnd(c Criteria) (Join, error) {
	start := time.Now()
	join, err := e.joinAnd(c)

	survivors := 0
	for _, s := range join {
		survivors += s.Len()
	}
	e.metrics.ObserveQuery("join", time.Since(start), survivors, err)

	return join, err
}

func (e *Engine) joinAnd(c Criteria) (Join, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: join requires at least one criterion", ErrInvalidArgument)
	}

	matches, err := e.find(c)
	if err != nil {
		return nil, err
	}

	levels := e.analyzer.Descriptor().Names()
	fields := c.Fields()
	join := make(Join, len(levels))

	for _, level := range levels {
		ids := make(map[string]uint32)
		var paths []string

		perField := make([]*roaring.Bitmap, 0, len(fields))
		for _, field := range fields {
			bm := roaring.New()
			for _, info := range matches[field] {
				ancestor, ok := info.Ancestor(level)
				if !ok {
					continue
				}
				id, seen := ids[ancestor]
				if !seen {
					id = uint32(len(paths))
					ids[ancestor] = id
					paths = append(paths, ancestor)
				}
				bm.Add(id)
			}
			perField = append(perField, bm)
		}

		shared := make(PathSet)
		it := roaring.FastAnd(perField...).Iterator()
		for it.HasNext() {
			shared.Add(paths[it.Next()])
		}
		join[level] = shared

		e.log.Debug().Str("level", level).Int("candidates", len(paths)).Int("shared", shared.Len()).Msg("join")
	}

	return join, nil
}

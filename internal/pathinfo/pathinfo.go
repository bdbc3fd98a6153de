// Package pathinfo classifies flat paths against a hierarchy descriptor,
// yielding the level a path belongs to and its ancestor at every enclosing
// level.
package pathinfo

import (
	"errors"
	"fmt"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/schema"
)

// ErrStructuralAssumption indicates a path that does not fit the declared
// hierarchy. It is only raised in strict mode.
var ErrStructuralAssumption = errors.New("pathinfo: path does not match hierarchy")

// Info is the classification of one flat path.
type Info struct {
	Key string `json:"key"`
	// Level is the name of the level the path belongs to, or "" when the
	// path length matches no declared level.
	Level string `json:"level"`
	// Ancestors maps a level name to the enclosing element path at that
	// level. Levels deeper than Level have no entry.
	Ancestors map[string]string `json:"ancestors"`
}

// Ancestor returns the enclosing path at the named level.
func (i Info) Ancestor(level string) (string, bool) {
	a, ok := i.Ancestors[level]
	return a, ok
}

func (i Info) Member() (string, bool)    { return i.Ancestor(schema.LevelMember) }
func (i Info) Claim() (string, bool)     { return i.Ancestor(schema.LevelClaim) }
func (i Info) ClaimLine() (string, bool) { return i.Ancestor(schema.LevelClaimLine) }

// Analyzer classifies paths. It holds no mutable state.
type Analyzer struct {
	desc   schema.Descriptor
	strict bool
}

type Option func(*Analyzer)

// Strict makes Classify fail on paths that do not fit the descriptor instead
// of leaving them unclassified.
func Strict() Option {
	return func(a *Analyzer) {
		a.strict = true
	}
}

func New(desc schema.Descriptor, opts ...Option) *Analyzer {
	a := &Analyzer{desc: desc}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Descriptor() schema.Descriptor {
	return a.desc
}

func (a *Analyzer) IsStrict() bool {
	return a.strict
}

// Classify parses key and classifies it.
func (a *Analyzer) Classify(key string) (Info, error) {
	return a.ClassifyPath(flat.ParsePath(key))
}

// ClassifyPath determines the level of p by looking up its field-path length
// (ignoring a trailing array index) in the descriptor. The outermost
// ancestor is present whenever p is long enough to hold it. Deeper ancestors
// are present up to the path's own level, and only while every enclosing
// array is the container its level declares: contents.0.provider.3.npi has
// the length of a claim field but no claim ancestor.
func (a *Analyzer) ClassifyPath(p flat.Path) (Info, error) {
	info := Info{
		Key:       p.String(),
		Ancestors: make(map[string]string, len(a.desc.Levels)),
	}

	if len(a.desc.Levels) == 0 {
		return info, nil
	}

	fieldSegments := len(p)
	if p.EndsWithIndex() {
		fieldSegments--
	}

	level, idx, ok := a.desc.LevelFor(fieldSegments)
	if a.strict {
		if !ok {
			return Info{}, fmt.Errorf("%w: %s has %d field segments", ErrStructuralAssumption, info.Key, fieldSegments)
		}
		if err := a.checkContainers(p, idx); err != nil {
			return Info{}, err
		}
	}
	if !ok {
		idx = 0
	}

	matched := a.matchedLevels(p, idx)
	if ok && matched > idx {
		info.Level = level.Name
	}

	for i, l := range a.desc.Levels[:idx+1] {
		if len(p) < l.Prefix || (i > 0 && i >= matched) {
			break
		}
		info.Ancestors[l.Name] = p[:l.Prefix].String()
	}

	return info, nil
}

// matchedLevels counts the levels, from the outermost down to idx, that p
// opens with their declared container followed by an array index.
func (a *Analyzer) matchedLevels(p flat.Path, idx int) int {
	for i, l := range a.desc.Levels[:idx+1] {
		if len(p) < l.Prefix || p[l.Prefix-2] != l.Container || !flat.IsIndex(p[l.Prefix-1]) {
			return i
		}
	}
	return idx + 1
}

// checkContainers verifies that every level down to idx is opened by its
// declared container followed by an array index.
func (a *Analyzer) checkContainers(p flat.Path, idx int) error {
	if n := a.matchedLevels(p, idx); n <= idx {
		l := a.desc.Levels[n]
		if len(p) < l.Prefix {
			return fmt.Errorf("%w: %s is too short for level %s", ErrStructuralAssumption, p, l.Name)
		}
		return fmt.Errorf("%w: %s: expected %s.<index> at segment %d, got %s.%s",
			ErrStructuralAssumption, p, l.Container, l.Prefix-1, p[l.Prefix-2], p[l.Prefix-1])
	}
	return nil
}

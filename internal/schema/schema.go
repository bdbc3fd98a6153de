// Package schema describes the fixed hierarchy a record is expected to follow
// and the per-field depth table used for projection. Both are injected
// configuration; nothing here is derived from data.
package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing indicates a field with no depth table entry.
	ErrConfigurationMissing = errors.New("schema: configuration missing")

	// ErrInvalidSchema indicates an inconsistent descriptor or depth table.
	ErrInvalidSchema = errors.New("schema: invalid schema")
)

// Range is an inclusive segment-count range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Level is one named nesting level of the hierarchy.
type Level struct {
	// Name labels the level in classifications and join results.
	Name string `yaml:"name"`
	// Container is the array field whose elements open this level.
	Container string `yaml:"container"`
	// Prefix is the number of leading segments identifying the enclosing
	// element at this level, e.g. contents.0 for the first level.
	Prefix int `yaml:"prefix"`
	// Segments is the range of field-path lengths, not counting a trailing
	// array index, that belong to this level.
	Segments Range `yaml:"segments"`
}

// Descriptor is a versioned, ordered list of levels from outermost to
// innermost.
type Descriptor struct {
	Name    string  `yaml:"name"`
	Version string  `yaml:"version"`
	Levels  []Level `yaml:"levels"`
}

// Root returns the label of the outermost container.
func (d Descriptor) Root() string {
	if len(d.Levels) == 0 {
		return ""
	}
	return d.Levels[0].Container
}

// LevelFor looks up the level declaring fieldSegments, returning its
// position in Levels.
func (d Descriptor) LevelFor(fieldSegments int) (Level, int, bool) {
	for i, l := range d.Levels {
		if l.Segments.Contains(fieldSegments) {
			return l, i, true
		}
	}
	return Level{}, -1, false
}

// Index returns the position of the named level.
func (d Descriptor) Index(name string) (int, bool) {
	for i, l := range d.Levels {
		if l.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns level names from outermost to innermost.
func (d Descriptor) Names() []string {
	names := make([]string, len(d.Levels))
	for i, l := range d.Levels {
		names[i] = l.Name
	}
	return names
}

// Validate checks that prefixes strictly increase and segment ranges are
// ordered, non-overlapping and deeper than their own prefix.
func (d Descriptor) Validate() error {
	if len(d.Levels) == 0 {
		return fmt.Errorf("%w: descriptor %q has no levels", ErrInvalidSchema, d.Name)
	}

	seen := make(map[string]bool, len(d.Levels))
	prevPrefix, prevMax := 0, 0
	for i, l := range d.Levels {
		switch {
		case l.Name == "":
			return fmt.Errorf("%w: level %d has no name", ErrInvalidSchema, i)
		case seen[l.Name]:
			return fmt.Errorf("%w: duplicate level %q", ErrInvalidSchema, l.Name)
		case l.Container == "":
			return fmt.Errorf("%w: level %q has no container", ErrInvalidSchema, l.Name)
		case l.Prefix < 2 || l.Prefix <= prevPrefix:
			return fmt.Errorf("%w: level %q prefix %d must exceed %d", ErrInvalidSchema, l.Name, l.Prefix, max(1, prevPrefix))
		case l.Segments.Min <= l.Prefix || l.Segments.Max < l.Segments.Min:
			return fmt.Errorf("%w: level %q segments [%d,%d] invalid for prefix %d", ErrInvalidSchema, l.Name, l.Segments.Min, l.Segments.Max, l.Prefix)
		case l.Segments.Min <= prevMax:
			return fmt.Errorf("%w: level %q segments overlap the previous level", ErrInvalidSchema, l.Name)
		}
		seen[l.Name] = true
		prevPrefix, prevMax = l.Prefix, l.Segments.Max
	}

	return nil
}

// DepthTable maps a field name to the number of leading path segments,
// excluding the trailing array index, that identify the record enclosing it.
type DepthTable map[string]int

// Depth returns the truncation length for field.
func (t DepthTable) Depth(field string) (int, error) {
	depth, ok := t[field]
	if !ok {
		return 0, fmt.Errorf("%w: no depth for field %q", ErrConfigurationMissing, field)
	}
	return depth, nil
}

func (t DepthTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: depth table is empty", ErrInvalidSchema)
	}
	for field, depth := range t {
		if depth < 0 {
			return fmt.Errorf("%w: negative depth %d for %q", ErrInvalidSchema, depth, field)
		}
	}
	return nil
}

// Level names used by ClaimsV1.
const (
	LevelMember    = "member"
	LevelClaim     = "claim"
	LevelClaimLine = "claim_line"
)

// ClaimsV1 is the member / claim / claim line hierarchy:
//
//	contents.<m>.member_id
//	contents.<m>.claim.<c>.claim_type
//	contents.<m>.claim.<c>.claim_line.<l>.procedure_code
func ClaimsV1() Descriptor {
	return Descriptor{
		Name:    "claims",
		Version: "v1",
		Levels: []Level{
			{Name: LevelMember, Container: "contents", Prefix: 2, Segments: Range{Min: 3, Max: 3}},
			{Name: LevelClaim, Container: "claim", Prefix: 4, Segments: Range{Min: 5, Max: 5}},
			{Name: LevelClaimLine, Container: "claim_line", Prefix: 6, Segments: Range{Min: 7, Max: 7}},
		},
	}
}

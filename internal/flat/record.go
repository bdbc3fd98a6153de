// Package flat holds the single-level path to scalar mapping produced by
// flattening a record.
package flat

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrDuplicatePath indicates two leaves flattened to the same path string,
// e.g. a field name containing the separator colliding with a nested field.
var ErrDuplicatePath = errors.New("flat: duplicate path")

// Value is a leaf of the flat mapping.
type Value struct {
	Scalar any
	Absent bool
}

// Absent is the explicit absence marker.
var Absent = Value{Absent: true}

// Leaf wraps a scalar; nil becomes the absence marker.
func Leaf(v any) Value {
	if v == nil {
		return Absent
	}
	return Value{Scalar: v}
}

// Record is the flat mapping. It is never mutated after Build, so it may be
// read from multiple goroutines.
type Record struct {
	entries map[string]Value
	keys    []string // sorted
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.entries[key]
	return v, ok
}

// Len returns the number of entries.
func (r *Record) Len() int {
	return len(r.keys)
}

// Keys returns all keys in sorted order.
func (r *Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Key returns the key at ordinal i of the sorted key order.
func (r *Record) Key(i int) string {
	return r.keys[i]
}

// All iterates entries in key order.
func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range r.keys {
			if !yield(k, r.entries[k]) {
				return
			}
		}
	}
}

// WithoutAbsent returns a copy with every absence-marker entry removed.
func (r *Record) WithoutAbsent() *Record {
	b := NewBuilder(len(r.keys))
	for k, v := range r.All() {
		if !v.Absent {
			b.entries[k] = v
		}
	}
	return b.Build()
}

// Equal reports whether both records hold the same keys and values.
func (r *Record) Equal(other *Record) bool {
	if !slices.Equal(r.keys, other.keys) {
		return false
	}
	for k, v := range r.entries {
		o := other.entries[k]
		if v.Absent != o.Absent || v.Scalar != o.Scalar {
			return false
		}
	}
	return true
}

// Builder accumulates entries for a Record.
type Builder struct {
	entries map[string]Value
}

func NewBuilder(capacity int) *Builder {
	return &Builder{entries: make(map[string]Value, capacity)}
}

// Set stores v under p. Keys are unique; a repeated key is an error.
func (b *Builder) Set(p Path, v Value) error {
	key := p.String()
	if _, exists := b.entries[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, key)
	}
	b.entries[key] = v
	return nil
}

// Build freezes the accumulated entries. The builder must not be reused.
func (b *Builder) Build() *Record {
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return &Record{entries: b.entries, keys: keys}
}
